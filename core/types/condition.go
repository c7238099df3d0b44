// Package types - Variant conditions
package types

// ConditionScope limits the block kinds a condition applies to
type ConditionScope string

const (
	ScopeAll           ConditionScope = "all"
	ScopeAccommodation ConditionScope = "accommodation"
	ScopeService       ConditionScope = "service"
)

// Valid reports whether the scope is known
func (s ConditionScope) Valid() bool {
	switch s {
	case ScopeAll, ScopeAccommodation, ScopeService, "":
		return true
	}
	return false
}

// Covers reports whether a condition with this scope applies to a block kind
func (s ConditionScope) Covers(kind BlockKind) bool {
	switch s {
	case ScopeAll, "":
		return true
	case ScopeAccommodation:
		return kind == BlockAccommodation
	case ScopeService:
		return kind == BlockActivity
	}
	return false
}

// ConditionOption is one of the mutually exclusive choices of a condition
type ConditionOption struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	SortOrder int    `json:"sort_order"`
}

// Condition is a named decision point ("Transport", "Hotel category")
type Condition struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Scope   ConditionScope    `json:"scope,omitempty"`
	Options []ConditionOption `json:"options"`
}

// HasOption reports whether an option belongs to the condition
func (c Condition) HasOption(optionID string) bool {
	for _, o := range c.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// TripCondition binds a condition to a trip with its default choice
type TripCondition struct {
	ConditionID      string `json:"condition_id"`
	SelectedOptionID string `json:"selected_option_id,omitempty"`
	IsActive         bool   `json:"is_active"`
}

// Selection is the effective choice for one condition
type Selection struct {
	OptionID string `json:"option_id,omitempty"`
	Active   bool   `json:"active"`
}

// SelectionSet maps condition IDs to their effective selection
type SelectionSet map[string]Selection
