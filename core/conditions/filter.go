// Package conditions decides which line items take part in a computation
// for a given set of variant selections.
package conditions

import (
	"fmt"

	"tripcost/core/determinism"
	"tripcost/core/types"
	"tripcost/internal/errors"
)

// Decision is the outcome of filtering one line item
type Decision struct {
	Included bool
	Reason   string

	// Unknown is set when the item references an option no condition owns
	Unknown bool
}

// Filter evaluates items against the trip's conditions and a selection set
type Filter struct {
	conditions map[string]types.Condition
	owners     map[string]string // option ID -> condition ID
	selections types.SelectionSet
}

// NewFilter creates a filter over the trip's conditions
func NewFilter(conditions []types.Condition, selections types.SelectionSet) *Filter {
	f := &Filter{
		conditions: make(map[string]types.Condition, len(conditions)),
		owners:     make(map[string]string),
		selections: selections,
	}
	for _, c := range conditions {
		f.conditions[c.ID] = c
		for _, o := range c.Options {
			f.owners[o.ID] = c.ID
		}
	}
	return f
}

// Owner returns the condition owning an option
func (f *Filter) Owner(optionID string) (types.Condition, bool) {
	id, ok := f.owners[optionID]
	if !ok {
		return types.Condition{}, false
	}
	return f.conditions[id], true
}

// Evaluate decides whether item is included in a block of the given kind
// whose effective condition is blockCondition.
func (f *Filter) Evaluate(item *types.LineItem, blockCondition string, kind types.BlockKind) Decision {
	if item.ConditionOptionID == "" {
		return Decision{Included: true}
	}

	cond, ok := f.Owner(item.ConditionOptionID)
	if !ok {
		return Decision{
			Included: true,
			Unknown:  true,
			Reason:   fmt.Sprintf("condition option %s does not exist", item.ConditionOptionID),
		}
	}

	// An option outside the block's own condition is not applicable here
	if blockCondition == "" || cond.ID != blockCondition {
		return Decision{Included: true, Reason: "condition not applicable"}
	}
	if !cond.Scope.Covers(kind) {
		return Decision{Included: true, Reason: "condition not applicable"}
	}

	sel, ok := f.selections[cond.ID]
	if !ok {
		return Decision{Reason: fmt.Sprintf("condition %s has no selection", cond.Name)}
	}
	if !sel.Active {
		return Decision{Reason: fmt.Sprintf("condition %s is inactive", cond.Name)}
	}
	if sel.OptionID != item.ConditionOptionID {
		return Decision{Reason: fmt.Sprintf("option %s not selected for %s", item.ConditionOptionID, cond.Name)}
	}
	return Decision{Included: true}
}

// Effective builds the selection set of a computation: the trip's condition
// bindings, with the profile's choices replacing the default options. A
// profile choice for a condition the trip does not bind adds an active
// selection.
func Effective(trip *types.Trip, overrides map[string]string) types.SelectionSet {
	set := make(types.SelectionSet, len(trip.TripConditions)+len(overrides))
	for _, tc := range trip.TripConditions {
		set[tc.ConditionID] = types.Selection{OptionID: tc.SelectedOptionID, Active: tc.IsActive}
	}
	for condID, optionID := range overrides {
		sel, ok := set[condID]
		if !ok {
			sel.Active = true
		}
		sel.OptionID = optionID
		set[condID] = sel
	}
	return set
}

// Validate checks that every option has a single owner and that every
// selected option belongs to its condition. Selections are checked in
// condition ID order.
func Validate(conditions []types.Condition, set types.SelectionSet) error {
	byID := make(map[string]types.Condition, len(conditions))
	owners := make(map[string]string)
	for _, c := range conditions {
		byID[c.ID] = c
		for _, o := range c.Options {
			if owner, dup := owners[o.ID]; dup && owner != c.ID {
				return errors.Malformed("option %s belongs to conditions %s and %s", o.ID, owner, c.ID)
			}
			owners[o.ID] = c.ID
		}
	}
	for _, condID := range determinism.SortedKeys(map[string]types.Selection(set)) {
		sel := set[condID]
		c, ok := byID[condID]
		if !ok {
			return errors.Malformed("selection for unknown condition %s", condID)
		}
		if sel.OptionID != "" && !c.HasOption(sel.OptionID) {
			return errors.Malformed("option %s does not belong to condition %s", sel.OptionID, c.Name)
		}
	}
	return nil
}
