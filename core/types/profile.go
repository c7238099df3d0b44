// Package types - Quotation profiles
package types

// ProfileMode selects how a profile enumerates compositions
type ProfileMode string

const (
	// ModeRange computes one row per pax count from MinPax to MaxPax
	ModeRange ProfileMode = "range"

	// ModeCustom computes one row for a fixed composition
	ModeCustom ProfileMode = "custom"
)

// Valid reports whether the mode is known
func (m ProfileMode) Valid() bool {
	switch m {
	case ModeRange, ModeCustom:
		return true
	}
	return false
}

// ProfileStatus is the lifecycle state of a computed profile
type ProfileStatus string

const (
	StatusDraft       ProfileStatus = "draft"
	StatusCalculating ProfileStatus = "calculating"
	StatusCalculated  ProfileStatus = "calculated"
	StatusStale       ProfileStatus = "stale"
)

// StaffRule adds staff to every range composition: max(Minimum, ceil(base/Per))
// people of Category, where base is the range count, plus already added staff
// when IncludeStaff is set
type StaffRule struct {
	Category     CategoryCode `json:"category"`
	Per          int          `json:"per"`
	Minimum      int          `json:"minimum"`
	IncludeStaff bool         `json:"include_staff,omitempty"`
}

// Profile is a named, reusable pricing configuration of a trip ("cotation")
type Profile struct {
	ID     string      `json:"id"`
	TripID string      `json:"trip_id"`
	Name   string      `json:"name"`
	Mode   ProfileMode `json:"mode"`

	// Range mode
	MinPax        int          `json:"min_pax,omitempty"`
	MaxPax        int          `json:"max_pax,omitempty"`
	RangeCategory CategoryCode `json:"range_category,omitempty"`
	StaffRules    []StaffRule  `json:"staff_rules,omitempty"`

	// Custom mode
	Composition Composition `json:"composition"`

	// Selections overrides trip condition defaults: condition ID to option ID
	Selections map[string]string `json:"selections,omitempty"`

	// RoomDemand overrides the trip-level room layout
	RoomDemand *RoomDemand `json:"room_demand,omitempty"`
}
