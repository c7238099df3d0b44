// Package types - Trip schedule types
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// BlockKind is the closed set of block kinds
type BlockKind string

const (
	BlockText          BlockKind = "text"
	BlockActivity      BlockKind = "activity"
	BlockAccommodation BlockKind = "accommodation"
)

// Valid reports whether the block kind is known
func (k BlockKind) Valid() bool {
	switch k {
	case BlockText, BlockActivity, BlockAccommodation:
		return true
	}
	return false
}

// Day is one scheduled day, possibly spanning Number..NumberEnd
type Day struct {
	ID        string `json:"id"`
	Number    int    `json:"number"`
	NumberEnd int    `json:"number_end,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Span is the number of days covered, at least 1
func (d Day) Span() int {
	if d.NumberEnd > d.Number {
		return d.NumberEnd - d.Number + 1
	}
	return 1
}

// Block groups line items. Blocks form an arena: ParentID refers to another
// block's ID and children inherit DayID, Transversal and ConditionID.
type Block struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Kind        BlockKind `json:"kind"`
	DayID       string    `json:"day_id,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	Transversal bool      `json:"transversal,omitempty"`
	ConditionID string    `json:"condition_id,omitempty"`
	SortOrder   int       `json:"sort_order"`

	Items []LineItem `json:"items,omitempty"`
}

// Trip is the fully loaded pricing snapshot of one trip
type Trip struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`

	StartDate    time.Time `json:"start_date,omitempty"`
	DurationDays int       `json:"duration_days,omitempty"`

	DefaultCurrency Currency        `json:"default_currency"`
	VATPct          decimal.Decimal `json:"vat_pct"`
	VATMode         VATMode         `json:"vat_mode,omitempty"`
	Margin          MarginSpec      `json:"margin"`

	Days   []Day   `json:"days"`
	Blocks []Block `json:"blocks"`

	Conditions     []Condition     `json:"conditions,omitempty"`
	TripConditions []TripCondition `json:"trip_conditions,omitempty"`

	Accommodations []Accommodation `json:"accommodations,omitempty"`

	// RoomDemand is the trip-level default room layout, if any
	RoomDemand *RoomDemand `json:"room_demand,omitempty"`
}

// ServiceDate returns the calendar date of a day number, or the zero time
// when the trip has no start date
func (t *Trip) ServiceDate(dayNumber int) time.Time {
	if t.StartDate.IsZero() {
		return time.Time{}
	}
	if dayNumber < 1 {
		dayNumber = 1
	}
	return TruncateDate(t.StartDate).AddDate(0, 0, dayNumber-1)
}
