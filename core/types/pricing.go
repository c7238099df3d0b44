// Package types - Line item pricing types
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingMethod selects how a line item's unit cost is obtained
type PricingMethod string

const (
	// PricingQuotation computes the unit cost from seasons and tiers
	PricingQuotation PricingMethod = "quotation"

	// PricingFixed uses the stored override value verbatim
	PricingFixed PricingMethod = "fixed"
)

// Valid reports whether the pricing method is known
func (p PricingMethod) Valid() bool {
	switch p {
	case PricingQuotation, PricingFixed:
		return true
	}
	return false
}

// QuantityKind selects how billable units are counted
type QuantityKind string

const (
	// QuantityRatio bills ceil(count/per) × times units
	QuantityRatio QuantityKind = "ratio"

	// QuantityFixed bills times units whatever the passenger count
	QuantityFixed QuantityKind = "fixed"

	// QuantityPerOccurrence bills times units per scheduled occurrence
	QuantityPerOccurrence QuantityKind = "per-occurrence"
)

// Valid reports whether the quantity kind is known
func (q QuantityKind) Valid() bool {
	switch q {
	case QuantityRatio, QuantityFixed, QuantityPerOccurrence:
		return true
	}
	return false
}

// QuantityRule is the "per N of category X, times M" rule of a line item
type QuantityRule struct {
	Kind       QuantityKind   `json:"kind"`
	Categories []CategoryCode `json:"categories,omitempty"`
	Per        int            `json:"per"`
	Times      int            `json:"times"`
}

// SeasonKind distinguishes calendar ranges from yearly patterns
type SeasonKind string

const (
	// SeasonFixed compares full calendar dates
	SeasonFixed SeasonKind = "fixed"

	// SeasonRecurring compares month and day only, every year
	SeasonRecurring SeasonKind = "recurring"
)

// MonthDay is a day of a year without the year
type MonthDay struct {
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// Ordinal orders month-days within a year
func (m MonthDay) Ordinal() int {
	return int(m.Month)*100 + m.Day
}

// MonthDayOf extracts the month-day of a date
func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

// WeekdayMask has bit n set when time.Weekday(n) is allowed. Zero allows every day.
type WeekdayMask uint8

// AllWeekdays allows every day of the week
const AllWeekdays WeekdayMask = 0x7f

// MaskOf builds a mask from weekdays
func MaskOf(days ...time.Weekday) WeekdayMask {
	var m WeekdayMask
	for _, d := range days {
		m |= 1 << uint(d)
	}
	return m
}

// Allows reports whether the mask includes a weekday
func (m WeekdayMask) Allows(d time.Weekday) bool {
	if m == 0 {
		return true
	}
	return m&(1<<uint(d)) != 0
}

// SeasonRule adjusts a base cost on matching dates
type SeasonRule struct {
	ID   string     `json:"id"`
	Name string     `json:"name,omitempty"`
	Kind SeasonKind `json:"kind"`

	// Start and End bound a fixed season, both inclusive
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`

	// StartDay and EndDay bound a recurring season; End before Start wraps the year end
	StartDay MonthDay `json:"start_day,omitempty"`
	EndDay   MonthDay `json:"end_day,omitempty"`

	Weekdays WeekdayMask `json:"weekdays,omitempty"`

	// Priority wins on overlap; Sequence (creation order) breaks ties, higher is newer
	Priority int   `json:"priority"`
	Sequence int64 `json:"sequence"`

	Multiplier *decimal.Decimal `json:"multiplier,omitempty"`
	Override   *decimal.Decimal `json:"override,omitempty"`
}

// CategoryAmount is a value attached to one passenger category
type CategoryAmount struct {
	Category CategoryCode    `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategoryAmounts is a per-category price or percentage table
type CategoryAmounts []CategoryAmount

// Lookup returns the amount for a category
func (a CategoryAmounts) Lookup(code CategoryCode) (decimal.Decimal, bool) {
	for _, e := range a {
		if e.Category == code {
			return e.Amount, true
		}
	}
	return decimal.Zero, false
}

// PriceTier is a passenger-count bracket with its own base cost
type PriceTier struct {
	PaxMin   int             `json:"pax_min"`
	PaxMax   int             `json:"pax_max"`
	UnitCost decimal.Decimal `json:"unit_cost"`

	// Adjustments are percentages applied to UnitCost per category (-10 = 10% off)
	Adjustments CategoryAmounts `json:"adjustments,omitempty"`

	// CategoryPrices are absolute prices; they win over Adjustments on the same tier
	CategoryPrices CategoryAmounts `json:"category_prices,omitempty"`
}

// Contains reports whether n is inside the inclusive bracket
func (t PriceTier) Contains(n int) bool {
	return t.PaxMin <= n && n <= t.PaxMax
}

// LineItem is one billable service inside a block
type LineItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`

	PricingMethod PricingMethod   `json:"pricing_method"`
	FixedValue    decimal.Decimal `json:"fixed_value"`

	UnitCost decimal.Decimal `json:"unit_cost"`
	Currency Currency        `json:"currency"`

	Quantity QuantityRule `json:"quantity"`

	Seasons []SeasonRule `json:"seasons,omitempty"`

	Tiers []PriceTier `json:"tiers,omitempty"`
	// TierCategories limits which categories count toward tier selection
	TierCategories []CategoryCode `json:"tier_categories,omitempty"`

	ConditionOptionID string `json:"condition_option_id,omitempty"`

	// CategoryPrices are item-level absolute prices; they beat every tier source
	CategoryPrices CategoryAmounts `json:"category_prices,omitempty"`

	// AccommodationID prices the item through the room allocator
	AccommodationID string `json:"accommodation_id,omitempty"`
}
