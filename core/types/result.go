// Package types - Pricing results
package types

import (
	"github.com/shopspring/decimal"

	"tripcost/internal/errors"
)

// Warning is a non-fatal problem attached to a result
type Warning struct {
	Type    errors.Type `json:"type"`
	BlockID string      `json:"block_id,omitempty"`
	ItemID  string      `json:"item_id,omitempty"`
	Message string      `json:"message"`
}

// CostSource records where an item's unit cost came from
type CostSource string

const (
	SourceBase     CostSource = "base"
	SourceSeason   CostSource = "season"
	SourceTier     CostSource = "tier"
	SourceCategory CostSource = "category"
	SourceFixed    CostSource = "fixed"
	SourceRooms    CostSource = "rooms"
)

// ItemCost is the priced detail of one line item
type ItemCost struct {
	ItemID string     `json:"item_id"`
	Name   string     `json:"name"`
	Source CostSource `json:"source"`

	// SourceRef names the season rule or tier bracket used
	SourceRef string `json:"source_ref,omitempty"`

	LocalCurrency Currency        `json:"local_currency"`
	UnitCostLocal decimal.Decimal `json:"unit_cost_local"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Quantity      int             `json:"quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`

	// Known is false when the subtotal could not be computed (room coverage failure)
	Known bool `json:"known"`
}

// ExcludedItem is a line item skipped by the condition filter
type ExcludedItem struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// BlockCost is the priced detail of one block
type BlockCost struct {
	BlockID  string          `json:"block_id"`
	Name     string          `json:"name,omitempty"`
	Kind     BlockKind       `json:"kind"`
	Cost     decimal.Decimal `json:"cost"`
	Known    bool            `json:"known"`
	Items    []ItemCost      `json:"items,omitempty"`
	Excluded []ExcludedItem  `json:"excluded,omitempty"`
}

// DayCost is the priced detail of one day
type DayCost struct {
	DayID  string          `json:"day_id"`
	Number int             `json:"number"`
	Title  string          `json:"title,omitempty"`
	Cost   decimal.Decimal `json:"cost"`
	Blocks []BlockCost     `json:"blocks,omitempty"`
}

// RoomAssignment is the allocation used for one accommodation item
type RoomAssignment struct {
	BlockID         string          `json:"block_id"`
	ItemID          string          `json:"item_id"`
	AccommodationID string          `json:"accommodation_id"`
	Nights          int             `json:"nights"`
	Rooms           []AllocatedRoom `json:"rooms"`
	Cost            decimal.Decimal `json:"cost"`
	Covered         bool            `json:"covered"`
	Optimal         bool            `json:"optimal"`
	Override        bool            `json:"override,omitempty"`
	Uncovered       Composition     `json:"uncovered"`
}

// PricingResult is the engine output for one composition
type PricingResult struct {
	Composition Composition `json:"composition"`
	PaxCount    int         `json:"pax_count"`
	HeadCount   int         `json:"head_count"`
	Currency    Currency    `json:"currency"`

	TotalCost      decimal.Decimal `json:"total_cost"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
	CostPerPerson  decimal.Decimal `json:"cost_per_person"`
	PricePerPerson decimal.Decimal `json:"price_per_person"`

	VAT          decimal.Decimal `json:"vat"`
	PriceWithVAT decimal.Decimal `json:"price_with_vat"`

	// Incomplete is set when any part of the total is unknown or unconverted
	Incomplete bool `json:"incomplete"`

	Days        []DayCost        `json:"days"`
	Transversal []BlockCost      `json:"transversal,omitempty"`
	Rooms       []RoomAssignment `json:"rooms,omitempty"`
	Warnings    []Warning        `json:"warnings,omitempty"`
}

// GridRow is one computed row of a cotation grid
type GridRow struct {
	// Pax is the requested count in range mode, or the pricing count in custom mode
	Pax    int           `json:"pax"`
	Label  string        `json:"label"`
	Result PricingResult `json:"result"`
}

// OmittedRow is a row that could not be computed
type OmittedRow struct {
	Pax    int         `json:"pax"`
	Type   errors.Type `json:"type"`
	Reason string      `json:"reason"`
}

// Grid is the result of a cotation computation, ordered by ascending pax
type Grid struct {
	ProfileID   string       `json:"profile_id"`
	Mode        ProfileMode  `json:"mode"`
	Currency    Currency     `json:"currency"`
	Fingerprint string       `json:"fingerprint"`
	Rows        []GridRow    `json:"rows"`
	Omitted     []OmittedRow `json:"omitted,omitempty"`

	// Cancelled marks a partial grid returned by a cancelled run
	Cancelled bool `json:"cancelled,omitempty"`
}

// Row returns the row for a pax count
func (g *Grid) Row(pax int) (*GridRow, bool) {
	for i := range g.Rows {
		if g.Rows[i].Pax == pax {
			return &g.Rows[i], true
		}
	}
	return nil, false
}

// Incomplete reports whether any row is incomplete
func (g *Grid) Incomplete() bool {
	for _, r := range g.Rows {
		if r.Result.Incomplete {
			return true
		}
	}
	return false
}
