// Package types - Currency and margin types
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyTHB Currency = "THB"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// CurrencyPair is the key of an exchange rate: 1 From = rate To
type CurrencyPair struct {
	From Currency `json:"from"`
	To   Currency `json:"to"`
}

// String renders the pair as FROM/TO
func (p CurrencyPair) String() string {
	return fmt.Sprintf("%s/%s", p.From, p.To)
}

// ExchangeRate is one entry of the rate table
type ExchangeRate struct {
	From Currency        `json:"from"`
	To   Currency        `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

// ExchangeRates is the rate table valid at the computation's reference date.
// Entries are kept as a slice so the table hashes identically every time.
type ExchangeRates []ExchangeRate

// Lookup returns the direct rate for a pair
func (r ExchangeRates) Lookup(from, to Currency) (decimal.Decimal, bool) {
	for _, e := range r {
		if e.From == from && e.To == to {
			return e.Rate, true
		}
	}
	return decimal.Zero, false
}

// MarginType selects how a margin percentage turns cost into price
type MarginType string

const (
	// MarginMarkupOnCost computes price = cost × (1 + pct/100)
	MarginMarkupOnCost MarginType = "markup-on-cost"

	// MarginOnPrice computes price = cost / (1 - pct/100)
	MarginOnPrice MarginType = "margin-on-price"
)

// Valid reports whether the margin type is known
func (m MarginType) Valid() bool {
	switch m {
	case MarginMarkupOnCost, MarginOnPrice:
		return true
	}
	return false
}

// MarginSpec is the margin policy of a trip
type MarginSpec struct {
	Pct  decimal.Decimal `json:"pct"`
	Type MarginType      `json:"type"`
}

// VATMode selects the VAT base
type VATMode string

const (
	// VATOnSellingPrice computes VAT on the selling price
	VATOnSellingPrice VATMode = "on_selling_price"

	// VATOnMargin computes VAT on the profit only
	VATOnMargin VATMode = "on_margin"
)

// Valid reports whether the VAT mode is known
func (m VATMode) Valid() bool {
	switch m {
	case VATOnSellingPrice, VATOnMargin, "":
		return true
	}
	return false
}
