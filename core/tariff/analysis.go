package tariff

import (
	"github.com/shopspring/decimal"

	"tripcost/core/cost"
	"tripcost/core/types"
	"tripcost/internal/errors"
)

// PriceLine is a selling price set by hand
type PriceLine struct {
	Label string `json:"label"`
	Band  Band   `json:"band"`

	// Amount is per person unless Group is set
	Amount decimal.Decimal `json:"amount"`
	Group  bool            `json:"group,omitempty"`
}

// AnalysisRow is the margin of one selling price at one pax count
type AnalysisRow struct {
	Label     string          `json:"label"`
	Pax       int             `json:"pax"`
	Selling   decimal.Decimal `json:"selling"`
	Cost      decimal.Decimal `json:"cost"`
	Margin    decimal.Decimal `json:"margin"`
	MarginPct decimal.Decimal `json:"margin_pct"`
	VAT       decimal.Decimal `json:"vat"`

	// Loss is set when the selling price is below cost
	Loss bool `json:"loss,omitempty"`
}

// Analysis is the reverse margin analysis of a set of price lines
type Analysis struct {
	Rows []AnalysisRow `json:"rows"`

	// Uncovered lists the grid pax counts no line prices
	Uncovered []int `json:"uncovered,omitempty"`

	TotalSelling decimal.Decimal `json:"total_selling"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalMargin  decimal.Decimal `json:"total_margin"`
}

// Analyze compares selling prices with the grid's costs. VAT is forecast
// with the trip's rate and mode.
func Analyze(grid *types.Grid, lines []PriceLine, vatPct decimal.Decimal, mode types.VATMode) (*Analysis, error) {
	if grid == nil {
		return nil, errors.Input("no grid to analyse")
	}
	a := &Analysis{TotalSelling: decimal.Zero, TotalCost: decimal.Zero, TotalMargin: decimal.Zero}

	for _, row := range grid.Rows {
		line, ok := lineFor(lines, row.Pax)
		if !ok {
			a.Uncovered = append(a.Uncovered, row.Pax)
			continue
		}

		selling := line.Amount
		if !line.Group {
			selling = line.Amount.Mul(decimal.NewFromInt(int64(row.Result.PaxCount)))
		}
		costTotal := row.Result.TotalCost
		margin := selling.Sub(costTotal)
		pct, _ := cost.MarginPct(costTotal, selling, types.MarginOnPrice)

		a.Rows = append(a.Rows, AnalysisRow{
			Label:     line.Label,
			Pax:       row.Pax,
			Selling:   selling,
			Cost:      costTotal,
			Margin:    margin,
			MarginPct: pct,
			VAT:       cost.VAT(selling, margin, vatPct, mode),
			Loss:      margin.IsNegative(),
		})
		a.TotalSelling = a.TotalSelling.Add(selling)
		a.TotalCost = a.TotalCost.Add(costTotal)
		a.TotalMargin = a.TotalMargin.Add(margin)
	}
	return a, nil
}

// lineFor returns the first line whose band contains pax
func lineFor(lines []PriceLine, pax int) (PriceLine, bool) {
	for _, l := range lines {
		if l.Band.Contains(pax) {
			return l, true
		}
	}
	return PriceLine{}, false
}
