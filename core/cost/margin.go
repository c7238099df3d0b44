package cost

import (
	"github.com/shopspring/decimal"

	"tripcost/core/determinism"
	"tripcost/core/types"
	"tripcost/internal/errors"
)

var hundred = decimal.NewFromInt(100)

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return determinism.RoundMoney(d)
}

// ApplyMargin turns a cost into a selling price, rounded to cents.
// An empty margin type is treated as markup on cost.
func ApplyMargin(cost decimal.Decimal, m types.MarginSpec) decimal.Decimal {
	switch m.Type {
	case types.MarginOnPrice:
		keep := hundred.Sub(m.Pct)
		if !keep.IsPositive() {
			return cost
		}
		return roundMoney(cost.Mul(hundred).Div(keep))
	default:
		return roundMoney(cost.Add(determinism.Percent(cost, m.Pct)))
	}
}

// MarginPct is the margin percentage a price represents over a cost under
// the given margin type. It is the inverse of ApplyMargin.
func MarginPct(cost, price decimal.Decimal, t types.MarginType) (decimal.Decimal, bool) {
	profit := price.Sub(cost)
	switch t {
	case types.MarginOnPrice:
		if price.IsZero() {
			return decimal.Zero, false
		}
		return roundMoney(profit.Mul(hundred).Div(price)), true
	default:
		if cost.IsZero() {
			return decimal.Zero, false
		}
		return roundMoney(profit.Mul(hundred).Div(cost)), true
	}
}

// VAT computes the tax of a price. On margin, the base is the profit and
// never goes below zero.
func VAT(price, profit, pct decimal.Decimal, mode types.VATMode) decimal.Decimal {
	if pct.IsZero() {
		return decimal.Zero
	}
	base := price
	if mode == types.VATOnMargin {
		base = decimal.Max(profit, decimal.Zero)
	}
	return roundMoney(determinism.Percent(base, pct))
}

// PerPerson divides cost and price by the pricing-relevant passenger count
func PerPerson(cost, price decimal.Decimal, pax int) (decimal.Decimal, decimal.Decimal, error) {
	if pax <= 0 {
		return decimal.Zero, decimal.Zero, errors.New(errors.TypeDivisionUndefined,
			"no pricing-relevant passengers to divide by")
	}
	n := decimal.NewFromInt(int64(pax))
	return roundMoney(cost.Div(n)), roundMoney(price.Div(n)), nil
}
