package pricing

import (
	"github.com/shopspring/decimal"

	"tripcost/core/determinism"
	"tripcost/core/types"
	"tripcost/internal/errors"
)

// Converter converts amounts into a trip's selling currency
type Converter struct {
	rates  types.ExchangeRates
	target types.Currency
}

// NewConverter creates a converter toward target
func NewConverter(rates types.ExchangeRates, target types.Currency) *Converter {
	return &Converter{rates: rates, target: target}
}

// Target returns the selling currency
func (c *Converter) Target() types.Currency {
	return c.target
}

// Rate returns the multiplier from one currency to the target. The direct
// pair is preferred; the inverse pair is used when only it is defined.
func (c *Converter) Rate(from types.Currency) (decimal.Decimal, error) {
	if from == "" || from == c.target {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := c.rates.Lookup(from, c.target); ok && rate.IsPositive() {
		return rate, nil
	}
	if inverse, ok := c.rates.Lookup(c.target, from); ok && inverse.IsPositive() {
		return decimal.NewFromInt(1).Div(inverse), nil
	}
	return decimal.Zero, errors.Newf(errors.TypeMissingRate, "exchange rate required: %s -> %s", from, c.target).
		WithContext("from", string(from)).
		WithContext("to", string(c.target))
}

// Convert converts amount and rounds to cents. When the rate is missing the
// amount is returned unconverted with a rate of 1 and the error.
func (c *Converter) Convert(amount decimal.Decimal, from types.Currency) (decimal.Decimal, decimal.Decimal, error) {
	rate, err := c.Rate(from)
	if err != nil {
		return amount, decimal.NewFromInt(1), err
	}
	if rate.Equal(decimal.NewFromInt(1)) {
		return amount, rate, nil
	}
	return determinism.RoundMoney(amount.Mul(rate)), rate, nil
}
