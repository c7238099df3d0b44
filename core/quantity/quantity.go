// Package quantity turns a passenger composition into billable units.
package quantity

import (
	"tripcost/core/types"
	"tripcost/internal/errors"
)

// Result is the computed quantity of one line item
type Result struct {
	Units int

	// Count is the number of people matched by a ratio rule
	Count int

	// Per is the effective ratio divisor
	Per int

	// Times is the effective multiplier
	Times int

	// Problems lists configuration issues found while computing
	Problems []error
}

// Calculator computes quantities against a passenger catalog
type Calculator struct {
	catalog *types.Catalog
}

// NewCalculator creates a quantity calculator
func NewCalculator(catalog *types.Catalog) *Calculator {
	return &Calculator{catalog: catalog}
}

// Compute returns the number of billable units of rule for comp. occurrences
// is the number of days spanned by the item's block.
func (c *Calculator) Compute(rule types.QuantityRule, comp types.Composition, occurrences int) Result {
	res := Result{Per: 1, Times: rule.Times}
	if rule.Times < 0 {
		res.Problems = append(res.Problems, errors.Configuration("negative quantity multiplier %d", rule.Times))
		res.Times = 0
	}

	switch rule.Kind {
	case types.QuantityFixed:
		res.Units = res.Times

	case types.QuantityPerOccurrence:
		if occurrences < 1 {
			occurrences = 1
		}
		res.Units = res.Times * occurrences

	case types.QuantityRatio, "":
		res.Per = rule.Per
		if res.Per <= 0 {
			res.Problems = append(res.Problems, errors.Configuration("ratio divisor %d is not positive", rule.Per))
			res.Per = 1
		}
		count, problems := c.Count(rule.Categories, comp)
		res.Problems = append(res.Problems, problems...)
		res.Count = count
		res.Units = CeilDiv(count, res.Per) * res.Times

	default:
		res.Problems = append(res.Problems, errors.Configuration("unknown quantity kind %q", rule.Kind))
	}
	return res
}

// Count sums the pricing-relevant people of the named categories. The
// wildcard or an empty list selects every pricing-relevant category. Codes
// missing from the catalog count zero and are reported; when none of the
// codes is known the rule counts every pricing-relevant person.
func (c *Calculator) Count(codes []types.CategoryCode, comp types.Composition) (int, []error) {
	if types.IsWildcard(codes) {
		return c.catalog.PricingCount(comp), nil
	}

	var problems []error
	total, known := 0, 0
	for _, code := range codes {
		if !c.catalog.Has(code) {
			problems = append(problems, errors.Configuration("ratio names unknown category %q", code))
			continue
		}
		known++
		if c.catalog.CountsForPricing(code) {
			total += comp.Count(code)
		}
	}
	if known == 0 {
		return c.catalog.PricingCount(comp), problems
	}
	return total, problems
}

// Matches returns the categories of comp a ratio rule counts
func (c *Calculator) Matches(rule types.QuantityRule, comp types.Composition) []types.CategoryCode {
	var out []types.CategoryCode
	wild := types.IsWildcard(rule.Categories)
	for _, e := range comp.Entries() {
		if !c.catalog.CountsForPricing(e.Category) {
			continue
		}
		if wild || contains(rule.Categories, e.Category) {
			out = append(out, e.Category)
		}
	}
	return out
}

func contains(codes []types.CategoryCode, code types.CategoryCode) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// CeilDiv divides rounding partial units up
func CeilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
