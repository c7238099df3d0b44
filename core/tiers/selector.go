// Package tiers selects the volume bracket of a line item and derives the
// per-category unit costs that apply within it.
package tiers

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"tripcost/core/determinism"
	"tripcost/core/types"
	"tripcost/internal/errors"
)

// Selection is the outcome of tier selection for one composition
type Selection struct {
	// Tier is the selected bracket, nil when none matched
	Tier *types.PriceTier

	// BaseCost is the tier's unit cost, or the fallback base when no tier matched
	BaseCost decimal.Decimal

	// Categories holds every category of the composition with its unit cost
	Categories map[types.CategoryCode]decimal.Decimal

	// Sources records where each category cost came from
	Sources map[types.CategoryCode]types.CostSource

	// SelectionCount is the passenger count used to pick the bracket
	SelectionCount int
}

// Label describes the selected bracket
func (s Selection) Label() string {
	if s.Tier == nil {
		return "no tier"
	}
	return fmt.Sprintf("%d-%d pax", s.Tier.PaxMin, s.Tier.PaxMax)
}

// Uniform reports whether every category shares the base cost
func (s Selection) Uniform() bool {
	for _, c := range s.Categories {
		if !c.Equal(s.BaseCost) {
			return false
		}
	}
	return true
}

// Selector picks price tiers against a passenger catalog
type Selector struct {
	catalog *types.Catalog
}

// NewSelector creates a tier selector
func NewSelector(catalog *types.Catalog) *Selector {
	return &Selector{catalog: catalog}
}

// SelectionCount is the passenger count that drives tier selection: the
// pricing-relevant total, narrowed to TierCategories when the item sets them.
func (s *Selector) SelectionCount(item *types.LineItem, comp types.Composition) int {
	if types.IsWildcard(item.TierCategories) {
		return s.catalog.PricingCount(comp)
	}
	total := 0
	for _, code := range item.TierCategories {
		if s.catalog.CountsForPricing(code) {
			total += comp.Count(code)
		}
	}
	return total
}

// Select resolves the unit cost of every category of comp for item. fallback
// is the seasonally resolved base used when no tier contains the count. A
// configuration error is returned, together with a usable selection, when
// the item's tiers overlap.
func (s *Selector) Select(item *types.LineItem, comp types.Composition, fallback decimal.Decimal) (Selection, error) {
	n := s.SelectionCount(item, comp)
	tier, err := Find(item.Tiers, n)

	sel := Selection{
		BaseCost:       fallback,
		Categories:     make(map[types.CategoryCode]decimal.Decimal),
		Sources:        make(map[types.CategoryCode]types.CostSource),
		SelectionCount: n,
	}
	if tier != nil {
		sel.Tier = tier
		sel.BaseCost = tier.UnitCost
	}

	for _, e := range comp.Entries() {
		cost, src := s.categoryCost(item, tier, sel.BaseCost, e.Category)
		sel.Categories[e.Category] = cost
		sel.Sources[e.Category] = src
	}

	if err != nil {
		return sel, errors.Wrapf(errors.TypeConfiguration, err, "item %s", item.ID)
	}
	return sel, nil
}

// categoryCost applies the precedence: item absolute prices, then tier
// absolute prices, then tier percentage adjustments, then the base cost.
func (s *Selector) categoryCost(item *types.LineItem, tier *types.PriceTier, base decimal.Decimal, code types.CategoryCode) (decimal.Decimal, types.CostSource) {
	if price, ok := item.CategoryPrices.Lookup(code); ok {
		return price, types.SourceCategory
	}
	if tier == nil {
		return base, types.SourceBase
	}
	if price, ok := tier.CategoryPrices.Lookup(code); ok {
		return price, types.SourceCategory
	}
	if pct, ok := tier.Adjustments.Lookup(code); ok {
		adjusted := base.Add(determinism.Percent(base, pct))
		return determinism.RoundMoney(adjusted), types.SourceTier
	}
	return base, types.SourceTier
}

// Find returns the tier containing n. Overlapping tiers are resolved to the
// lowest PaxMin and reported as a configuration error.
func Find(list []types.PriceTier, n int) (*types.PriceTier, error) {
	if len(list) == 0 {
		return nil, nil
	}

	sorted := make([]types.PriceTier, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PaxMin != sorted[j].PaxMin {
			return sorted[i].PaxMin < sorted[j].PaxMin
		}
		return sorted[i].PaxMax < sorted[j].PaxMax
	})

	err := Validate(sorted)

	for i := range sorted {
		if sorted[i].Contains(n) {
			t := sorted[i]
			return &t, err
		}
	}
	return nil, err
}

// Validate reports malformed or overlapping brackets. list must be sorted by PaxMin.
func Validate(list []types.PriceTier) error {
	var prev *types.PriceTier
	for i := range list {
		t := list[i]
		if t.PaxMax < t.PaxMin {
			return errors.Configuration("price tier %d-%d has an empty range", t.PaxMin, t.PaxMax)
		}
		if prev != nil && t.PaxMin <= prev.PaxMax {
			return errors.Configuration("price tiers %d-%d and %d-%d overlap",
				prev.PaxMin, prev.PaxMax, t.PaxMin, t.PaxMax)
		}
		if prev == nil || t.PaxMax > prev.PaxMax {
			prev = &list[i]
		}
	}
	return nil
}
