package tiers

import (
	"testing"

	"github.com/shopspring/decimal"

	"tripcost/core/types"
	"tripcost/internal/errors"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(n int) *int { return &n }

func testCatalog(t *testing.T) *types.Catalog {
	t.Helper()
	c, err := types.NewCatalog(
		types.PassengerCategory{Code: "adult", CountsForPricing: true},
		types.PassengerCategory{Code: "child", MaxAge: intPtr(11), CountsForPricing: true},
		types.PassengerCategory{Code: "leader", Group: types.GroupLeader},
		types.PassengerCategory{Code: "guide", Group: types.GroupStaff, CountsForPricing: true},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func TestTierBoundaries(t *testing.T) {
	sel := NewSelector(testCatalog(t))
	item := &types.LineItem{
		ID:       "bus",
		UnitCost: dec("120"),
		Tiers: []types.PriceTier{
			{PaxMin: 5, PaxMax: 8, UnitCost: dec("90")},
			{PaxMin: 2, PaxMax: 4, UnitCost: dec("100")},
		},
	}

	tests := []struct {
		pax  int
		want string
		tier bool
	}{
		{1, "120", false},
		{2, "100", true},
		{4, "100", true},
		{5, "90", true},
		{8, "90", true},
		{9, "120", false},
	}
	for _, tt := range tests {
		comp := types.Composition{}.Add("adult", tt.pax)
		got, err := sel.Select(item, comp, item.UnitCost)
		if err != nil {
			t.Fatalf("pax %d: unexpected error: %v", tt.pax, err)
		}
		if !got.BaseCost.Equal(dec(tt.want)) {
			t.Errorf("pax %d: expected unit cost %s, got %s", tt.pax, tt.want, got.BaseCost)
		}
		if (got.Tier != nil) != tt.tier {
			t.Errorf("pax %d: expected tier selected=%v, got %v", tt.pax, tt.tier, got.Tier != nil)
		}
	}
}

func TestNonPricingCategoriesDoNotDriveSelection(t *testing.T) {
	sel := NewSelector(testCatalog(t))
	item := &types.LineItem{
		ID:       "museum",
		UnitCost: dec("20"),
		Tiers: []types.PriceTier{
			{PaxMin: 1, PaxMax: 4, UnitCost: dec("18")},
			{PaxMin: 5, PaxMax: 10, UnitCost: dec("15")},
		},
	}

	comp := types.MustComposition("adult:4,leader:1")
	got, _ := sel.Select(item, comp, item.UnitCost)
	if got.SelectionCount != 4 {
		t.Errorf("expected selection count 4, got %d", got.SelectionCount)
	}
	if !got.BaseCost.Equal(dec("18")) {
		t.Errorf("expected bracket 1-4 at 18, got %s", got.BaseCost)
	}

	item.TierCategories = []types.CategoryCode{"adult"}
	comp = types.MustComposition("adult:4,guide:2")
	got, _ = sel.Select(item, comp, item.UnitCost)
	if got.SelectionCount != 4 || !got.BaseCost.Equal(dec("18")) {
		t.Errorf("expected tier categories to restrict the count to 4, got %d at %s", got.SelectionCount, got.BaseCost)
	}
	if _, ok := got.Categories["guide"]; !ok {
		t.Error("expected guide to be priced even though it does not drive selection")
	}
}

func TestCategoryPricePrecedence(t *testing.T) {
	sel := NewSelector(testCatalog(t))
	item := &types.LineItem{
		ID:       "show",
		UnitCost: dec("50"),
		Tiers: []types.PriceTier{{
			PaxMin: 1, PaxMax: 20, UnitCost: dec("40"),
			Adjustments:    types.CategoryAmounts{{Category: "child", Amount: dec("-33.333")}, {Category: "guide", Amount: dec("-100")}},
			CategoryPrices: types.CategoryAmounts{{Category: "child", Amount: dec("25")}},
		}},
		CategoryPrices: types.CategoryAmounts{{Category: "leader", Amount: dec("5")}},
	}

	comp := types.MustComposition("adult:2,child:1,guide:1,leader:1")
	got, err := sel.Select(item, comp, item.UnitCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[types.CategoryCode]string{
		"adult":  "40",
		"child":  "25",
		"guide":  "0",
		"leader": "5",
	}
	for code, w := range want {
		if !got.Categories[code].Equal(dec(w)) {
			t.Errorf("%s: expected %s, got %s", code, w, got.Categories[code])
		}
	}
	if got.Uniform() {
		t.Error("expected non-uniform category costs")
	}
}

func TestPercentageAdjustmentIsRounded(t *testing.T) {
	sel := NewSelector(testCatalog(t))
	item := &types.LineItem{
		ID:       "boat",
		UnitCost: dec("33"),
		Tiers: []types.PriceTier{{
			PaxMin: 1, PaxMax: 10, UnitCost: dec("33.33"),
			Adjustments: types.CategoryAmounts{{Category: "child", Amount: dec("-50")}},
		}},
	}
	got, _ := sel.Select(item, types.MustComposition("adult:1,child:1"), item.UnitCost)
	if !got.Categories["child"].Equal(dec("16.67")) {
		t.Errorf("expected child cost 16.67, got %s", got.Categories["child"])
	}
}

func TestOverlappingTiersLowestMinWins(t *testing.T) {
	sel := NewSelector(testCatalog(t))
	item := &types.LineItem{
		ID:       "van",
		UnitCost: dec("70"),
		Tiers: []types.PriceTier{
			{PaxMin: 3, PaxMax: 10, UnitCost: dec("60")},
			{PaxMin: 1, PaxMax: 5, UnitCost: dec("65")},
		},
	}
	got, err := sel.Select(item, types.MustComposition("adult:4"), item.UnitCost)
	if !errors.IsType(err, errors.TypeConfiguration) {
		t.Fatalf("expected configuration error for overlap, got %v", err)
	}
	if !got.BaseCost.Equal(dec("65")) {
		t.Errorf("expected lowest pax_min tier at 65, got %s", got.BaseCost)
	}
}

func TestItemCategoryPricesApplyWithoutTiers(t *testing.T) {
	sel := NewSelector(testCatalog(t))
	item := &types.LineItem{
		ID:             "entry",
		UnitCost:       dec("10"),
		CategoryPrices: types.CategoryAmounts{{Category: "child", Amount: dec("4")}},
	}
	got, err := sel.Select(item, types.MustComposition("adult:2,child:2"), dec("12"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Categories["adult"].Equal(dec("12")) || !got.Categories["child"].Equal(dec("4")) {
		t.Errorf("expected adult 12 and child 4, got %s and %s", got.Categories["adult"], got.Categories["child"])
	}
	if got.Label() != "no tier" {
		t.Errorf("expected no tier label, got %q", got.Label())
	}
}
