package quantity

import (
	"testing"

	"tripcost/core/types"
	"tripcost/internal/errors"
)

func testCatalog(t *testing.T) *types.Catalog {
	t.Helper()
	c, err := types.NewCatalog(
		types.PassengerCategory{Code: "adult", CountsForPricing: true},
		types.PassengerCategory{Code: "child", CountsForPricing: true},
		types.PassengerCategory{Code: "leader", Group: types.GroupLeader},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func TestRatioRounding(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	rule := types.QuantityRule{Kind: types.QuantityRatio, Categories: []types.CategoryCode{"adult"}, Per: 8, Times: 1}

	tests := []struct {
		adults int
		want   int
	}{
		{0, 0},
		{1, 1},
		{8, 1},
		{9, 2},
		{10, 2},
		{17, 3},
	}
	for _, tt := range tests {
		got := calc.Compute(rule, types.Composition{}.Add("adult", tt.adults), 1)
		if got.Units != tt.want {
			t.Errorf("%d adults: expected %d units, got %d", tt.adults, tt.want, got.Units)
		}
		if len(got.Problems) != 0 {
			t.Errorf("%d adults: unexpected problems %v", tt.adults, got.Problems)
		}
	}
}

func TestRatioTimesAndCategories(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	comp := types.MustComposition("adult:5,child:3,leader:1")

	tests := []struct {
		name string
		rule types.QuantityRule
		want int
	}{
		{"per person", types.QuantityRule{Kind: types.QuantityRatio, Per: 1, Times: 1}, 8},
		{"wildcard", types.QuantityRule{Kind: types.QuantityRatio, Categories: []types.CategoryCode{"all"}, Per: 4, Times: 1}, 2},
		{"two categories twice", types.QuantityRule{Kind: types.QuantityRatio, Categories: []types.CategoryCode{"adult", "child"}, Per: 2, Times: 2}, 8},
		{"leader never counted", types.QuantityRule{Kind: types.QuantityRatio, Categories: []types.CategoryCode{"leader"}, Per: 1, Times: 1}, 0},
		{"fixed", types.QuantityRule{Kind: types.QuantityFixed, Times: 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Compute(tt.rule, comp, 1)
			if got.Units != tt.want {
				t.Errorf("expected %d units, got %d", tt.want, got.Units)
			}
		})
	}
}

func TestPerOccurrence(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	rule := types.QuantityRule{Kind: types.QuantityPerOccurrence, Times: 2}

	if got := calc.Compute(rule, types.MustComposition("adult:2"), 3).Units; got != 6 {
		t.Errorf("expected 6 units over 3 days, got %d", got)
	}
	if got := calc.Compute(rule, types.MustComposition("adult:2"), 0).Units; got != 2 {
		t.Errorf("expected a single occurrence by default, got %d", got)
	}
}

func TestConfigurationProblems(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	comp := types.MustComposition("adult:4")

	got := calc.Compute(types.QuantityRule{Kind: types.QuantityRatio, Categories: []types.CategoryCode{"adult", "alien"}, Per: 2, Times: 1}, comp, 1)
	if got.Units != 2 {
		t.Errorf("expected unknown category to count zero, got %d units", got.Units)
	}
	if len(got.Problems) != 1 || !errors.IsType(got.Problems[0], errors.TypeConfiguration) {
		t.Errorf("expected one configuration problem, got %v", got.Problems)
	}

	got = calc.Compute(types.QuantityRule{Kind: types.QuantityRatio, Categories: []types.CategoryCode{"alien"}, Per: 2, Times: 1}, comp, 1)
	if got.Units != 2 || got.Count != 4 {
		t.Errorf("expected all-unknown categories to count every paying person, got %+v", got)
	}
	if len(got.Problems) != 1 {
		t.Errorf("expected the unknown category reported, got %v", got.Problems)
	}

	got = calc.Compute(types.QuantityRule{Kind: types.QuantityRatio, Per: 0, Times: 1}, comp, 1)
	if got.Units != 4 || got.Per != 1 || len(got.Problems) != 1 {
		t.Errorf("expected zero divisor treated as 1 with a problem, got %+v", got)
	}

	got = calc.Compute(types.QuantityRule{Kind: types.QuantityFixed, Times: -2}, comp, 1)
	if got.Units != 0 || len(got.Problems) != 1 {
		t.Errorf("expected negative multiplier clamped to 0 with a problem, got %+v", got)
	}
}
