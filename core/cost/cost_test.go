package cost

import (
	"testing"

	"github.com/shopspring/decimal"

	"tripcost/core/determinism"
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
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func twoDayTrip() *types.Trip {
	return &types.Trip{
		ID:              "trip-1",
		DefaultCurrency: types.CurrencyEUR,
		StartDate:       types.Date(2026, 5, 4),
		Margin:          types.MarginSpec{Pct: dec("30"), Type: types.MarginMarkupOnCost},
		Days: []types.Day{
			{ID: "d1", Number: 1},
			{ID: "d2", Number: 2},
		},
		Blocks: []types.Block{
			{ID: "b1", Kind: types.BlockActivity, DayID: "d1", Items: []types.LineItem{{
				ID: "visit", UnitCost: dec("50"),
				Quantity: types.QuantityRule{Kind: types.QuantityFixed, Times: 1},
			}}},
			{ID: "b2", Kind: types.BlockActivity, DayID: "d2", Items: []types.LineItem{{
				ID: "transfer", UnitCost: dec("80"),
				Quantity: types.QuantityRule{Kind: types.QuantityRatio, Categories: []types.CategoryCode{"adult"}, Per: 4, Times: 1},
			}}},
		},
	}
}

func mustPlan(t *testing.T, trip *types.Trip) *Plan {
	t.Helper()
	p, err := Compile(trip, testCatalog(t))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return p
}

func TestEndToEndTwoDayTrip(t *testing.T) {
	plan := mustPlan(t, twoDayTrip())

	res, err := plan.Price(Request{Composition: types.MustComposition("adult:5")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"total cost", res.TotalCost, "210"},
		{"total price", res.TotalPrice, "273"},
		{"total profit", res.TotalProfit, "63"},
		{"price per person", res.PricePerPerson, "54.6"},
		{"cost per person", res.CostPerPerson, "42"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, c.got)
		}
	}
	if len(res.Days) != 2 || !res.Days[1].Cost.Equal(dec("160")) {
		t.Errorf("expected day 2 to cost 160, got %+v", res.Days)
	}
	if res.Incomplete || len(res.Warnings) != 0 {
		t.Errorf("expected a clean result, got incomplete=%v warnings=%v", res.Incomplete, res.Warnings)
	}
}

func TestMarginRoundTrip(t *testing.T) {
	cost := dec("1000")

	markup := ApplyMargin(cost, types.MarginSpec{Pct: dec("25"), Type: types.MarginMarkupOnCost})
	onPrice := ApplyMargin(cost, types.MarginSpec{Pct: dec("20"), Type: types.MarginOnPrice})
	if !markup.Equal(dec("1250")) || !onPrice.Equal(dec("1250")) {
		t.Errorf("expected both margin types to give 1250, got %s and %s", markup, onPrice)
	}
	if !markup.Sub(cost).Equal(dec("250")) {
		t.Errorf("expected profit 250, got %s", markup.Sub(cost))
	}

	// same percentage, different formulas
	a := ApplyMargin(cost, types.MarginSpec{Pct: dec("20"), Type: types.MarginMarkupOnCost})
	if a.Equal(onPrice) {
		t.Errorf("expected 20%% markup and 20%% margin to diverge, both gave %s", a)
	}

	pct, ok := MarginPct(cost, onPrice, types.MarginOnPrice)
	if !ok || !pct.Equal(dec("20")) {
		t.Errorf("expected margin on price 20%%, got %s", pct)
	}
	pct, ok = MarginPct(cost, markup, types.MarginMarkupOnCost)
	if !ok || !pct.Equal(dec("25")) {
		t.Errorf("expected markup 25%%, got %s", pct)
	}
}

func TestVATModes(t *testing.T) {
	trip := twoDayTrip()
	trip.VATPct = dec("20")

	res, _ := mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:5")})
	if !res.VAT.Equal(dec("54.6")) || !res.PriceWithVAT.Equal(dec("327.6")) {
		t.Errorf("expected VAT on price 54.60 and 327.60 total, got %s and %s", res.VAT, res.PriceWithVAT)
	}
	if !res.TotalProfit.Equal(dec("63")) {
		t.Errorf("expected VAT kept out of profit, got %s", res.TotalProfit)
	}

	trip.VATMode = types.VATOnMargin
	res, _ = mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:5")})
	if !res.VAT.Equal(dec("12.6")) {
		t.Errorf("expected VAT on margin 12.60, got %s", res.VAT)
	}

	if got := VAT(dec("90"), dec("-10"), dec("20"), types.VATOnMargin); !got.IsZero() {
		t.Errorf("expected VAT on a negative margin to be 0, got %s", got)
	}
}

func TestDeterministicResults(t *testing.T) {
	plan := mustPlan(t, twoDayTrip())
	req := Request{Composition: types.MustComposition("adult:5,child:2")}

	first, err := plan.Price(req)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := determinism.Fingerprint("result", first)
	for i := 0; i < 5; i++ {
		again, _ := plan.Price(req)
		got, _ := determinism.Fingerprint("result", again)
		if got != want {
			t.Fatalf("run %d: expected identical fingerprint %s, got %s", i, want, got)
		}
	}
}

func TestMalformedTrees(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Trip)
	}{
		{"missing parent", func(tr *types.Trip) { tr.Blocks[0].ParentID = "ghost" }},
		{"missing day", func(tr *types.Trip) { tr.Blocks[0].DayID = "d9" }},
		{"parent cycle", func(tr *types.Trip) {
			tr.Blocks[0].ParentID = "b2"
			tr.Blocks[1].ParentID = "b1"
		}},
		{"self parent", func(tr *types.Trip) { tr.Blocks[1].ParentID = "b2" }},
		{"duplicate block", func(tr *types.Trip) { tr.Blocks[1].ID = "b1" }},
		{"unknown kind", func(tr *types.Trip) { tr.Blocks[0].Kind = "lunch" }},
		{"margin on price at 100", func(tr *types.Trip) {
			tr.Margin = types.MarginSpec{Pct: dec("100"), Type: types.MarginOnPrice}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip := twoDayTrip()
			tt.mutate(trip)
			_, err := Compile(trip, testCatalog(t))
			if !errors.IsType(err, errors.TypeMalformedInput) {
				t.Errorf("expected malformed input error, got %v", err)
			}
		})
	}
}

func TestChildBlocksInheritDayAndCondition(t *testing.T) {
	trip := twoDayTrip()
	trip.Conditions = []types.Condition{{
		ID: "transport", Name: "Transport",
		Options: []types.ConditionOption{{ID: "bus"}, {ID: "train"}},
	}}
	trip.TripConditions = []types.TripCondition{{ConditionID: "transport", SelectedOptionID: "bus", IsActive: true}}
	trip.Blocks[1].ConditionID = "transport"
	trip.Blocks = append(trip.Blocks, types.Block{
		ID: "b2-child", Kind: types.BlockActivity, ParentID: "b2", SortOrder: 1,
		Items: []types.LineItem{
			{ID: "bus", UnitCost: dec("30"), ConditionOptionID: "bus", Quantity: types.QuantityRule{Kind: types.QuantityFixed, Times: 1}},
			{ID: "train", UnitCost: dec("45"), ConditionOptionID: "train", Quantity: types.QuantityRule{Kind: types.QuantityFixed, Times: 1}},
		},
	})
	plan := mustPlan(t, trip)
	comp := types.MustComposition("adult:5")

	res, _ := plan.Price(Request{Composition: comp, Selections: types.SelectionSet{"transport": {OptionID: "bus", Active: true}}})
	if !res.TotalCost.Equal(dec("240")) {
		t.Errorf("expected bus to add 30 to 210, got %s", res.TotalCost)
	}
	if len(res.Days[1].Blocks) != 2 || len(res.Days[1].Blocks[1].Excluded) != 1 {
		t.Errorf("expected child block on day 2 with the train excluded, got %+v", res.Days[1].Blocks)
	}

	res, _ = plan.Price(Request{Composition: comp, Selections: types.SelectionSet{"transport": {OptionID: "train", Active: true}}})
	if !res.TotalCost.Equal(dec("255")) {
		t.Errorf("expected train to add 45 to 210, got %s", res.TotalCost)
	}
}

func TestTransversalBlocksCountOnce(t *testing.T) {
	trip := twoDayTrip()
	trip.Blocks = append(trip.Blocks, types.Block{
		ID: "insurance", Kind: types.BlockActivity, Transversal: true,
		Items: []types.LineItem{{ID: "ins", UnitCost: dec("12.5"), Quantity: types.QuantityRule{Kind: types.QuantityRatio, Per: 1, Times: 1}}},
	})
	res, err := mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:5,leader:1")})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Transversal) != 1 || !res.Transversal[0].Cost.Equal(dec("62.5")) {
		t.Errorf("expected one transversal block at 62.50, got %+v", res.Transversal)
	}
	if !res.TotalCost.Equal(dec("272.5")) {
		t.Errorf("expected 272.50, got %s", res.TotalCost)
	}
	if res.PaxCount != 5 || res.HeadCount != 6 {
		t.Errorf("expected 5 paying of 6 travelers, got %d of %d", res.PaxCount, res.HeadCount)
	}
}

func TestPerCategoryPricing(t *testing.T) {
	trip := twoDayTrip()
	trip.Blocks[0].Items = []types.LineItem{{
		ID: "museum", UnitCost: dec("20"),
		Quantity:       types.QuantityRule{Kind: types.QuantityRatio, Per: 1, Times: 1},
		CategoryPrices: types.CategoryAmounts{{Category: "child", Amount: dec("8")}},
	}}
	res, _ := mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:2,child:3")})

	item := res.Days[0].Blocks[0].Items[0]
	if !item.Subtotal.Equal(dec("64")) {
		t.Errorf("expected 2x20 + 3x8 = 64, got %s", item.Subtotal)
	}
	if item.Source != types.SourceCategory {
		t.Errorf("expected category source, got %s", item.Source)
	}
}

func TestCurrencyConversionAndMissingRate(t *testing.T) {
	trip := twoDayTrip()
	trip.Blocks[0].Items[0].Currency = types.CurrencyTHB
	trip.Blocks[0].Items[0].UnitCost = dec("1000")

	rates := types.ExchangeRates{{From: types.CurrencyTHB, To: types.CurrencyEUR, Rate: dec("0.02583")}}
	res, _ := mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:4"), Rates: rates})
	item := res.Days[0].Blocks[0].Items[0]
	if !item.UnitCost.Equal(dec("25.83")) || res.Incomplete {
		t.Errorf("expected 1000 THB to convert to 25.83 EUR, got %s (incomplete=%v)", item.UnitCost, res.Incomplete)
	}

	res, _ = mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:4")})
	if !res.Incomplete {
		t.Error("expected missing rate to mark the result incomplete")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Type != errors.TypeMissingRate {
		t.Errorf("expected one missing rate warning, got %v", res.Warnings)
	}
}

func TestConfigurationErrorFallsBackToBaseCost(t *testing.T) {
	both := dec("2")
	trip := twoDayTrip()
	trip.Blocks[0].Items[0].Seasons = []types.SeasonRule{{
		ID: "broken", Kind: types.SeasonFixed,
		Start: types.Date(2026, 1, 1), End: types.Date(2026, 12, 31),
		Multiplier: &both, Override: &both,
	}}
	trip.Blocks[0].Items[0].Tiers = []types.PriceTier{{PaxMin: 1, PaxMax: 10, UnitCost: dec("5")}}

	res, err := mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:5")})
	if err != nil {
		t.Fatal(err)
	}
	if !res.TotalCost.Equal(dec("210")) {
		t.Errorf("expected the broken item to use its base cost, got total %s", res.TotalCost)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Type != errors.TypeConfiguration || res.Warnings[0].ItemID != "visit" {
		t.Errorf("expected one configuration warning on the item, got %v", res.Warnings)
	}
}

func TestSeasonsFollowServiceDate(t *testing.T) {
	peak := dec("1.5")
	trip := twoDayTrip()
	trip.Blocks[1].Items[0].Seasons = []types.SeasonRule{{
		ID: "may", Kind: types.SeasonFixed,
		Start: types.Date(2026, 5, 5), End: types.Date(2026, 5, 31),
		Multiplier: &peak,
	}}
	res, _ := mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:4")})
	// day 2 is 2026-05-05
	if !res.Days[1].Cost.Equal(dec("120")) {
		t.Errorf("expected seasonal cost 120 on day 2, got %s", res.Days[1].Cost)
	}

	trip.StartDate = types.Date(2026, 5, 10).AddDate(0, 0, -30)
	res, _ = mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:4")})
	if !res.Days[1].Cost.Equal(dec("80")) {
		t.Errorf("expected base cost 80 outside the season, got %s", res.Days[1].Cost)
	}
}

func accommodationTrip(rooms ...types.RoomCategory) *types.Trip {
	trip := twoDayTrip()
	trip.Days[0].NumberEnd = 1
	trip.Days = append(trip.Days, types.Day{ID: "d3", Number: 3, NumberEnd: 4})
	trip.Accommodations = []types.Accommodation{{ID: "h1", Name: "Riverside", Rooms: rooms}}
	trip.Blocks = append(trip.Blocks, types.Block{
		ID: "stay", Kind: types.BlockAccommodation, DayID: "d3",
		Items: []types.LineItem{{ID: "hotel", AccommodationID: "h1"}},
	})
	return trip
}

func roomType(id string, minOcc, maxOcc int, cost string) types.RoomCategory {
	return types.RoomCategory{
		ID: id, MinOccupancy: minOcc, MaxOccupancy: maxOcc,
		BedTypes: []types.BedType{{Code: "std", BaseOccupancy: maxOcc, NightlyCost: dec(cost), Currency: types.CurrencyEUR}},
	}
}

func TestAccommodationUsesRoomAllocator(t *testing.T) {
	trip := accommodationTrip(roomType("double", 1, 2, "90"), roomType("single", 1, 1, "60"))
	res, err := mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:3")})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rooms) != 1 || res.Rooms[0].Nights != 2 || !res.Rooms[0].Covered {
		t.Fatalf("expected one covered two-night assignment, got %+v", res.Rooms)
	}
	// double + single for two nights
	if !res.Rooms[0].Cost.Equal(dec("300")) {
		t.Errorf("expected 300 for the stay, got %s", res.Rooms[0].Cost)
	}
	if !res.Days[2].Cost.Equal(dec("300")) {
		t.Errorf("expected day 3 to carry the stay, got %s", res.Days[2].Cost)
	}
	item := res.Days[2].Blocks[0].Items[0]
	if !item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))).Equal(item.Subtotal) {
		t.Errorf("expected unit cost x quantity to equal the subtotal, got %s x %d != %s",
			item.UnitCost, item.Quantity, item.Subtotal)
	}
}

func TestCoverageFailureMarksIncomplete(t *testing.T) {
	trip := accommodationTrip(roomType("double", 2, 2, "90"))
	res, err := mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:3")})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Incomplete {
		t.Error("expected incomplete result")
	}
	block := res.Days[2].Blocks[0]
	if block.Known {
		t.Error("expected accommodation block cost to be unknown")
	}
	found := false
	for _, w := range res.Warnings {
		if w.Type == errors.TypeCoverage && w.BlockID == "stay" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a coverage warning on the stay, got %v", res.Warnings)
	}
	if !res.TotalCost.Equal(dec("130")) {
		t.Errorf("expected only the other days to be priced (130), got %s", res.TotalCost)
	}
}

func TestRoomDemandOverridesAllocation(t *testing.T) {
	trip := accommodationTrip(roomType("double", 1, 2, "90"), roomType("single", 1, 1, "60"))
	demand := &types.RoomDemand{Rooms: []types.RoomDemandEntry{{Room: "single", BedType: "std", Quantity: 3, Adults: 1}}}

	res, _ := mustPlan(t, trip).Price(Request{Composition: types.MustComposition("adult:3"), RoomDemand: demand})
	if !res.Rooms[0].Override || !res.Rooms[0].Cost.Equal(dec("360")) {
		t.Errorf("expected three singles for two nights at 360, got %+v", res.Rooms[0])
	}
}

func TestZeroPayingPassengers(t *testing.T) {
	res, err := mustPlan(t, twoDayTrip()).Price(Request{Composition: types.MustComposition("leader:1")})
	if !errors.IsType(err, errors.TypeDivisionUndefined) {
		t.Fatalf("expected division undefined error, got %v", err)
	}
	if res == nil || !res.TotalCost.Equal(dec("50")) {
		t.Errorf("expected totals to still be reported, got %+v", res)
	}
}

func TestUnknownCategoryIsMalformed(t *testing.T) {
	_, err := mustPlan(t, twoDayTrip()).Price(Request{Composition: types.MustComposition("martian:2")})
	if !errors.IsType(err, errors.TypeMalformedInput) {
		t.Errorf("expected malformed input, got %v", err)
	}
}
