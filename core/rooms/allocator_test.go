package rooms

import (
	"testing"
	"time"

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
		types.PassengerCategory{Code: "guide", Group: types.GroupStaff, RequiresLodging: true},
		types.PassengerCategory{Code: "driver", Group: types.GroupStaff},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func room(id string, minOcc, maxOcc, maxChildren int, cost string) types.RoomCategory {
	return types.RoomCategory{
		ID: id, Code: id,
		MinOccupancy: minOcc, MaxOccupancy: maxOcc, MaxChildren: maxChildren,
		BedTypes: []types.BedType{{Code: "std", BaseOccupancy: maxOcc, NightlyCost: dec(cost)}},
	}
}

func pricer() Pricer {
	return NewStayPricer(time.Time{}, 1, nil)
}

func TestDoublesOnlyCannotHouseThreeAdults(t *testing.T) {
	acc := &types.Accommodation{ID: "h1", Rooms: []types.RoomCategory{room("double", 2, 2, 0, "100")}}
	party := PartyOf(testCatalog(t), types.MustComposition("adult:3"))

	got, err := NewAllocator(0).Allocate(acc, party, pricer())
	if !errors.IsType(err, errors.TypeCoverage) {
		t.Fatalf("expected coverage error, got %v", err)
	}
	if got.Covered {
		t.Error("expected allocation to be marked uncovered")
	}
	if len(got.Rooms) != 1 || got.Rooms[0].Adults != 2 {
		t.Errorf("expected one full double as partial placement, got %+v", got.Rooms)
	}
	if got.Uncovered.Count("adult") != 1 || got.Uncovered.Total() != 1 {
		t.Errorf("expected one uncovered adult, got %s", got.Uncovered)
	}
}

func TestDoublePlusSingle(t *testing.T) {
	acc := &types.Accommodation{ID: "h1", Rooms: []types.RoomCategory{
		room("double", 2, 2, 0, "100"),
		room("single", 1, 1, 0, "70"),
	}}
	party := PartyOf(testCatalog(t), types.MustComposition("adult:3"))

	got, err := NewAllocator(0).Allocate(acc, party, pricer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Cost.Equal(dec("170")) {
		t.Errorf("expected cost 170, got %s", got.Cost)
	}
	if len(got.Rooms) != 2 || !got.Optimal {
		t.Errorf("expected two rooms in an optimal allocation, got %+v", got)
	}
}

func TestCheaperLargerRoomWins(t *testing.T) {
	acc := &types.Accommodation{ID: "h1", Rooms: []types.RoomCategory{
		room("double", 2, 2, 0, "100"),
		room("single", 1, 1, 0, "70"),
		room("triple", 1, 3, 0, "160"),
	}}
	got, err := NewAllocator(0).Allocate(acc, PartyOf(testCatalog(t), types.MustComposition("adult:3")), pricer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Rooms) != 1 || got.Rooms[0].RoomCategoryID != "triple" {
		t.Errorf("expected a single triple, got %+v", got.Rooms)
	}
}

func TestCostTiePrefersFewerRooms(t *testing.T) {
	acc := &types.Accommodation{ID: "h1", Rooms: []types.RoomCategory{
		room("single", 1, 1, 0, "50"),
		room("double", 1, 2, 0, "100"),
	}}
	got, err := NewAllocator(0).Allocate(acc, PartyOf(testCatalog(t), types.MustComposition("adult:2")), pricer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Rooms) != 1 || got.Rooms[0].RoomCategoryID != "double" {
		t.Errorf("expected one double on a cost tie, got %+v", got.Rooms)
	}
}

func TestChildrenNeedFamilyRoom(t *testing.T) {
	family := room("family", 2, 3, 2, "150")
	family.MinAdults = 1
	acc := &types.Accommodation{ID: "h1", Rooms: []types.RoomCategory{
		room("double", 1, 2, 0, "100"),
		room("single", 1, 1, 0, "40"),
		family,
	}}
	party := PartyOf(testCatalog(t), types.MustComposition("adult:2,child:1"))
	if party.Adults != 2 || party.Children != 1 {
		t.Fatalf("expected 2 adults and 1 child, got %d and %d", party.Adults, party.Children)
	}

	got, err := NewAllocator(0).Allocate(acc, party, pricer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Rooms) != 1 || got.Rooms[0].RoomCategoryID != "family" || got.Rooms[0].Children != 1 {
		t.Errorf("expected the family room, got %+v", got.Rooms)
	}
}

func TestLargePartyUsesGreedyFallback(t *testing.T) {
	acc := &types.Accommodation{ID: "h1", Rooms: []types.RoomCategory{
		room("quad", 1, 4, 0, "200"),
		room("double", 1, 2, 0, "110"),
	}}
	got, err := NewAllocator(4).Allocate(acc, PartyOf(testCatalog(t), types.MustComposition("adult:9")), pricer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Optimal {
		t.Error("expected greedy allocation to be flagged non-optimal")
	}
	placed := 0
	for _, r := range got.Rooms {
		placed += r.Occupants()
	}
	if placed != 9 {
		t.Errorf("expected 9 people placed, got %d", placed)
	}
	if !got.Cost.Equal(dec("510")) {
		t.Errorf("expected two quads and a double at 510, got %s", got.Cost)
	}
}

func TestGreedyFallbackKeepsAdultsForChildren(t *testing.T) {
	family := room("family", 1, 4, 3, "100")
	family.MinAdults = 1
	acc := &types.Accommodation{ID: "h1", Rooms: []types.RoomCategory{family}}
	party := PartyOf(testCatalog(t), types.MustComposition("adult:6,child:16"))

	tests := []struct {
		limit   int
		optimal bool
	}{
		{20, false},
		{30, true},
	}
	for _, tt := range tests {
		got, err := NewAllocator(tt.limit).Allocate(acc, party, pricer())
		if err != nil {
			t.Fatalf("limit %d: unexpected error: %v", tt.limit, err)
		}
		if !got.Covered || got.Optimal != tt.optimal {
			t.Errorf("limit %d: expected covered=true optimal=%v, got %+v", tt.limit, tt.optimal, got)
		}
		if len(got.Rooms) != 6 || !got.Cost.Equal(dec("600")) {
			t.Errorf("limit %d: expected six family rooms at 600, got %d rooms at %s", tt.limit, len(got.Rooms), got.Cost)
		}
		for _, r := range got.Rooms {
			if r.Adults < 1 {
				t.Errorf("limit %d: expected an adult in every room, got %+v", tt.limit, r)
			}
		}
	}
}

func TestPartyOfLodgedCategories(t *testing.T) {
	party := PartyOf(testCatalog(t), types.MustComposition("adult:4,leader:1,guide:1,driver:1"))
	if party.Adults != 5 || party.Children != 0 {
		t.Errorf("expected tourists plus lodged guide, got %d adults", party.Adults)
	}
	if party.Members.Count("driver") != 0 || party.Members.Count("leader") != 0 {
		t.Errorf("expected unlodged categories excluded, got %s", party.Members)
	}
}

func TestRoomDemandOverride(t *testing.T) {
	acc := &types.Accommodation{ID: "h1", Rooms: []types.RoomCategory{
		room("double", 1, 2, 0, "100"),
		room("single", 1, 1, 0, "40"),
	}}
	party := PartyOf(testCatalog(t), types.MustComposition("adult:4"))
	alloc := NewAllocator(0)

	demand := &types.RoomDemand{Rooms: []types.RoomDemandEntry{
		{Room: "single", BedType: "std", Quantity: 4, Adults: 1},
	}}
	got, err := alloc.ApplyDemand(acc, party, demand, pricer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Override || len(got.Rooms) != 4 || !got.Cost.Equal(dec("160")) {
		t.Errorf("expected four singles at 160 taken verbatim, got %+v", got)
	}

	short := &types.RoomDemand{Rooms: []types.RoomDemandEntry{{Room: "double", BedType: "std", Quantity: 1, Adults: 2}}}
	got, err = alloc.ApplyDemand(acc, party, short, pricer())
	if !errors.IsType(err, errors.TypeCoverage) {
		t.Fatalf("expected coverage error for a short layout, got %v", err)
	}
	if got.Uncovered.Count("adult") != 2 {
		t.Errorf("expected two uncovered adults, got %s", got.Uncovered)
	}

	over := &types.RoomDemand{Rooms: []types.RoomDemandEntry{{Room: "double", BedType: "std", Quantity: 3, Adults: 2}}}
	if _, err := alloc.ApplyDemand(acc, party, over, pricer()); !errors.IsType(err, errors.TypeCoverage) {
		t.Errorf("expected coverage error for an over-covering layout, got %v", err)
	}

	unknown := &types.RoomDemand{Rooms: []types.RoomDemandEntry{{Room: "suite", BedType: "std", Quantity: 2, Adults: 2}}}
	if _, err := alloc.ApplyDemand(acc, party, unknown, pricer()); err == nil {
		t.Error("expected error for unknown room")
	}
}

func TestStayPricerNightsAndSupplement(t *testing.T) {
	peak := dec("150")
	bed := types.BedType{
		Code: "dbl", BaseOccupancy: 2,
		NightlyCost:           dec("100"),
		ExtraPersonSupplement: dec("30"),
		Seasons: []types.SeasonRule{{
			ID: "peak", Kind: types.SeasonFixed,
			Start: types.Date(2026, 12, 24), End: types.Date(2026, 12, 26),
			Override: &peak,
		}},
	}
	p := NewStayPricer(types.Date(2026, 12, 22), 3, nil)

	got, err := p.StayCost(types.RoomCategory{ID: "r"}, bed, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 22nd and 23rd at 100, 24th at 150, plus 30 per night for the third person
	if !got.Equal(dec("440")) {
		t.Errorf("expected 440, got %s", got)
	}
}
