package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tripcost/core/types"
	"tripcost/internal/config"
	"tripcost/internal/errors"
	"tripcost/internal/logging"
)

func init() {
	logging.SetNop()
}

func grid(fp string, prices map[int]string) *types.Grid {
	g := &types.Grid{ProfileID: "p1", Mode: types.ModeRange, Currency: types.CurrencyEUR, Fingerprint: fp}
	for pax := 1; pax <= 10; pax++ {
		p, ok := prices[pax]
		if !ok {
			continue
		}
		price := decimal.RequireFromString(p)
		g.Rows = append(g.Rows, types.GridRow{
			Pax: pax,
			Result: types.PricingResult{
				PaxCount:       pax,
				TotalPrice:     price,
				PricePerPerson: price.Div(decimal.NewFromInt(int64(pax))).Round(2),
				Composition:    types.MustComposition("adult:1"),
			},
		})
	}
	return g
}

func record(profile, fp string, at time.Time) *StoredCotation {
	return &StoredCotation{
		ProfileID:   profile,
		TripID:      "t1",
		Fingerprint: fp,
		CreatedAt:   at,
		Grid:        grid(fp, map[int]string{2: "500", 4: "800"}),
	}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	first := record("p1", "fp-a", t0)
	second := record("p1", "fp-b", t0.Add(time.Hour))
	other := record("p2", "fp-a", t0.Add(2*time.Hour))
	for _, c := range []*StoredCotation{first, second, other} {
		if err := s.Save(ctx, c); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if first.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}

	got, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Fingerprint != "fp-a" || len(got.Grid.Rows) != 2 || !got.Grid.Rows[1].Result.TotalPrice.Equal(decimal.NewFromInt(800)) {
		t.Errorf("unexpected stored cotation %+v", got)
	}

	latest, err := s.GetLatest(ctx, "p1")
	if err != nil || latest.ID != second.ID {
		t.Errorf("expected latest p1 to be the second save, got %v %v", latest, err)
	}

	byFP, err := s.FindByFingerprint(ctx, "fp-a")
	if err != nil || byFP.ID != other.ID {
		t.Errorf("expected newest fp-a record, got %v %v", byFP, err)
	}

	list, err := s.List(ctx, &ListFilter{ProfileID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Errorf("expected two p1 records newest first, got %d", len(list))
	}

	all, _ := s.List(ctx, &ListFilter{Offset: 1, Limit: 1})
	if len(all) != 1 || all[0].ID != second.ID {
		t.Errorf("expected the second newest record on page two, got %d records", len(all))
	}

	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, first.ID); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if _, err := s.GetLatest(ctx, "nobody"); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("expected not found for unknown profile, got %v", err)
	}
	if err := s.Save(ctx, &StoredCotation{ProfileID: "p1"}); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("expected input error for missing grid, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{Backend: "file", Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("expected a file store, got %T", s)
	}
	if _, err := Open(context.Background(), config.StorageConfig{Backend: "s3"}); err == nil {
		t.Error("expected error for unsupported backend")
	}
	if _, err := Open(context.Background(), config.StorageConfig{Backend: "postgres"}); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("expected input error for postgres without DSN, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	oldC := &StoredCotation{ID: "a", Fingerprint: "x", Grid: grid("x", map[int]string{2: "500", 4: "800", 6: "1000"})}
	newC := &StoredCotation{ID: "b", Fingerprint: "y", Grid: grid("y", map[int]string{2: "550", 4: "800", 8: "1200"})}

	res, err := Compare(oldC, newC)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 common rows, got %d", len(res.Rows))
	}
	two := res.Rows[0]
	if !two.Delta.Equal(decimal.NewFromInt(50)) || !two.DeltaPercent.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected +50 (10%%) at 2 pax, got %s (%s%%)", two.Delta, two.DeltaPercent)
	}
	if !res.Rows[1].Delta.IsZero() {
		t.Errorf("expected no change at 4 pax, got %s", res.Rows[1].Delta)
	}
	if len(res.Removed) != 1 || res.Removed[0] != 6 || len(res.Added) != 1 || res.Added[0] != 8 {
		t.Errorf("unexpected added/removed %v %v", res.Added, res.Removed)
	}
	if !res.Changed() || res.SameInputs {
		t.Error("expected a changed comparison of different inputs")
	}

	usd := &StoredCotation{ID: "c", Grid: &types.Grid{Currency: types.CurrencyUSD}}
	if _, err := Compare(oldC, usd); err == nil || !strings.Contains(err.Error(), "USD") {
		t.Errorf("expected currency mismatch error, got %v", err)
	}
}

func TestListQuery(t *testing.T) {
	q, args := listQuery(&ListFilter{ProfileID: "p1", Fingerprint: "fp", Limit: 5})
	if !strings.Contains(q, "profile_id = $1 AND fingerprint = $2") || !strings.Contains(q, "LIMIT $3") {
		t.Errorf("unexpected query %s", q)
	}
	if len(args) != 3 || args[2] != 5 {
		t.Errorf("unexpected args %v", args)
	}

	q, args = listQuery(nil)
	if strings.Contains(q, "WHERE") || len(args) != 0 {
		t.Errorf("expected unfiltered query, got %s %v", q, args)
	}
}
