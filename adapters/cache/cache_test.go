package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tripcost/core/types"
	"tripcost/internal/config"
)

func testGrid(fp string) *types.Grid {
	return &types.Grid{
		ProfileID:   "p1",
		Currency:    types.CurrencyEUR,
		Fingerprint: fp,
		Rows: []types.GridRow{{
			Pax:    2,
			Result: types.PricingResult{TotalPrice: decimal.RequireFromString("410.50")},
		}},
	}
}

func TestKey(t *testing.T) {
	if got := Key("abc"); got != "tripcost:grid:v1:abc" {
		t.Errorf("expected versioned key, got %s", got)
	}
}

func TestMemoryHitMissAndTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute, 0)
	m.now = func() time.Time { return now }

	if _, ok, _ := m.Get(ctx, "fp"); ok {
		t.Fatal("expected a miss on an empty cache")
	}
	if err := m.Put(ctx, testGrid("fp")); err != nil {
		t.Fatal(err)
	}
	g, ok, err := m.Get(ctx, "fp")
	if err != nil || !ok || !g.Rows[0].Result.TotalPrice.Equal(decimal.RequireFromString("410.5")) {
		t.Fatalf("expected a hit, got %v %v %v", g, ok, err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "fp"); ok {
		t.Error("expected the entry to expire")
	}

	s := m.Stats()
	if s.Hits != 1 || s.Misses != 2 || s.Expired != 1 || s.Entries != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestMemoryEviction(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	m := NewMemory(time.Hour, 2)
	m.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Second) }

	for _, fp := range []string{"a", "b", "c"} {
		if err := m.Put(ctx, testGrid(fp)); err != nil {
			t.Fatal(err)
		}
	}
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("expected the oldest entry to be evicted")
	}
	if _, ok, _ := m.Get(ctx, "c"); !ok {
		t.Error("expected the newest entry to be kept")
	}
}

func TestMemoryRejectsUnfingerprintedGrid(t *testing.T) {
	if err := NewMemory(time.Minute, 0).Put(context.Background(), testGrid("")); err == nil {
		t.Error("expected error for grid without fingerprint")
	}
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute, 0)
	m.now = func() time.Time { return now }
	_ = m.Put(ctx, testGrid("x"))
	_ = m.Put(ctx, testGrid("y"))

	_ = m.Invalidate(ctx, "x")
	if _, ok, _ := m.Get(ctx, "x"); ok {
		t.Error("expected x invalidated")
	}
	now = now.Add(time.Hour)
	if n := m.InvalidateExpired(); n != 1 {
		t.Errorf("expected 1 expired entry removed, got %d", n)
	}
}

func TestDecodeGrid(t *testing.T) {
	data, err := json.Marshal(testGrid("fp"))
	if err != nil {
		t.Fatal(err)
	}
	g, err := decodeGrid(data)
	if err != nil || g.Fingerprint != "fp" {
		t.Errorf("expected decoded grid, got %v %v", g, err)
	}
	if _, err := decodeGrid([]byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestOpen(t *testing.T) {
	c, err := Open(context.Background(), config.CacheConfig{Enabled: false})
	if err != nil || c != nil {
		t.Errorf("expected no cache when disabled, got %v %v", c, err)
	}
	c, err = Open(context.Background(), config.CacheConfig{Enabled: true, Backend: "memory", TTLSeconds: 60})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*Memory); !ok {
		t.Errorf("expected memory cache, got %T", c)
	}
	if _, err := Open(context.Background(), config.CacheConfig{Enabled: true, Backend: "memcached"}); err == nil {
		t.Error("expected error for unsupported backend")
	}
}
