// Package cache keeps computed grids keyed by their input fingerprint, so
// an unchanged profile is served without recomputation.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tripcost/core/types"
	"tripcost/internal/config"
)

// KeyPrefix namespaces grid keys. Bump the version when the grid encoding changes.
const KeyPrefix = "tripcost:grid:v1:"

// Key builds the cache key of a fingerprint
func Key(fingerprint string) string {
	return KeyPrefix + fingerprint
}

// GridCache stores grids by fingerprint
type GridCache interface {
	// Get returns the cached grid, or false on a miss
	Get(ctx context.Context, fingerprint string) (*types.Grid, bool, error)

	// Put stores a grid under its fingerprint
	Put(ctx context.Context, grid *types.Grid) error

	// Invalidate removes a fingerprint
	Invalidate(ctx context.Context, fingerprint string) error

	Close() error
}

// Stats contains cache statistics
type Stats struct {
	Entries int
	Hits    int
	Misses  int
	Expired int
}

type entry struct {
	grid      *types.Grid
	createdAt time.Time
	expiresAt time.Time
}

// Memory is an in-process TTL cache bounded to MaxEntries
type Memory struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	stats   Stats
}

// DefaultMaxEntries bounds a memory cache created without a limit
const DefaultMaxEntries = 1000

// NewMemory creates a memory cache
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]*entry),
	}
}

func (m *Memory) Get(ctx context.Context, fingerprint string) (*types.Grid, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key(fingerprint)
	e, ok := m.entries[key]
	if !ok {
		m.stats.Misses++
		return nil, false, nil
	}
	if m.ttl > 0 && m.now().After(e.expiresAt) {
		delete(m.entries, key)
		m.stats.Expired++
		m.stats.Misses++
		return nil, false, nil
	}
	m.stats.Hits++
	return e.grid, true, nil
}

func (m *Memory) Put(ctx context.Context, grid *types.Grid) error {
	if grid == nil || grid.Fingerprint == "" {
		return fmt.Errorf("cannot cache a grid without fingerprint")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key(grid.Fingerprint)
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldest()
	}
	now := m.now()
	m.entries[key] = &entry{grid: grid, createdAt: now, expiresAt: now.Add(m.ttl)}
	return nil
}

// evictOldest drops the entry created first; callers hold the lock
func (m *Memory) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range m.entries {
		if oldestKey == "" || e.createdAt.Before(oldest) || (e.createdAt.Equal(oldest) && k < oldestKey) {
			oldestKey, oldest = k, e.createdAt
		}
	}
	delete(m.entries, oldestKey)
}

func (m *Memory) Invalidate(ctx context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, Key(fingerprint))
	return nil
}

// InvalidateExpired removes all expired entries
func (m *Memory) InvalidateExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ttl <= 0 {
		return 0
	}
	count := 0
	now := m.now()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
			count++
		}
	}
	m.stats.Expired += count
	return count
}

// Stats returns cache statistics
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Entries = len(m.entries)
	return s
}

func (m *Memory) Close() error {
	return nil
}

// Open creates the cache selected by the configuration, or nil when disabled
func Open(ctx context.Context, cfg config.CacheConfig) (GridCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Backend {
	case "memory", "":
		return NewMemory(ttl, 0), nil
	case "redis":
		return NewRedis(ctx, cfg.RedisAddr, ttl)
	}
	return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
}
