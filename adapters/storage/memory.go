package storage

import (
	"context"
	"sync"

	"tripcost/internal/errors"
)

// MemoryStore is an in-memory storage backend (for testing)
type MemoryStore struct {
	results map[string]*StoredCotation
	mu      sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[string]*StoredCotation),
	}
}

func (s *MemoryStore) Save(ctx context.Context, c *StoredCotation) error {
	if err := c.prepare(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[c.ID] = c
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*StoredCotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.results[id]
	if !ok {
		return nil, errors.NotFound("cotation", id)
	}
	return c, nil
}

func (s *MemoryStore) List(ctx context.Context, filter *ListFilter) ([]*StoredCotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*StoredCotation
	for _, c := range s.results {
		if filter.match(c) {
			results = append(results, c)
		}
	}
	return filter.page(results), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[id]; !ok {
		return errors.NotFound("cotation", id)
	}
	delete(s.results, id)
	return nil
}

func (s *MemoryStore) GetLatest(ctx context.Context, profileID string) (*StoredCotation, error) {
	return latest(ctx, s, &ListFilter{ProfileID: profileID}, profileID)
}

func (s *MemoryStore) FindByFingerprint(ctx context.Context, fingerprint string) (*StoredCotation, error) {
	return latest(ctx, s, &ListFilter{Fingerprint: fingerprint}, fingerprint)
}

func (s *MemoryStore) Close() error {
	return nil
}

// Ensure interfaces are implemented
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
