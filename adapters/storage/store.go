// Package storage persists computed cotations. Supports file, memory and
// PostgreSQL backends.
package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tripcost/core/types"
	"tripcost/internal/config"
	"tripcost/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile     Backend = "file"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Store is the storage interface
type Store interface {
	io.Closer

	// Save stores a cotation, assigning an ID and timestamp when missing
	Save(ctx context.Context, c *StoredCotation) error

	// Get retrieves a cotation by ID
	Get(ctx context.Context, id string) (*StoredCotation, error)

	// List lists cotations, newest first
	List(ctx context.Context, filter *ListFilter) ([]*StoredCotation, error)

	// Delete removes a cotation
	Delete(ctx context.Context, id string) error

	// GetLatest gets the latest cotation of a profile
	GetLatest(ctx context.Context, profileID string) (*StoredCotation, error)

	// FindByFingerprint gets the latest cotation computed from identical inputs
	FindByFingerprint(ctx context.Context, fingerprint string) (*StoredCotation, error)
}

// StoredCotation is a persisted grid with its lookup keys
type StoredCotation struct {
	// ID is unique identifier
	ID string `json:"id"`

	ProfileID   string `json:"profile_id"`
	ProfileName string `json:"profile_name,omitempty"`
	TripID      string `json:"trip_id"`

	// Fingerprint identifies the inputs the grid was computed from
	Fingerprint string `json:"fingerprint"`

	CreatedAt time.Time `json:"created_at"`

	Metadata map[string]string `json:"metadata,omitempty"`

	Grid *types.Grid `json:"grid"`
}

// NewStoredCotation wraps a computed grid
func NewStoredCotation(profile *types.Profile, grid *types.Grid) *StoredCotation {
	return &StoredCotation{
		ProfileID:   profile.ID,
		ProfileName: profile.Name,
		TripID:      profile.TripID,
		Fingerprint: grid.Fingerprint,
		Grid:        grid,
	}
}

// prepare assigns the ID and creation time of a new record
func (c *StoredCotation) prepare() error {
	if c.Grid == nil {
		return errors.Input("cotation without grid")
	}
	if c.ProfileID == "" {
		return errors.Input("cotation without profile")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return nil
}

// ListFilter filters result listing
type ListFilter struct {
	ProfileID   string
	TripID      string
	Fingerprint string
	Since       time.Time
	Until       time.Time
	Limit       int
	Offset      int
}

// match reports whether a record passes the filter
func (f *ListFilter) match(c *StoredCotation) bool {
	if f == nil {
		return true
	}
	if f.ProfileID != "" && c.ProfileID != f.ProfileID {
		return false
	}
	if f.TripID != "" && c.TripID != f.TripID {
		return false
	}
	if f.Fingerprint != "" && c.Fingerprint != f.Fingerprint {
		return false
	}
	if !f.Since.IsZero() && c.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && c.CreatedAt.After(f.Until) {
		return false
	}
	return true
}

// page sorts newest first and applies offset and limit
func (f *ListFilter) page(results []*StoredCotation) []*StoredCotation {
	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})
	if f == nil {
		return results
	}
	if f.Offset > 0 {
		if f.Offset >= len(results) {
			return nil
		}
		results = results[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(results) {
		results = results[:f.Limit]
	}
	return results
}

// latest returns the first result of a one-element listing
func latest(ctx context.Context, s Store, filter *ListFilter, what string) (*StoredCotation, error) {
	filter.Limit = 1
	results, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.NotFound("cotation", what)
	}
	return results[0], nil
}

// RowDelta is the price change of one pax count
type RowDelta struct {
	Pax          int             `json:"pax"`
	OldPrice     decimal.Decimal `json:"old_price"`
	NewPrice     decimal.Decimal `json:"new_price"`
	Delta        decimal.Decimal `json:"delta"`
	DeltaPercent decimal.Decimal `json:"delta_percent"`
	OldPerPerson decimal.Decimal `json:"old_per_person"`
	NewPerPerson decimal.Decimal `json:"new_per_person"`
}

// CompareResult is a comparison between two stored cotations
type CompareResult struct {
	OldID string     `json:"old_id"`
	NewID string     `json:"new_id"`
	Rows  []RowDelta `json:"rows"`

	// Added and Removed list pax counts present in only one grid
	Added   []int `json:"added,omitempty"`
	Removed []int `json:"removed,omitempty"`

	// SameInputs is set when both grids share a fingerprint
	SameInputs bool `json:"same_inputs"`
}

// Changed reports whether any common row changed price
func (r *CompareResult) Changed() bool {
	for _, d := range r.Rows {
		if !d.Delta.IsZero() {
			return true
		}
	}
	return len(r.Added) > 0 || len(r.Removed) > 0
}

var hundred = decimal.NewFromInt(100)

// Compare compares two stored cotations row by row on the selling price
func Compare(oldC, newC *StoredCotation) (*CompareResult, error) {
	if oldC == nil || newC == nil || oldC.Grid == nil || newC.Grid == nil {
		return nil, errors.Input("both cotations need a grid")
	}
	if oldC.Grid.Currency != newC.Grid.Currency {
		return nil, errors.Newf(errors.TypeInput, "cannot compare %s with %s grids",
			oldC.Grid.Currency, newC.Grid.Currency)
	}

	res := &CompareResult{
		OldID:      oldC.ID,
		NewID:      newC.ID,
		SameInputs: oldC.Fingerprint != "" && oldC.Fingerprint == newC.Fingerprint,
	}
	for _, oldRow := range oldC.Grid.Rows {
		newRow, ok := newC.Grid.Row(oldRow.Pax)
		if !ok {
			res.Removed = append(res.Removed, oldRow.Pax)
			continue
		}
		o, n := oldRow.Result, newRow.Result
		delta := n.TotalPrice.Sub(o.TotalPrice)
		pct := decimal.Zero
		if !o.TotalPrice.IsZero() {
			pct = delta.Div(o.TotalPrice).Mul(hundred).Round(2)
		}
		res.Rows = append(res.Rows, RowDelta{
			Pax:          oldRow.Pax,
			OldPrice:     o.TotalPrice,
			NewPrice:     n.TotalPrice,
			Delta:        delta,
			DeltaPercent: pct,
			OldPerPerson: o.PricePerPerson,
			NewPerPerson: n.PricePerPerson,
		})
	}
	for _, newRow := range newC.Grid.Rows {
		if _, ok := oldC.Grid.Row(newRow.Pax); !ok {
			res.Added = append(res.Added, newRow.Pax)
		}
	}
	return res, nil
}

// Open creates the store selected by the configuration
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch Backend(cfg.Backend) {
	case BackendFile, "":
		path := cfg.Directory
		if path == "" {
			path = ".tripcost"
		}
		return NewFileStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
