// Package cotation computes quotation grids for trip profiles and tracks
// their lifecycle.
package cotation

import (
	"sync"
	"time"

	"tripcost/core/types"
	"tripcost/internal/errors"
)

// transitions lists the allowed state changes
var transitions = map[types.ProfileStatus][]types.ProfileStatus{
	types.StatusDraft:       {types.StatusCalculating},
	types.StatusCalculating: {types.StatusCalculated, types.StatusDraft, types.StatusStale},
	types.StatusCalculated:  {types.StatusCalculating, types.StatusStale},
	types.StatusStale:       {types.StatusCalculating},
}

// CanTransition reports whether a profile may move from one state to another
func CanTransition(from, to types.ProfileStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Cotation is a profile with its lifecycle state and last computed grid
type Cotation struct {
	Profile types.Profile

	mu          sync.RWMutex
	status      types.ProfileStatus
	prior       types.ProfileStatus
	fingerprint string
	grid        *types.Grid
	computedAt  time.Time
}

// New creates a cotation in the draft state
func New(profile types.Profile) *Cotation {
	return &Cotation{Profile: profile, status: types.StatusDraft}
}

// Restore rebuilds a cotation from a stored grid
func Restore(profile types.Profile, grid *types.Grid, computedAt time.Time) *Cotation {
	c := New(profile)
	if grid != nil {
		c.status = types.StatusCalculated
		c.grid = grid
		c.fingerprint = grid.Fingerprint
		c.computedAt = computedAt
	}
	return c
}

// Status returns the current state
func (c *Cotation) Status() types.ProfileStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Grid returns the last computed grid, nil before the first success
func (c *Cotation) Grid() *types.Grid {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.grid
}

// Fingerprint returns the input fingerprint of the last computed grid
func (c *Cotation) Fingerprint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fingerprint
}

// ComputedAt returns when the grid was computed
func (c *Cotation) ComputedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.computedAt
}

// begin enters the calculating state
func (c *Cotation) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !CanTransition(c.status, types.StatusCalculating) {
		return errors.Newf(errors.TypeConflict, "cotation %s is %s", c.Profile.ID, c.status)
	}
	c.prior = c.status
	c.status = types.StatusCalculating
	return nil
}

// complete stores a successful grid
func (c *Cotation) complete(grid *types.Grid, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = types.StatusCalculated
	c.grid = grid
	c.fingerprint = grid.Fingerprint
	c.computedAt = at
}

// fail returns to the state held before the computation started
func (c *Cotation) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == types.StatusCalculating {
		c.status = c.prior
	}
}

// Refresh compares the current input fingerprint with the one the grid was
// computed from and flags a calculated cotation stale when they differ. It
// returns the resulting state.
func (c *Cotation) Refresh(fingerprint string) types.ProfileStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == types.StatusCalculated && c.fingerprint != fingerprint {
		c.status = types.StatusStale
	}
	return c.status
}
