package cotation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tripcost/core/conditions"
	"tripcost/core/cost"
	"tripcost/core/determinism"
	"tripcost/core/types"
	"tripcost/internal/errors"
	"tripcost/internal/logging"
)

// Input is everything a grid depends on
type Input struct {
	Trip    *types.Trip
	Catalog *types.Catalog
	Profile *types.Profile
	Rates   types.ExchangeRates
}

// Stats tracks one grid computation
type Stats struct {
	Total     int64
	Completed int64
	Omitted   int64
	Workers   int
	StartTime time.Time
	EndTime   time.Time
}

// Duration is the wall time of the computation
func (s Stats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Generator computes cotation grids
type Generator struct {
	// Max concurrent workers
	maxWorkers int

	roomLimit int
	group     singleflight.Group
	log       *zap.Logger
	now       func() time.Time
}

// GeneratorOption configures a generator
type GeneratorOption func(*Generator)

// WithWorkers sets the worker pool size
func WithWorkers(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxWorkers = n
		}
	}
}

// WithRoomLimit sets the largest party solved exactly by the room allocator
func WithRoomLimit(n int) GeneratorOption {
	return func(g *Generator) { g.roomLimit = n }
}

// NewGenerator creates a generator
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		maxWorkers: 4,
		log:        logging.Named("cotation"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run computes the grid of a cotation and records the outcome in its state.
// Concurrent calls for the same cotation share one computation. A failed
// computation returns the cotation to its previous state.
func (g *Generator) Run(ctx context.Context, c *Cotation, in Input) (*types.Grid, error) {
	v, err, _ := g.group.Do(c.Profile.ID, func() (interface{}, error) {
		if err := c.begin(); err != nil {
			return nil, err
		}
		grid, _, err := g.Generate(ctx, in)
		if err != nil {
			c.fail()
			return grid, err
		}
		c.complete(grid, g.now())
		return grid, nil
	})
	grid, _ := v.(*types.Grid)
	return grid, err
}

// Generate computes a grid without touching any cotation state. A cancelled
// context returns the rows finished so far together with a CANCELLED error.
func (g *Generator) Generate(ctx context.Context, in Input) (*types.Grid, Stats, error) {
	stats := Stats{StartTime: g.now()}
	if in.Profile == nil {
		return nil, stats, errors.Malformed("no profile")
	}
	profile := in.Profile

	fp, err := Fingerprint(in)
	if err != nil {
		return nil, stats, errors.Wrap(errors.TypeInternal, "fingerprint inputs", err)
	}

	plan, err := cost.Compile(in.Trip, in.Catalog, cost.WithRoomLimit(g.roomLimit))
	if err != nil {
		return nil, stats, err
	}

	selections := conditions.Effective(in.Trip, profile.Selections)
	if err := conditions.Validate(in.Trip.Conditions, selections); err != nil {
		return nil, stats, errors.Wrap(errors.TypeMalformedInput, "profile "+profile.ID, err)
	}

	work, err := units(profile, in.Catalog)
	if err != nil {
		return nil, stats, err
	}
	stats.Total = int64(len(work))

	demand := profile.RoomDemand
	rows, omitted, done, err := g.execute(ctx, work, &stats, func(u unit) (*types.PricingResult, error) {
		return plan.Price(cost.Request{
			Composition: u.comp,
			Selections:  selections,
			Rates:       in.Rates,
			RoomDemand:  demand,
		})
	})
	stats.EndTime = g.now()

	grid := &types.Grid{
		ProfileID:   profile.ID,
		Mode:        profile.Mode,
		Currency:    in.Trip.DefaultCurrency,
		Fingerprint: fp,
		Rows:        rows,
		Omitted:     omitted,
	}
	if err != nil {
		return nil, stats, err
	}

	if done < len(work) {
		grid.Cancelled = true
		g.log.Warn("cotation cancelled",
			logging.Profile(profile.ID),
			zap.Int("completed", done),
			zap.Int("total", len(work)))
		return grid, stats, errors.Wrapf(errors.TypeCancelled, ctx.Err(),
			"profile %s: %d of %d rows computed", profile.ID, done, len(work))
	}

	g.log.Info("cotation computed",
		logging.Profile(profile.ID),
		zap.String("mode", string(profile.Mode)),
		zap.Int("rows", len(rows)),
		zap.Int("omitted", len(omitted)),
		zap.Duration("duration", stats.Duration()))
	return grid, stats, nil
}

type outcome struct {
	unit   unit
	result *types.PricingResult
	err    error
}

// execute prices every unit on a bounded worker pool. Workers check the
// context before each unit, so a cancelled run stops between units.
func (g *Generator) execute(ctx context.Context, work []unit, stats *Stats,
	price func(unit) (*types.PricingResult, error)) ([]types.GridRow, []types.OmittedRow, int, error) {

	workers := g.maxWorkers
	if len(work) < workers {
		workers = len(work)
	}
	stats.Workers = workers

	// Channel for work items
	queue := make(chan unit, len(work))
	for _, u := range work {
		queue <- u
	}
	close(queue)

	results := make(chan outcome, len(work))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range queue {
				select {
				case <-ctx.Done():
					return
				default:
				}
				res, err := price(u)
				results <- outcome{unit: u, result: res, err: err}
			}
		}()
	}

	wg.Wait()
	close(results)

	var rows []types.GridRow
	var omitted []types.OmittedRow
	var fatal error
	done := 0
	for o := range results {
		done++
		switch {
		case o.err == nil:
			atomic.AddInt64(&stats.Completed, 1)
			rows = append(rows, types.GridRow{Pax: o.unit.pax, Label: o.unit.label, Result: *o.result})
			g.log.Debug("row computed", logging.Pax(o.unit.pax), zap.Bool("incomplete", o.result.Incomplete))
		case errors.IsType(o.err, errors.TypeMalformedInput):
			if fatal == nil {
				fatal = o.err
			}
		default:
			atomic.AddInt64(&stats.Omitted, 1)
			omitted = append(omitted, types.OmittedRow{Pax: o.unit.pax, Type: errors.TypeOf(o.err), Reason: o.err.Error()})
			g.log.Debug("row omitted", logging.Pax(o.unit.pax), zap.Error(o.err))
		}
	}

	determinism.SortSlice(rows, func(a, b types.GridRow) bool { return a.Pax < b.Pax })
	determinism.SortSlice(omitted, func(a, b types.OmittedRow) bool { return a.Pax < b.Pax })
	return rows, omitted, done, fatal
}
