// Package cmd - shared computation pipeline of the commands
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tripcost/adapters/cache"
	"tripcost/adapters/snapshot"
	"tripcost/adapters/storage"
	"tripcost/core/cotation"
	"tripcost/core/types"
	"tripcost/internal/config"
	"tripcost/internal/errors"
	"tripcost/internal/logging"
)

// Origin tells where a grid came from
type Origin string

const (
	OriginComputed Origin = "computed"
	OriginCache    Origin = "cache"
	OriginStore    Origin = "store"
)

// session holds a loaded snapshot and the collaborators of one command
type session struct {
	cfg   *config.Config
	snap  *snapshot.Snapshot
	in    cotation.Input
	store storage.Store
	cache cache.GridCache
	log   *zap.Logger
}

// sessionOptions selects the collaborators a command needs
type sessionOptions struct {
	persist bool
	cached  bool
}

func openSession(ctx context.Context, path, profileID string, opts sessionOptions) (*session, error) {
	cfg := config.Get()

	snap, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	if snap.Trip.DefaultCurrency == "" {
		snap.Trip.DefaultCurrency = cfg.Engine.DefaultCurrency
	}
	profile, err := snap.Profile(profileID)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:  cfg,
		snap: snap,
		in: cotation.Input{
			Trip:    snap.Trip,
			Catalog: snap.Catalog,
			Profile: profile,
			Rates:   snap.Rates,
		},
		log: logging.Named("cli"),
	}

	if opts.persist {
		if s.store, err = storage.Open(ctx, cfg.Storage); err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
	}
	if opts.cached {
		if s.cache, err = cache.Open(ctx, cfg.Cache); err != nil {
			// continue uncached
			s.log.Warn("cache unavailable", zap.Error(err))
			s.cache = nil
		}
	}
	return s, nil
}

func (s *session) Close() {
	if s.store != nil {
		s.store.Close()
	}
	if s.cache != nil {
		s.cache.Close()
	}
}

func (s *session) generator() *cotation.Generator {
	return cotation.NewGenerator(
		cotation.WithWorkers(s.cfg.Engine.Workers),
		cotation.WithRoomLimit(s.cfg.Engine.ExhaustiveRoomLimit),
	)
}

// grid returns the profile's grid, reusing a cached or stored grid computed
// from identical inputs unless refresh is set. A cancelled computation
// returns the partial grid with its error and is neither stored nor cached.
func (s *session) grid(ctx context.Context, refresh bool) (*types.Grid, Origin, error) {
	profile := s.in.Profile
	fp, err := cotation.Fingerprint(s.in)
	if err != nil {
		return nil, "", err
	}

	if s.cache != nil && !refresh {
		grid, ok, err := s.cache.Get(ctx, fp)
		if err != nil {
			s.log.Warn("cache lookup failed", zap.Error(err))
		} else if ok {
			s.log.Debug("grid served from cache", logging.Profile(profile.ID))
			return grid, OriginCache, nil
		}
	}

	c := cotation.New(*profile)
	if s.store != nil {
		stored, err := s.store.GetLatest(ctx, profile.ID)
		switch {
		case err == nil:
			c = cotation.Restore(*profile, stored.Grid, stored.CreatedAt)
			if c.Refresh(fp) == types.StatusCalculated && !refresh {
				s.remember(ctx, stored.Grid)
				return stored.Grid, OriginStore, nil
			}
			s.log.Info("stored cotation is stale",
				logging.Profile(profile.ID),
				zap.String("stored", stored.ID))
		case !errors.IsType(err, errors.TypeNotFound):
			return nil, "", err
		}
	}

	grid, err := s.generator().Run(ctx, c, s.in)
	if err != nil {
		return grid, OriginComputed, err
	}

	if s.store != nil {
		rec := storage.NewStoredCotation(profile, grid)
		rec.Metadata = map[string]string{"trip_name": s.snap.Trip.Name}
		if err := s.store.Save(ctx, rec); err != nil {
			return nil, "", fmt.Errorf("failed to store cotation: %w", err)
		}
		s.log.Info("cotation stored", zap.String("id", rec.ID), logging.Profile(profile.ID))
	}
	s.remember(ctx, grid)
	return grid, OriginComputed, nil
}

func (s *session) remember(ctx context.Context, grid *types.Grid) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, grid); err != nil {
		s.log.Warn("cache write failed", zap.Error(err))
	}
}
