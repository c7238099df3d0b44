package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tripcost/core/types"
	"tripcost/internal/logging"
)

// Redis stores grids as JSON strings with the cache TTL
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to addr and checks the connection
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	logging.Info("redis cache ready", zap.String("addr", addr))
	return NewRedisFromClient(client, ttl), nil
}

// NewRedisFromClient wraps an existing client
func NewRedisFromClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, fingerprint string) (*types.Grid, bool, error) {
	val, err := r.client.Get(ctx, Key(fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	grid, err := decodeGrid(val)
	if err != nil {
		// a corrupt entry is a miss; it is overwritten by the next Put
		logging.Warn("discarding unreadable cached grid", logging.Fingerprint(fingerprint), zap.Error(err))
		return nil, false, nil
	}
	return grid, true, nil
}

func (r *Redis) Put(ctx context.Context, grid *types.Grid) error {
	if grid == nil || grid.Fingerprint == "" {
		return fmt.Errorf("cannot cache a grid without fingerprint")
	}
	data, err := json.Marshal(grid)
	if err != nil {
		return fmt.Errorf("failed to marshal grid: %w", err)
	}
	return r.client.Set(ctx, Key(grid.Fingerprint), data, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, fingerprint string) error {
	return r.client.Del(ctx, Key(fingerprint)).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func decodeGrid(data []byte) (*types.Grid, error) {
	var grid types.Grid
	if err := json.Unmarshal(data, &grid); err != nil {
		return nil, err
	}
	return &grid, nil
}

var (
	_ GridCache = (*Memory)(nil)
	_ GridCache = (*Redis)(nil)
)
