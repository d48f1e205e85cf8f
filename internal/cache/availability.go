// Package cache holds the Redis-backed derived counters: per-location
// availability, reservation capacity admission, and system statistics.
// Nothing here is authoritative; every key can be rebuilt from Postgres.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"lockerhub-backend/internal/domain"
)

const availKeyPrefix = "avail:"

// ErrMiss is returned when a counter key does not exist yet.
var ErrMiss = errors.New("cache miss")

func availKey(locationID string, size domain.SizeClass) string {
	return fmt.Sprintf("%s%s:%s", availKeyPrefix, locationID, size)
}

// AvailabilityCache mirrors the per-(location, size) free-unit counts.
// Claims decrement, releases increment, and the reconcile job overwrites
// the keys with a fresh census.
type AvailabilityCache struct {
	client *redis.Client
}

func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

func (c *AvailabilityCache) Get(ctx context.Context, locationID string, size domain.SizeClass) (int64, error) {
	val, err := c.client.Get(ctx, availKey(locationID, size)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrMiss
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func (c *AvailabilityCache) Set(ctx context.Context, locationID string, size domain.SizeClass, count int64) error {
	return c.client.Set(ctx, availKey(locationID, size), count, 0).Err()
}

func (c *AvailabilityCache) Decrement(ctx context.Context, locationID string, size domain.SizeClass) error {
	return c.client.Decr(ctx, availKey(locationID, size)).Err()
}

func (c *AvailabilityCache) Increment(ctx context.Context, locationID string, size domain.SizeClass) error {
	return c.client.Incr(ctx, availKey(locationID, size)).Err()
}
