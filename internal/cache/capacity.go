package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"lockerhub-backend/internal/domain"
)

const capacityKeyPrefix = "rescap:"

// checkAndDecrement admits one reservation unit only while the remaining
// capacity is positive. Running it as a script keeps check and decrement
// atomic under concurrent admissions.
var checkAndDecrement = redis.NewScript(`
local key = KEYS[1]

local remaining = redis.call('GET', key)
if not remaining then
	return -1
end

remaining = tonumber(remaining)
if remaining >= 1 then
	redis.call('DECR', key)
	return 1
end

return 0
`)

func capacityKey(locationID string, size domain.SizeClass, date string) string {
	return fmt.Sprintf("%s%s:%s:%s", capacityKeyPrefix, locationID, size, date)
}

// CapacityCache tracks remaining reservation capacity per
// (location, size, date). Keys are seeded lazily from provisioned capacity
// minus the current held count, then kept current by Reserve/Release.
type CapacityCache struct {
	client *redis.Client
}

func NewCapacityCache(client *redis.Client) *CapacityCache {
	return &CapacityCache{client: client}
}

// Reserve takes one unit of capacity for the date. Returns ErrMiss when
// the key has not been seeded yet.
func (c *CapacityCache) Reserve(ctx context.Context, locationID string, size domain.SizeClass, date string) (bool, error) {
	result, err := checkAndDecrement.Run(ctx, c.client, []string{capacityKey(locationID, size, date)}).Int()
	if err != nil {
		return false, err
	}
	if result == -1 {
		return false, ErrMiss
	}
	return result == 1, nil
}

// Release returns one unit of capacity for the date. A missing key is not
// an error; the next admission reseeds it from the database.
func (c *CapacityCache) Release(ctx context.Context, locationID string, size domain.SizeClass, date string) error {
	key := capacityKey(locationID, size, date)
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	return c.client.Incr(ctx, key).Err()
}

// Seed installs the remaining-capacity figure for a date, keeping any
// value written concurrently by another admission.
func (c *CapacityCache) Seed(ctx context.Context, locationID string, size domain.SizeClass, date string, remaining int64) error {
	if remaining < 0 {
		remaining = 0
	}
	return c.client.SetNX(ctx, capacityKey(locationID, size, date), remaining, 0).Err()
}

// Drop removes the counter for a date, forcing a reseed on next admission.
// The expiry sweep drops counters for dates already in the past.
func (c *CapacityCache) Drop(ctx context.Context, locationID string, size domain.SizeClass, date string) error {
	err := c.client.Del(ctx, capacityKey(locationID, size, date)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
