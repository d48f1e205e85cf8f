package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"lockerhub-backend/internal/domain"
)

const (
	statsLockersKey   = "stats:lockers_by_status"
	statsOccupiedKey  = "stats:occupied_by_size"
	statsRentalsKey   = "stats:rentals_by_status"
	statsRevenueKey   = "stats:revenue_cents"
	statsRebuiltAtKey = "stats:rebuilt_at"
)

// StatsStore keeps the statistics counters as Redis hashes. Increments are
// best-effort; Replace is used by rebuild to overwrite everything from a
// from-scratch recount.
type StatsStore struct {
	client *redis.Client
}

func NewStatsStore(client *redis.Client) *StatsStore {
	return &StatsStore{client: client}
}

// Apply increments the counters named in the delta. Partial failure leaves
// the counters skewed until the next rebuild, which is the accepted model.
func (s *StatsStore) Apply(ctx context.Context, delta domain.StatsDelta) error {
	pipe := s.client.Pipeline()
	for status, n := range delta.RentalsByStatus {
		pipe.HIncrBy(ctx, statsRentalsKey, string(status), n)
	}
	for size, n := range delta.OccupiedBySize {
		pipe.HIncrBy(ctx, statsOccupiedKey, string(size), n)
	}
	for key, cents := range delta.RevenueCents {
		pipe.HIncrBy(ctx, statsRevenueKey, key, cents)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Snapshot reads the current counter values.
func (s *StatsStore) Snapshot(ctx context.Context) (*domain.SystemStatistics, error) {
	stats := &domain.SystemStatistics{
		LockersByStatus: make(map[domain.LockerStatus]int64),
		OccupiedBySize:  make(map[domain.SizeClass]int64),
		RentalsByStatus: make(map[domain.RentalStatus]int64),
		RevenueCents:    make(map[string]int64),
	}

	lockers, err := s.client.HGetAll(ctx, statsLockersKey).Result()
	if err != nil {
		return nil, err
	}
	for k, v := range lockers {
		stats.LockersByStatus[domain.LockerStatus(k)] = parseCount(v)
	}

	occupied, err := s.client.HGetAll(ctx, statsOccupiedKey).Result()
	if err != nil {
		return nil, err
	}
	for k, v := range occupied {
		stats.OccupiedBySize[domain.SizeClass(k)] = parseCount(v)
	}

	rentals, err := s.client.HGetAll(ctx, statsRentalsKey).Result()
	if err != nil {
		return nil, err
	}
	for k, v := range rentals {
		stats.RentalsByStatus[domain.RentalStatus(k)] = parseCount(v)
	}

	revenue, err := s.client.HGetAll(ctx, statsRevenueKey).Result()
	if err != nil {
		return nil, err
	}
	for k, v := range revenue {
		stats.RevenueCents[k] = parseCount(v)
	}

	if ts, err := s.client.Get(ctx, statsRebuiltAtKey).Result(); err == nil {
		if parsed, perr := time.Parse(time.RFC3339, ts); perr == nil {
			stats.RebuiltAt = &parsed
		}
	}

	return stats, nil
}

// Replace atomically swaps all counters for the recounted values.
func (s *StatsStore) Replace(ctx context.Context, stats *domain.SystemStatistics, rebuiltAt time.Time) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, statsLockersKey, statsOccupiedKey, statsRentalsKey, statsRevenueKey)
	for status, n := range stats.LockersByStatus {
		pipe.HSet(ctx, statsLockersKey, string(status), n)
	}
	for size, n := range stats.OccupiedBySize {
		pipe.HSet(ctx, statsOccupiedKey, string(size), n)
	}
	for status, n := range stats.RentalsByStatus {
		pipe.HSet(ctx, statsRentalsKey, string(status), n)
	}
	for key, cents := range stats.RevenueCents {
		pipe.HSet(ctx, statsRevenueKey, key, cents)
	}
	pipe.Set(ctx, statsRebuiltAtKey, rebuiltAt.Format(time.RFC3339), 0)
	_, err := pipe.Exec(ctx)
	return err
}

func parseCount(v string) int64 {
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}
