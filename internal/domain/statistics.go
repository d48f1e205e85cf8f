package domain

import "time"

// SystemStatistics is the derived, eventually-consistent aggregate view.
// It is rebuildable from the locker and rental tables at any time and is
// never a source of truth.
type SystemStatistics struct {
	LockersByStatus map[LockerStatus]int64 `json:"lockers_by_status"`
	OccupiedBySize  map[SizeClass]int64    `json:"occupied_by_size"`
	RentalsByStatus map[RentalStatus]int64 `json:"rentals_by_status"`
	RevenueCents    map[string]int64       `json:"revenue_cents"`
	RebuiltAt       *time.Time             `json:"rebuilt_at,omitempty"`
}

// RevenueKey builds the revenue counter field for a (tier, size) pair.
func RevenueKey(tier PlanTier, size SizeClass) string {
	return string(tier) + "/" + string(size)
}

// StatsDelta is one best-effort counter adjustment emitted by a lifecycle
// transition. Deltas may be lost on crash; Rebuild repairs the counters.
type StatsDelta struct {
	RentalsByStatus map[RentalStatus]int64
	OccupiedBySize  map[SizeClass]int64
	RevenueCents    map[string]int64
}
