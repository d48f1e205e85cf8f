package jobs

import (
	"context"

	"lockerhub-backend/internal/logger"
)

// RebuildStatistics recounts every statistics counter from the locker and
// rental tables and replaces the cached values.
func (jr *JobRunner) RebuildStatistics() {
	jr.runWithRecovery("RebuildStatistics", func() {
		ctx := context.Background()

		stats, err := jr.services.Statistics.Rebuild(ctx)
		if err != nil {
			logger.Error("Failed to rebuild statistics", "error", err)
			return
		}
		logger.Info("Statistics rebuilt",
			"lockers_tracked", len(stats.LockersByStatus),
			"rental_statuses", len(stats.RentalsByStatus))
	})
}

// ReconcileAvailability repairs two kinds of drift: lockers stranded in
// OCCUPIED by a crash between rental completion and release, and cached
// availability counters that missed an increment or decrement.
func (jr *JobRunner) ReconcileAvailability() {
	jr.runWithRecovery("ReconcileAvailability", func() {
		ctx := context.Background()

		freed, err := jr.store.LockerRepository.ReleaseOrphans(ctx)
		if err != nil {
			logger.Error("Failed to release orphaned lockers", "error", err)
			return
		}
		if freed > 0 {
			logger.Warn("Released orphaned lockers", "count", freed)
		}

		if err := jr.services.Statistics.ReconcileAvailability(ctx); err != nil {
			logger.Error("Failed to reconcile availability counters", "error", err)
			return
		}
		logger.Info("Availability counters reconciled")
	})
}

// ExpireReservations cancels holds whose last date has passed without
// conversion so their capacity returns to the pool.
func (jr *JobRunner) ExpireReservations() {
	jr.runWithRecovery("ExpireReservations", func() {
		ctx := context.Background()

		expired, err := jr.services.Reservation.ExpireStale(ctx)
		if err != nil {
			logger.Error("Failed to expire reservations", "error", err)
			return
		}
		logger.Info("Expired stale reservations", "count", expired)
	})
}
