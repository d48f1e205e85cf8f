package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/events"
)

// InventoryService guards all locker status transitions. Claim and release
// are the only paths that move a locker between AVAILABLE and OCCUPIED.
type InventoryService interface {
	ClaimLocker(ctx context.Context, locationID string, size domain.SizeClass) (*domain.Locker, error)
	ReleaseLocker(ctx context.Context, lockerID string) error
	AvailableCount(ctx context.Context, locationID string, size domain.SizeClass) (int64, error)
	AvailableCounts(ctx context.Context, locationID string) (map[domain.SizeClass]int64, error)

	// SetMaintenance pulls an AVAILABLE unit out of service or restores a
	// MAINTENANCE unit. Occupied lockers must be released first.
	SetMaintenance(ctx context.Context, lockerID string, on bool) error
}

// RentalService drives the rental state machine:
// PENDING → ACTIVE → COMPLETED, with CANCELLED reachable only from PENDING.
type RentalService interface {
	RequestRental(ctx context.Context, userID, locationID string, size domain.SizeClass, tier domain.PlanTier, duration domain.DurationClass) (*domain.Rental, error)
	ActivateRental(ctx context.Context, userID string, rentalID uuid.UUID) (*domain.Rental, error)
	EndRental(ctx context.Context, userID string, rentalID uuid.UUID) (*domain.Rental, error)
	CancelRental(ctx context.Context, userID string, rentalID uuid.UUID) (*domain.Rental, error)
	GetRental(ctx context.Context, userID string, rentalID uuid.UUID) (*domain.Rental, error)
	ListRentals(ctx context.Context, userID string, status string, page, pageSize int32) ([]domain.Rental, int32, error)

	// CreateFromReservation is the conversion entry: the locker is already
	// claimed, the rental starts PENDING until pickup.
	CreateFromReservation(ctx context.Context, userID string, locker *domain.Locker, tier domain.PlanTier, duration domain.DurationClass) (*domain.Rental, error)
}

// ReservationService manages capacity holds for future dates.
type ReservationService interface {
	CreateReservation(ctx context.Context, userID, locationID string, size domain.SizeClass, dates []string) (*domain.Reservation, error)
	ConfirmReservation(ctx context.Context, userID string, reservationID uuid.UUID) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, userID string, reservationID uuid.UUID) (*domain.Reservation, error)
	ConvertToRental(ctx context.Context, userID string, reservationID uuid.UUID, tier domain.PlanTier, duration domain.DurationClass) (*domain.Rental, error)
	GetReservation(ctx context.Context, userID string, reservationID uuid.UUID) (*domain.Reservation, error)
	ListReservations(ctx context.Context, userID string, status string, page, pageSize int32) ([]domain.Reservation, int32, error)

	// ExpireStale cancels holds whose last requested date has passed.
	ExpireStale(ctx context.Context) (int, error)
}

// StatisticsService keeps the derived counters. Apply is best-effort and
// never returns an error to the caller; Rebuild recounts from storage.
type StatisticsService interface {
	Apply(ctx context.Context, delta domain.StatsDelta)
	Snapshot(ctx context.Context) (*domain.SystemStatistics, error)
	Rebuild(ctx context.Context) (*domain.SystemStatistics, error)
	ReconcileAvailability(ctx context.Context) error
}

// AvailabilityCounter is the cached per-(location, size) free-unit count.
type AvailabilityCounter interface {
	Get(ctx context.Context, locationID string, size domain.SizeClass) (int64, error)
	Set(ctx context.Context, locationID string, size domain.SizeClass, count int64) error
	Decrement(ctx context.Context, locationID string, size domain.SizeClass) error
	Increment(ctx context.Context, locationID string, size domain.SizeClass) error
}

// CapacityCounter is the per-(location, size, date) reservation admission
// counter. Drop discards the counter for a date that can no longer be
// booked.
type CapacityCounter interface {
	Reserve(ctx context.Context, locationID string, size domain.SizeClass, date string) (bool, error)
	Release(ctx context.Context, locationID string, size domain.SizeClass, date string) error
	Seed(ctx context.Context, locationID string, size domain.SizeClass, date string, remaining int64) error
	Drop(ctx context.Context, locationID string, size domain.SizeClass, date string) error
}

// StatsSink is the counter store behind the statistics aggregator.
type StatsSink interface {
	Apply(ctx context.Context, delta domain.StatsDelta) error
	Snapshot(ctx context.Context) (*domain.SystemStatistics, error)
	Replace(ctx context.Context, stats *domain.SystemStatistics, rebuiltAt time.Time) error
}

// EventPublisher decouples services from the dispatcher for testing.
type EventPublisher interface {
	Publish(evt events.Event)
}
