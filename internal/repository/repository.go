package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lockerhub-backend/internal/domain"
)

type LockerRepository interface {
	// Claim atomically flips one AVAILABLE locker of the given size at the
	// location to OCCUPIED and returns it. Returns domain.ErrNoInventory
	// when no unit qualifies. All OCCUPIED transitions go through here;
	// nothing may set locker status by unconditional write.
	Claim(ctx context.Context, locationID string, size domain.SizeClass) (*domain.Locker, error)

	// BindRental records the owning rental on a just-claimed locker.
	BindRental(ctx context.Context, lockerID string, rentalID uuid.UUID) error

	// Release flips OCCUPIED back to AVAILABLE and clears the rental
	// reference. Idempotent: releasing a non-OCCUPIED locker is a no-op,
	// because crash-recovery paths may call it more than once.
	Release(ctx context.Context, lockerID string) error

	GetByID(ctx context.Context, id string) (*domain.Locker, error)
	ListByLocation(ctx context.Context, locationID string) ([]domain.Locker, error)
	SetMaintenance(ctx context.Context, lockerID string, on bool) error

	CountAvailable(ctx context.Context, locationID string, size domain.SizeClass) (int64, error)
	CountAvailableAll(ctx context.Context) ([]domain.AvailableCount, error)
	CountByStatus(ctx context.Context) (map[domain.LockerStatus]int64, error)
	CountOccupiedBySize(ctx context.Context) (map[domain.SizeClass]int64, error)

	// ReleaseOrphans frees lockers still marked OCCUPIED whose owning
	// rental has already reached a terminal state. Run by reconciliation.
	ReleaseOrphans(ctx context.Context) (int64, error)
}

type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Location, error)
	List(ctx context.Context) ([]domain.Location, error)
	GetCapacity(ctx context.Context, locationID string, size domain.SizeClass) (int32, error)
	ListCapacities(ctx context.Context, locationID string) ([]domain.LocationCapacity, error)
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error)

	// UpdateStatusFrom performs the guarded transition from → to. EndTime
	// and totalPriceCents are written when non-nil. Returns
	// domain.ErrInvalidState when the row is not in the expected state,
	// which serializes concurrent transitions on the same rental.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to domain.RentalStatus, endTime *time.Time, totalPriceCents *int64) error

	ListByUser(ctx context.Context, userID string, status string, page, pageSize int32) ([]domain.Rental, int32, error)
	CountByStatus(ctx context.Context) (map[domain.RentalStatus]int64, error)
	RevenueByPlan(ctx context.Context) (map[string]int64, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to domain.ReservationStatus, convertedRental *uuid.UUID) error
	ListByUser(ctx context.Context, userID string, status string, page, pageSize int32) ([]domain.Reservation, int32, error)

	// CountHeldForDate counts PENDING plus CONFIRMED reservations covering
	// the given date for a (location, size); the admission bound.
	CountHeldForDate(ctx context.Context, locationID string, size domain.SizeClass, date string) (int32, error)

	// ListExpirable returns PENDING and CONFIRMED reservations whose last
	// requested date is strictly before the given date.
	ListExpirable(ctx context.Context, before string) ([]domain.Reservation, error)
}
