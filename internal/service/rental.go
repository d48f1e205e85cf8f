package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/events"
	"lockerhub-backend/internal/logger"
	"lockerhub-backend/internal/pricing"
	"lockerhub-backend/internal/repository"
)

type rentalService struct {
	rentalRepo repository.RentalRepository
	lockerRepo repository.LockerRepository
	inventory  InventoryService
	stats      StatisticsService
	publisher  EventPublisher
	timeout    time.Duration
	now        func() time.Time
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	lockerRepo repository.LockerRepository,
	inventory InventoryService,
	stats StatisticsService,
	publisher EventPublisher,
	timeout time.Duration,
) RentalService {
	return &rentalService{
		rentalRepo: rentalRepo,
		lockerRepo: lockerRepo,
		inventory:  inventory,
		stats:      stats,
		publisher:  publisher,
		timeout:    timeout,
		now:        time.Now,
	}
}

// RequestRental is the instant-rent path: claim a unit, then record the
// rental as ACTIVE with the clock started. The claim failing with
// NoInventory surfaces as "fully booked" to the user.
func (s *rentalService) RequestRental(ctx context.Context, userID, locationID string, size domain.SizeClass, tier domain.PlanTier, duration domain.DurationClass) (*domain.Rental, error) {
	if err := validateRentalInputs(userID, locationID, size, tier, duration); err != nil {
		return nil, err
	}

	lk, err := s.inventory.ClaimLocker(ctx, locationID, size)
	if err != nil {
		return nil, err
	}

	rt, err := s.createRental(ctx, userID, lk, tier, duration, domain.RentalStatusActive)
	if err != nil {
		return nil, err
	}

	s.stats.Apply(ctx, domain.StatsDelta{
		RentalsByStatus: map[domain.RentalStatus]int64{domain.RentalStatusActive: 1},
		OccupiedBySize:  map[domain.SizeClass]int64{size: 1},
	})
	return rt, nil
}

// CreateFromReservation records a rental for an already-claimed locker.
// The rental starts PENDING and activates at pickup.
func (s *rentalService) CreateFromReservation(ctx context.Context, userID string, locker *domain.Locker, tier domain.PlanTier, duration domain.DurationClass) (*domain.Rental, error) {
	if err := validateRentalInputs(userID, locker.LocationID, locker.SizeClass, tier, duration); err != nil {
		return nil, err
	}

	rt, err := s.createRental(ctx, userID, locker, tier, duration, domain.RentalStatusPending)
	if err != nil {
		return nil, err
	}

	s.stats.Apply(ctx, domain.StatsDelta{
		RentalsByStatus: map[domain.RentalStatus]int64{domain.RentalStatusPending: 1},
		OccupiedBySize:  map[domain.SizeClass]int64{locker.SizeClass: 1},
	})
	return rt, nil
}

// createRental persists the rental row and binds the locker to it. On any
// failure the claimed unit is handed back so it cannot leak.
func (s *rentalService) createRental(ctx context.Context, userID string, lk *domain.Locker, tier domain.PlanTier, duration domain.DurationClass, status domain.RentalStatus) (*domain.Rental, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rt := &domain.Rental{
		ID:            uuid.New(),
		UserID:        userID,
		LockerID:      lk.ID,
		LocationID:    lk.LocationID,
		SizeClass:     lk.SizeClass,
		PlanTier:      tier,
		DurationClass: duration,
		StartTime:     s.now(),
		Status:        status,
	}

	if err := s.rentalRepo.Create(ctx, rt); err != nil {
		s.releaseQuietly(ctx, lk.ID)
		return nil, err
	}
	if err := s.lockerRepo.BindRental(ctx, lk.ID, rt.ID); err != nil {
		// The row was created but never attached to the unit; close it out
		// so it cannot linger as a live rental over a freed locker.
		now := s.now()
		if cerr := s.rentalRepo.UpdateStatusFrom(ctx, rt.ID, status, domain.RentalStatusCancelled, &now, nil); cerr != nil {
			logger.ErrorContext(ctx, "Rental cancel failed during bind rollback",
				"rental_id", rt.ID, "locker_id", lk.ID, "error", cerr)
		}
		s.releaseQuietly(ctx, lk.ID)
		return nil, err
	}
	return rt, nil
}

// ActivateRental flips a conversion-created rental to ACTIVE at pickup.
func (s *rentalService) ActivateRental(ctx context.Context, userID string, rentalID uuid.UUID) (*domain.Rental, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rt, err := s.authorize(ctx, userID, rentalID)
	if err != nil {
		return nil, err
	}

	if err := s.rentalRepo.UpdateStatusFrom(ctx, rentalID, domain.RentalStatusPending, domain.RentalStatusActive, nil, nil); err != nil {
		return nil, err
	}
	rt.Status = domain.RentalStatusActive

	s.stats.Apply(ctx, domain.StatsDelta{
		RentalsByStatus: map[domain.RentalStatus]int64{
			domain.RentalStatusPending: -1,
			domain.RentalStatusActive:  1,
		},
	})
	return rt, nil
}

// EndRental completes an active rental: the guarded status flip decides the
// winner under concurrent calls, the price is fixed from elapsed time, and
// the locker is released after the flip so a crash between the two steps is
// repaired by the idempotent release, never by a second charge.
func (s *rentalService) EndRental(ctx context.Context, userID string, rentalID uuid.UUID) (*domain.Rental, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rt, err := s.authorize(ctx, userID, rentalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	hours := now.Sub(rt.StartTime).Hours()
	price, err := pricing.Quote(rt.SizeClass, rt.PlanTier, rt.DurationClass, hours)
	if err != nil {
		return nil, fmt.Errorf("price rental %s: %w", rentalID, err)
	}

	if err := s.rentalRepo.UpdateStatusFrom(ctx, rentalID, domain.RentalStatusActive, domain.RentalStatusCompleted, &now, &price); err != nil {
		return nil, err
	}
	rt.Status = domain.RentalStatusCompleted
	rt.EndTime = &now
	rt.TotalPriceCents = &price

	if err := s.inventory.ReleaseLocker(ctx, rt.LockerID); err != nil {
		// The rental is completed; the orphan sweep frees the unit.
		logger.ErrorContext(ctx, "Locker release failed after completion",
			"rental_id", rentalID, "locker_id", rt.LockerID, "error", err)
	}

	s.stats.Apply(ctx, domain.StatsDelta{
		RentalsByStatus: map[domain.RentalStatus]int64{
			domain.RentalStatusActive:    -1,
			domain.RentalStatusCompleted: 1,
		},
		OccupiedBySize: map[domain.SizeClass]int64{rt.SizeClass: -1},
		RevenueCents:   map[string]int64{domain.RevenueKey(rt.PlanTier, rt.SizeClass): price},
	})
	s.publisher.Publish(events.Event{
		Type:       events.RentalCompleted,
		RentalID:   rentalID.String(),
		LockerID:   rt.LockerID,
		LocationID: rt.LocationID,
		UserID:     rt.UserID,
	})
	return rt, nil
}

// CancelRental is valid only from PENDING; the held unit goes back to the
// pool. Refunds are the payment collaborator's concern.
func (s *rentalService) CancelRental(ctx context.Context, userID string, rentalID uuid.UUID) (*domain.Rental, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rt, err := s.authorize(ctx, userID, rentalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.rentalRepo.UpdateStatusFrom(ctx, rentalID, domain.RentalStatusPending, domain.RentalStatusCancelled, &now, nil); err != nil {
		return nil, err
	}
	rt.Status = domain.RentalStatusCancelled
	rt.EndTime = &now

	if err := s.inventory.ReleaseLocker(ctx, rt.LockerID); err != nil {
		logger.ErrorContext(ctx, "Locker release failed after cancellation",
			"rental_id", rentalID, "locker_id", rt.LockerID, "error", err)
	}

	s.stats.Apply(ctx, domain.StatsDelta{
		RentalsByStatus: map[domain.RentalStatus]int64{
			domain.RentalStatusPending:   -1,
			domain.RentalStatusCancelled: 1,
		},
		OccupiedBySize: map[domain.SizeClass]int64{rt.SizeClass: -1},
	})
	return rt, nil
}

func (s *rentalService) GetRental(ctx context.Context, userID string, rentalID uuid.UUID) (*domain.Rental, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.authorize(ctx, userID, rentalID)
}

func (s *rentalService) ListRentals(ctx context.Context, userID string, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.rentalRepo.ListByUser(ctx, userID, status, page, pageSize)
}

func (s *rentalService) authorize(ctx context.Context, userID string, rentalID uuid.UUID) (*domain.Rental, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rt.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return rt, nil
}

func (s *rentalService) releaseQuietly(ctx context.Context, lockerID string) {
	if err := s.inventory.ReleaseLocker(ctx, lockerID); err != nil {
		logger.ErrorContext(ctx, "Locker release failed during rollback", "locker_id", lockerID, "error", err)
	}
}

func validateRentalInputs(userID, locationID string, size domain.SizeClass, tier domain.PlanTier, duration domain.DurationClass) error {
	if userID == "" || locationID == "" {
		return fmt.Errorf("user and location are required: %w", domain.ErrValidation)
	}
	if !size.Valid() {
		return fmt.Errorf("unknown size class %q: %w", size, domain.ErrValidation)
	}
	if !tier.Valid() {
		return fmt.Errorf("unknown plan tier %q: %w", tier, domain.ErrValidation)
	}
	if !duration.Valid() {
		return fmt.Errorf("unknown duration class %q: %w", duration, domain.ErrValidation)
	}
	return nil
}
