package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"lockerhub-backend/internal/cache"
	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/events"
	"lockerhub-backend/internal/logger"
	"lockerhub-backend/internal/repository"
)

type reservationService struct {
	resRepo      repository.ReservationRepository
	locationRepo repository.LocationRepository
	inventory    InventoryService
	rentals      RentalService
	capacity     CapacityCounter
	publisher    EventPublisher
	timeout      time.Duration
	now          func() time.Time
}

func NewReservationService(
	resRepo repository.ReservationRepository,
	locationRepo repository.LocationRepository,
	inventory InventoryService,
	rentals RentalService,
	capacity CapacityCounter,
	publisher EventPublisher,
	timeout time.Duration,
) ReservationService {
	return &reservationService{
		resRepo:      resRepo,
		locationRepo: locationRepo,
		inventory:    inventory,
		rentals:      rentals,
		capacity:     capacity,
		publisher:    publisher,
		timeout:      timeout,
		now:          time.Now,
	}
}

// CreateReservation admits one unit of capacity per requested date. Dates
// already admitted are handed back when a later date is full, so a failed
// request holds nothing.
func (s *reservationService) CreateReservation(ctx context.Context, userID, locationID string, size domain.SizeClass, dates []string) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if userID == "" || locationID == "" {
		return nil, fmt.Errorf("user and location are required: %w", domain.ErrValidation)
	}
	if !size.Valid() {
		return nil, fmt.Errorf("unknown size class %q: %w", size, domain.ErrValidation)
	}
	normalized, err := normalizeDates(dates, s.now().Format(domain.DateLayout))
	if err != nil {
		return nil, err
	}

	var admitted []string
	for _, date := range normalized {
		ok, err := s.admitDate(ctx, locationID, size, date)
		if err != nil || !ok {
			s.releaseDates(ctx, locationID, size, admitted)
			if err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("no capacity at %s/%s on %s: %w", locationID, size, date, domain.ErrCapacityExceeded)
		}
		admitted = append(admitted, date)
	}

	res := &domain.Reservation{
		ID:         uuid.New(),
		UserID:     userID,
		LocationID: locationID,
		SizeClass:  size,
		Dates:      normalized,
		Status:     domain.ReservationStatusPending,
	}
	if err := s.resRepo.Create(ctx, res); err != nil {
		s.releaseDates(ctx, locationID, size, admitted)
		return nil, err
	}
	return res, nil
}

// admitDate runs the atomic check-and-decrement against the capacity
// counter, seeding it from provisioned capacity minus currently held
// reservations on first use. If the counter store is unreachable the
// admission falls back to a direct count, trading atomicity for
// availability until the cache returns.
func (s *reservationService) admitDate(ctx context.Context, locationID string, size domain.SizeClass, date string) (bool, error) {
	ok, err := s.capacity.Reserve(ctx, locationID, size, date)
	if err == nil {
		return ok, nil
	}
	if errors.Is(err, cache.ErrMiss) {
		provisioned, cerr := s.locationRepo.GetCapacity(ctx, locationID, size)
		if cerr != nil {
			return false, cerr
		}
		held, cerr := s.resRepo.CountHeldForDate(ctx, locationID, size, date)
		if cerr != nil {
			return false, cerr
		}
		if serr := s.capacity.Seed(ctx, locationID, size, date, int64(provisioned)-int64(held)); serr != nil {
			logger.Warn("Capacity seed failed", "location_id", locationID, "size", size, "date", date, "error", serr)
			return held < provisioned, nil
		}
		return s.capacity.Reserve(ctx, locationID, size, date)
	}

	logger.Warn("Capacity counter unavailable, using direct count", "error", err)
	provisioned, cerr := s.locationRepo.GetCapacity(ctx, locationID, size)
	if cerr != nil {
		return false, cerr
	}
	held, cerr := s.resRepo.CountHeldForDate(ctx, locationID, size, date)
	if cerr != nil {
		return false, cerr
	}
	return held < provisioned, nil
}

func (s *reservationService) releaseDates(ctx context.Context, locationID string, size domain.SizeClass, dates []string) {
	for _, date := range dates {
		if err := s.capacity.Release(ctx, locationID, size, date); err != nil {
			logger.Warn("Capacity release failed", "location_id", locationID, "size", size, "date", date, "error", err)
		}
	}
}

// ConfirmReservation marks payment completion for the hold.
func (s *reservationService) ConfirmReservation(ctx context.Context, userID string, reservationID uuid.UUID) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.authorize(ctx, userID, reservationID)
	if err != nil {
		return nil, err
	}

	if err := s.resRepo.UpdateStatusFrom(ctx, reservationID, domain.ReservationStatusPending, domain.ReservationStatusConfirmed, nil); err != nil {
		return nil, err
	}
	res.Status = domain.ReservationStatusConfirmed

	s.publisher.Publish(events.Event{
		Type:          events.ReservationConfirmed,
		ReservationID: reservationID.String(),
		LocationID:    res.LocationID,
		UserID:        res.UserID,
	})
	return res, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, userID string, reservationID uuid.UUID) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.authorize(ctx, userID, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != domain.ReservationStatusPending && res.Status != domain.ReservationStatusConfirmed {
		return nil, fmt.Errorf("reservation %s is %s: %w", reservationID, res.Status, domain.ErrInvalidState)
	}

	if err := s.resRepo.UpdateStatusFrom(ctx, reservationID, res.Status, domain.ReservationStatusCancelled, nil); err != nil {
		return nil, err
	}
	res.Status = domain.ReservationStatusCancelled

	s.releaseDates(ctx, res.LocationID, res.SizeClass, res.Dates)
	return res, nil
}

// ConvertToRental binds a concrete unit on arrival. Capacity holds and unit
// claims are different resources: the claim can still fail with NoInventory
// when provisioning changed after booking, in which case the reservation
// stays CONFIRMED and the failure is surfaced.
func (s *reservationService) ConvertToRental(ctx context.Context, userID string, reservationID uuid.UUID, tier domain.PlanTier, duration domain.DurationClass) (*domain.Rental, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if !tier.Valid() || !duration.Valid() {
		return nil, fmt.Errorf("unknown plan %q/%q: %w", tier, duration, domain.ErrValidation)
	}

	res, err := s.authorize(ctx, userID, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != domain.ReservationStatusConfirmed {
		return nil, fmt.Errorf("reservation %s is %s, not confirmed: %w", reservationID, res.Status, domain.ErrInvalidState)
	}
	today := s.now().Format(domain.DateLayout)
	if !res.HasDate(today) {
		return nil, fmt.Errorf("reservation %s has no hold for %s: %w", reservationID, today, domain.ErrInvalidState)
	}

	lk, err := s.inventory.ClaimLocker(ctx, res.LocationID, res.SizeClass)
	if err != nil {
		return nil, err
	}

	rt, err := s.rentals.CreateFromReservation(ctx, userID, lk, tier, duration)
	if err != nil {
		return nil, err
	}

	if err := s.resRepo.UpdateStatusFrom(ctx, reservationID, domain.ReservationStatusConfirmed, domain.ReservationStatusConverted, &rt.ID); err != nil {
		// A concurrent convert won; undo this side's claim and rental.
		if _, cerr := s.rentals.CancelRental(ctx, userID, rt.ID); cerr != nil {
			logger.ErrorContext(ctx, "Rental rollback failed after conversion race",
				"reservation_id", reservationID, "rental_id", rt.ID, "error", cerr)
		}
		return nil, err
	}

	s.releaseDates(ctx, res.LocationID, res.SizeClass, res.Dates)
	return rt, nil
}

func (s *reservationService) GetReservation(ctx context.Context, userID string, reservationID uuid.UUID) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.authorize(ctx, userID, reservationID)
}

func (s *reservationService) ListReservations(ctx context.Context, userID string, status string, page, pageSize int32) ([]domain.Reservation, int32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.resRepo.ListByUser(ctx, userID, status, page, pageSize)
}

// ExpireStale cancels holds whose last requested date has passed without
// conversion, returning their capacity to the pool.
func (s *reservationService) ExpireStale(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	today := s.now().Format(domain.DateLayout)
	stale, err := s.resRepo.ListExpirable(ctx, today)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, res := range stale {
		if err := s.resRepo.UpdateStatusFrom(ctx, res.ID, res.Status, domain.ReservationStatusExpired, nil); err != nil {
			// Lost a race with a cancel or convert; skip it.
			logger.Warn("Reservation expiry skipped", "reservation_id", res.ID, "error", err)
			continue
		}
		expired++

		// The counters for dates that already passed can never admit
		// again; discard them instead of handing capacity back.
		for _, date := range res.Dates {
			if date >= today {
				continue
			}
			if err := s.capacity.Drop(ctx, res.LocationID, res.SizeClass, date); err != nil {
				logger.Warn("Capacity counter drop failed", "location_id", res.LocationID, "size", res.SizeClass, "date", date, "error", err)
			}
		}
	}
	return expired, nil
}

func (s *reservationService) authorize(ctx context.Context, userID string, reservationID uuid.UUID) (*domain.Reservation, error) {
	res, err := s.resRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return res, nil
}

// normalizeDates validates, dedupes and sorts the requested dates, and
// rejects dates in the past.
func normalizeDates(dates []string, today string) ([]string, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("at least one date is required: %w", domain.ErrValidation)
	}
	seen := make(map[string]bool, len(dates))
	var normalized []string
	for _, d := range dates {
		parsed, err := time.Parse(domain.DateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", d, domain.ErrValidation)
		}
		canonical := parsed.Format(domain.DateLayout)
		if canonical < today {
			return nil, fmt.Errorf("date %s is in the past: %w", canonical, domain.ErrValidation)
		}
		if !seen[canonical] {
			seen[canonical] = true
			normalized = append(normalized, canonical)
		}
	}
	sort.Strings(normalized)
	return normalized, nil
}
