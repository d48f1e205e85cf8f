package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lockerhub-backend/internal/cache"
	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/events"
	"lockerhub-backend/internal/logger"
	"lockerhub-backend/internal/repository"
)

type inventoryService struct {
	lockerRepo repository.LockerRepository
	avail      AvailabilityCounter
	publisher  EventPublisher
	timeout    time.Duration
	retries    int
}

func NewInventoryService(
	lockerRepo repository.LockerRepository,
	avail AvailabilityCounter,
	publisher EventPublisher,
	timeout time.Duration,
	retries int,
) InventoryService {
	return &inventoryService{
		lockerRepo: lockerRepo,
		avail:      avail,
		publisher:  publisher,
		timeout:    timeout,
		retries:    retries,
	}
}

// ClaimLocker atomically takes one free unit. A lost conditional update is
// retried once against the re-read state and then reported as NoInventory;
// callers pick another size or location rather than waiting on a unit.
func (s *inventoryService) ClaimLocker(ctx context.Context, locationID string, size domain.SizeClass) (*domain.Locker, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var lk *domain.Locker
	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		lk, err = s.lockerRepo.Claim(ctx, locationID, size)
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if errors.Is(err, domain.ErrConflict) {
		return nil, fmt.Errorf("claim lost race at %s/%s: %w", locationID, size, domain.ErrNoInventory)
	}
	if err != nil {
		return nil, err
	}

	if cerr := s.avail.Decrement(ctx, locationID, size); cerr != nil {
		logger.Warn("Availability decrement failed", "location_id", locationID, "size", size, "error", cerr)
	}
	s.publisher.Publish(events.Event{
		Type:       events.LockerClaimed,
		LockerID:   lk.ID,
		LocationID: lk.LocationID,
	})
	return lk, nil
}

// ReleaseLocker is idempotent: releasing an already-available locker is a
// no-op, because crash recovery may replay the release.
func (s *inventoryService) ReleaseLocker(ctx context.Context, lockerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lk, err := s.lockerRepo.GetByID(ctx, lockerID)
	if err != nil {
		return err
	}
	if lk.Status != domain.LockerStatusOccupied {
		return nil
	}

	if err := s.lockerRepo.Release(ctx, lockerID); err != nil {
		return err
	}

	if cerr := s.avail.Increment(ctx, lk.LocationID, lk.SizeClass); cerr != nil {
		logger.Warn("Availability increment failed", "location_id", lk.LocationID, "size", lk.SizeClass, "error", cerr)
	}
	s.publisher.Publish(events.Event{
		Type:       events.LockerReleased,
		LockerID:   lk.ID,
		LocationID: lk.LocationID,
	})
	return nil
}

// SetMaintenance toggles a unit in or out of service and keeps the cached
// availability count in step.
func (s *inventoryService) SetMaintenance(ctx context.Context, lockerID string, on bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lk, err := s.lockerRepo.GetByID(ctx, lockerID)
	if err != nil {
		return err
	}
	if err := s.lockerRepo.SetMaintenance(ctx, lockerID, on); err != nil {
		return err
	}

	if on {
		err = s.avail.Decrement(ctx, lk.LocationID, lk.SizeClass)
	} else {
		err = s.avail.Increment(ctx, lk.LocationID, lk.SizeClass)
	}
	if err != nil {
		logger.Warn("Availability adjust failed after maintenance toggle",
			"locker_id", lockerID, "error", err)
	}
	return nil
}

// AvailableCount serves the cached count, falling back to a live count on
// miss and reseeding the cache best-effort.
func (s *inventoryService) AvailableCount(ctx context.Context, locationID string, size domain.SizeClass) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.avail.Get(ctx, locationID, size)
	if err == nil {
		if count < 0 {
			// Drifted below zero; report the floor until reconcile resets it.
			count = 0
		}
		return count, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Warn("Availability cache read failed", "location_id", locationID, "size", size, "error", err)
	}

	count, err = s.lockerRepo.CountAvailable(ctx, locationID, size)
	if err != nil {
		return 0, err
	}
	if cerr := s.avail.Set(ctx, locationID, size, count); cerr != nil {
		logger.Warn("Availability cache seed failed", "location_id", locationID, "size", size, "error", cerr)
	}
	return count, nil
}

func (s *inventoryService) AvailableCounts(ctx context.Context, locationID string) (map[domain.SizeClass]int64, error) {
	counts := make(map[domain.SizeClass]int64, len(domain.SizeClasses))
	for _, size := range domain.SizeClasses {
		count, err := s.AvailableCount(ctx, locationID, size)
		if err != nil {
			return nil, err
		}
		counts[size] = count
	}
	return counts, nil
}
