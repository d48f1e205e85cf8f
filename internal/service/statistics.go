package service

import (
	"context"
	"time"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/logger"
	"lockerhub-backend/internal/repository"
)

type statisticsService struct {
	lockerRepo   repository.LockerRepository
	rentalRepo   repository.RentalRepository
	locationRepo repository.LocationRepository
	sink         StatsSink
	avail        AvailabilityCounter
	timeout      time.Duration
	now          func() time.Time
}

func NewStatisticsService(
	lockerRepo repository.LockerRepository,
	rentalRepo repository.RentalRepository,
	locationRepo repository.LocationRepository,
	sink StatsSink,
	avail AvailabilityCounter,
	timeout time.Duration,
) StatisticsService {
	return &statisticsService{
		lockerRepo:   lockerRepo,
		rentalRepo:   rentalRepo,
		locationRepo: locationRepo,
		sink:         sink,
		avail:        avail,
		timeout:      timeout,
		now:          time.Now,
	}
}

// Apply records a counter delta. Failures are logged and swallowed: the
// counters are reconstructible, and a statistics problem must never turn a
// successful lifecycle transition into a user-visible failure.
func (s *statisticsService) Apply(ctx context.Context, delta domain.StatsDelta) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.sink.Apply(ctx, delta); err != nil {
		logger.WarnContext(ctx, "Statistics delta dropped, rebuild will repair", "error", err)
	}
}

func (s *statisticsService) Snapshot(ctx context.Context) (*domain.SystemStatistics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.sink.Snapshot(ctx)
}

// Rebuild recomputes every counter from the locker and rental tables and
// replaces the cached values wholesale.
func (s *statisticsService) Rebuild(ctx context.Context) (*domain.SystemStatistics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lockersByStatus, err := s.lockerRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	occupiedBySize, err := s.lockerRepo.CountOccupiedBySize(ctx)
	if err != nil {
		return nil, err
	}
	rentalsByStatus, err := s.rentalRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.rentalRepo.RevenueByPlan(ctx)
	if err != nil {
		return nil, err
	}

	rebuiltAt := s.now()
	stats := &domain.SystemStatistics{
		LockersByStatus: lockersByStatus,
		OccupiedBySize:  occupiedBySize,
		RentalsByStatus: rentalsByStatus,
		RevenueCents:    revenue,
		RebuiltAt:       &rebuiltAt,
	}
	if err := s.sink.Replace(ctx, stats, rebuiltAt); err != nil {
		return nil, err
	}
	return stats, nil
}

// ReconcileAvailability overwrites every per-(location, size) counter with
// a fresh census, resetting any drift from lost increments.
func (s *statisticsService) ReconcileAvailability(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	counts, err := s.lockerRepo.CountAvailableAll(ctx)
	if err != nil {
		return err
	}
	byKey := make(map[string]int64, len(counts))
	for _, c := range counts {
		byKey[c.LocationID+"/"+string(c.SizeClass)] = c.Count
	}

	locations, err := s.locationRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, loc := range locations {
		for _, size := range domain.SizeClasses {
			count := byKey[loc.ID+"/"+string(size)]
			if err := s.avail.Set(ctx, loc.ID, size, count); err != nil {
				return err
			}
		}
	}
	return nil
}
