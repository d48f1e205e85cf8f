package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lockerhub-backend/internal/cache"
	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/events"
)

var errCacheMiss = cache.ErrMiss

// In-memory repository fakes. They keep real state behind a mutex so the
// concurrency tests exercise the same guarded-transition semantics the
// SQL implementations provide.

type fakeLockerRepo struct {
	mu       sync.Mutex
	lockers  map[string]*domain.Locker
	failBind bool
}

func newFakeLockerRepo() *fakeLockerRepo {
	return &fakeLockerRepo{lockers: make(map[string]*domain.Locker)}
}

func (f *fakeLockerRepo) add(id, locationID string, size domain.SizeClass) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockers[id] = &domain.Locker{
		ID:         id,
		LocationID: locationID,
		SizeClass:  size,
		Status:     domain.LockerStatusAvailable,
	}
}

func (f *fakeLockerRepo) Claim(ctx context.Context, locationID string, size domain.SizeClass) (*domain.Locker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.lockers))
	for id := range f.lockers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		lk := f.lockers[id]
		if lk.LocationID == locationID && lk.SizeClass == size && lk.Status == domain.LockerStatusAvailable {
			lk.Status = domain.LockerStatusOccupied
			copied := *lk
			return &copied, nil
		}
	}
	return nil, domain.ErrNoInventory
}

func (f *fakeLockerRepo) BindRental(ctx context.Context, lockerID string, rentalID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBind {
		return domain.ErrConflict
	}
	lk, ok := f.lockers[lockerID]
	if !ok || lk.Status != domain.LockerStatusOccupied {
		return domain.ErrConflict
	}
	lk.CurrentRentalID = &rentalID
	return nil
}

func (f *fakeLockerRepo) Release(ctx context.Context, lockerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lk, ok := f.lockers[lockerID]
	if !ok {
		return domain.ErrNotFound
	}
	if lk.Status == domain.LockerStatusOccupied {
		lk.Status = domain.LockerStatusAvailable
		lk.CurrentRentalID = nil
	}
	return nil
}

func (f *fakeLockerRepo) GetByID(ctx context.Context, id string) (*domain.Locker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lk, ok := f.lockers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *lk
	return &copied, nil
}

func (f *fakeLockerRepo) ListByLocation(ctx context.Context, locationID string) ([]domain.Locker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Locker
	for _, lk := range f.lockers {
		if lk.LocationID == locationID {
			out = append(out, *lk)
		}
	}
	return out, nil
}

func (f *fakeLockerRepo) SetMaintenance(ctx context.Context, lockerID string, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lk, ok := f.lockers[lockerID]
	if !ok {
		return domain.ErrNotFound
	}
	if on {
		if lk.Status != domain.LockerStatusAvailable {
			return domain.ErrInvalidState
		}
		lk.Status = domain.LockerStatusMaintenance
		return nil
	}
	if lk.Status != domain.LockerStatusMaintenance {
		return domain.ErrInvalidState
	}
	lk.Status = domain.LockerStatusAvailable
	return nil
}

func (f *fakeLockerRepo) CountAvailable(ctx context.Context, locationID string, size domain.SizeClass) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, lk := range f.lockers {
		if lk.LocationID == locationID && lk.SizeClass == size && lk.Status == domain.LockerStatusAvailable {
			count++
		}
	}
	return count, nil
}

func (f *fakeLockerRepo) CountAvailableAll(ctx context.Context) ([]domain.AvailableCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byKey := make(map[string]*domain.AvailableCount)
	for _, lk := range f.lockers {
		if lk.Status != domain.LockerStatusAvailable {
			continue
		}
		key := lk.LocationID + "/" + string(lk.SizeClass)
		if byKey[key] == nil {
			byKey[key] = &domain.AvailableCount{LocationID: lk.LocationID, SizeClass: lk.SizeClass}
		}
		byKey[key].Count++
	}
	var out []domain.AvailableCount
	for _, c := range byKey {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeLockerRepo) CountByStatus(ctx context.Context) (map[domain.LockerStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.LockerStatus]int64)
	for _, lk := range f.lockers {
		counts[lk.Status]++
	}
	return counts, nil
}

func (f *fakeLockerRepo) CountOccupiedBySize(ctx context.Context) (map[domain.SizeClass]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.SizeClass]int64)
	for _, lk := range f.lockers {
		if lk.Status == domain.LockerStatusOccupied {
			counts[lk.SizeClass]++
		}
	}
	return counts, nil
}

func (f *fakeLockerRepo) ReleaseOrphans(ctx context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeLockerRepo) status(id string) domain.LockerStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lockers[id].Status
}

type fakeRentalRepo struct {
	mu      sync.Mutex
	rentals map[uuid.UUID]*domain.Rental
}

func newFakeRentalRepo() *fakeRentalRepo {
	return &fakeRentalRepo{rentals: make(map[uuid.UUID]*domain.Rental)}
}

func (f *fakeRentalRepo) Create(ctx context.Context, rt *domain.Rental) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *rt
	f.rentals[rt.ID] = &copied
	return nil
}

func (f *fakeRentalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.rentals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *rt
	return &copied, nil
}

func (f *fakeRentalRepo) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to domain.RentalStatus, endTime *time.Time, totalPriceCents *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.rentals[id]
	if !ok {
		return domain.ErrNotFound
	}
	if rt.Status != from {
		return fmt.Errorf("rental %s is %s, expected %s: %w", id, rt.Status, from, domain.ErrInvalidState)
	}
	rt.Status = to
	if endTime != nil {
		rt.EndTime = endTime
	}
	if totalPriceCents != nil {
		rt.TotalPriceCents = totalPriceCents
	}
	return nil
}

func (f *fakeRentalRepo) ListByUser(ctx context.Context, userID string, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Rental
	for _, rt := range f.rentals {
		if rt.UserID != userID {
			continue
		}
		if status != "" && string(rt.Status) != status {
			continue
		}
		out = append(out, *rt)
	}
	return out, int32(len(out)), nil
}

func (f *fakeRentalRepo) CountByStatus(ctx context.Context) (map[domain.RentalStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.RentalStatus]int64)
	for _, rt := range f.rentals {
		counts[rt.Status]++
	}
	return counts, nil
}

func (f *fakeRentalRepo) RevenueByPlan(ctx context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	revenue := make(map[string]int64)
	for _, rt := range f.rentals {
		if rt.Status == domain.RentalStatusCompleted && rt.TotalPriceCents != nil {
			revenue[domain.RevenueKey(rt.PlanTier, rt.SizeClass)] += *rt.TotalPriceCents
		}
	}
	return revenue, nil
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*domain.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[uuid.UUID]*domain.Reservation)}
}

func (f *fakeReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *res
	f.reservations[res.ID] = &copied
	return nil
}

func (f *fakeReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *res
	return &copied, nil
}

func (f *fakeReservationRepo) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to domain.ReservationStatus, convertedRental *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return domain.ErrNotFound
	}
	if res.Status != from {
		return fmt.Errorf("reservation %s is %s, expected %s: %w", id, res.Status, from, domain.ErrInvalidState)
	}
	res.Status = to
	if convertedRental != nil {
		res.ConvertedRental = convertedRental
	}
	return nil
}

func (f *fakeReservationRepo) ListByUser(ctx context.Context, userID string, status string, page, pageSize int32) ([]domain.Reservation, int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.UserID != userID {
			continue
		}
		if status != "" && string(res.Status) != status {
			continue
		}
		out = append(out, *res)
	}
	return out, int32(len(out)), nil
}

func (f *fakeReservationRepo) CountHeldForDate(ctx context.Context, locationID string, size domain.SizeClass, date string) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int32
	for _, res := range f.reservations {
		if res.LocationID != locationID || res.SizeClass != size {
			continue
		}
		if res.Status != domain.ReservationStatusPending && res.Status != domain.ReservationStatusConfirmed {
			continue
		}
		if res.HasDate(date) {
			count++
		}
	}
	return count, nil
}

func (f *fakeReservationRepo) ListExpirable(ctx context.Context, before string) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.Status != domain.ReservationStatusPending && res.Status != domain.ReservationStatusConfirmed {
			continue
		}
		if res.LastDate() < before {
			out = append(out, *res)
		}
	}
	return out, nil
}

type fakeLocationRepo struct {
	locations  map[string]*domain.Location
	capacities map[string]int32
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{
		locations:  make(map[string]*domain.Location),
		capacities: make(map[string]int32),
	}
}

func (f *fakeLocationRepo) addLocation(id, name string) {
	f.locations[id] = &domain.Location{ID: id, Name: name}
}

func (f *fakeLocationRepo) setCapacity(locationID string, size domain.SizeClass, provisioned int32) {
	f.capacities[locationID+"/"+string(size)] = provisioned
}

func (f *fakeLocationRepo) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	loc, ok := f.locations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return loc, nil
}

func (f *fakeLocationRepo) List(ctx context.Context) ([]domain.Location, error) {
	var out []domain.Location
	for _, loc := range f.locations {
		out = append(out, *loc)
	}
	return out, nil
}

func (f *fakeLocationRepo) GetCapacity(ctx context.Context, locationID string, size domain.SizeClass) (int32, error) {
	return f.capacities[locationID+"/"+string(size)], nil
}

func (f *fakeLocationRepo) ListCapacities(ctx context.Context, locationID string) ([]domain.LocationCapacity, error) {
	return nil, nil
}

// fakeAvailability is an in-memory stand-in for the Redis availability
// counters. failGet simulates an unreachable cache.
type fakeAvailability struct {
	mu      sync.Mutex
	counts  map[string]int64
	seeded  map[string]bool
	failGet bool
}

func newFakeAvailability() *fakeAvailability {
	return &fakeAvailability{counts: make(map[string]int64), seeded: make(map[string]bool)}
}

func (f *fakeAvailability) key(locationID string, size domain.SizeClass) string {
	return locationID + "/" + string(size)
}

func (f *fakeAvailability) Get(ctx context.Context, locationID string, size domain.SizeClass) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return 0, fmt.Errorf("counter store unreachable")
	}
	if !f.seeded[f.key(locationID, size)] {
		return 0, errCacheMiss
	}
	return f.counts[f.key(locationID, size)], nil
}

func (f *fakeAvailability) Set(ctx context.Context, locationID string, size domain.SizeClass, count int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[f.key(locationID, size)] = count
	f.seeded[f.key(locationID, size)] = true
	return nil
}

func (f *fakeAvailability) Decrement(ctx context.Context, locationID string, size domain.SizeClass) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[f.key(locationID, size)]--
	return nil
}

func (f *fakeAvailability) Increment(ctx context.Context, locationID string, size domain.SizeClass) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[f.key(locationID, size)]++
	return nil
}

// fakeCapacity mirrors the Lua check-and-decrement semantics. fail
// simulates the counter store being unreachable.
type fakeCapacity struct {
	mu        sync.Mutex
	remaining map[string]int64
	seeded    map[string]bool
	fail      bool
}

func newFakeCapacity() *fakeCapacity {
	return &fakeCapacity{remaining: make(map[string]int64), seeded: make(map[string]bool)}
}

func (f *fakeCapacity) key(locationID string, size domain.SizeClass, date string) string {
	return locationID + "/" + string(size) + "/" + date
}

func (f *fakeCapacity) Reserve(ctx context.Context, locationID string, size domain.SizeClass, date string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false, fmt.Errorf("counter store unreachable")
	}
	key := f.key(locationID, size, date)
	if !f.seeded[key] {
		return false, errCacheMiss
	}
	if f.remaining[key] >= 1 {
		f.remaining[key]--
		return true, nil
	}
	return false, nil
}

func (f *fakeCapacity) Release(ctx context.Context, locationID string, size domain.SizeClass, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := f.key(locationID, size, date)
	if f.seeded[key] {
		f.remaining[key]++
	}
	return nil
}

func (f *fakeCapacity) Seed(ctx context.Context, locationID string, size domain.SizeClass, date string, remaining int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("counter store unreachable")
	}
	key := f.key(locationID, size, date)
	if f.seeded[key] {
		return nil
	}
	if remaining < 0 {
		remaining = 0
	}
	f.remaining[key] = remaining
	f.seeded[key] = true
	return nil
}

func (f *fakeCapacity) Drop(ctx context.Context, locationID string, size domain.SizeClass, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := f.key(locationID, size, date)
	delete(f.remaining, key)
	delete(f.seeded, key)
	return nil
}

func (f *fakeCapacity) left(locationID string, size domain.SizeClass, date string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining[f.key(locationID, size, date)]
}

// fakeStatsSink records deltas and replacements; failApply simulates a
// counter store outage during increments.
type fakeStatsSink struct {
	mu        sync.Mutex
	deltas    []domain.StatsDelta
	replaced  *domain.SystemStatistics
	failApply bool
}

func (f *fakeStatsSink) Apply(ctx context.Context, delta domain.StatsDelta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failApply {
		return fmt.Errorf("counter store unreachable")
	}
	f.deltas = append(f.deltas, delta)
	return nil
}

func (f *fakeStatsSink) Snapshot(ctx context.Context) (*domain.SystemStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaced == nil {
		return &domain.SystemStatistics{}, nil
	}
	return f.replaced, nil
}

func (f *fakeStatsSink) Replace(ctx context.Context, stats *domain.SystemStatistics, rebuiltAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced = stats
	return nil
}

// nopPublisher satisfies EventPublisher for tests that do not care about
// the event stream.
type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingPublisher) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.EventType
	for _, evt := range r.events {
		out = append(out, evt.Type)
	}
	return out
}
