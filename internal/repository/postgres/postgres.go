package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/repository"
)

// Store bundles all repository implementations over one connection pool.
type Store struct {
	LockerRepository      repository.LockerRepository
	LocationRepository    repository.LocationRepository
	RentalRepository      repository.RentalRepository
	ReservationRepository repository.ReservationRepository
}

// NewStore creates all repositories backed by the given database
func NewStore(db *sql.DB) *Store {
	return &Store{
		LockerRepository:      NewLockerRepository(db),
		LocationRepository:    NewLocationRepository(db),
		RentalRepository:      NewRentalRepository(db),
		ReservationRepository: NewReservationRepository(db),
	}
}

// wrapStorageErr maps driver-level failures onto the domain taxonomy.
// Deadline overruns become domain.ErrTimeout so callers can retry with
// backoff instead of hanging.
func wrapStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, domain.ErrTimeout)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
