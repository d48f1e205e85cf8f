package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/repository"
)

type lockerRepository struct {
	db *sql.DB
}

func NewLockerRepository(db *sql.DB) repository.LockerRepository {
	return &lockerRepository{db: db}
}

const lockerColumns = `id, location_id, size_class, status, current_rental_id, created_on, updated_on`

// Claim flips exactly one AVAILABLE row to OCCUPIED in a single conditional
// update. SKIP LOCKED lets concurrent claimants pick different rows instead
// of queueing on the same one; when every matching row is taken the claim
// fails with ErrNoInventory rather than blocking.
func (r *lockerRepository) Claim(ctx context.Context, locationID string, size domain.SizeClass) (*domain.Locker, error) {
	query := `UPDATE lockers SET status = $1, updated_on = $2
	          WHERE id = (
	              SELECT id FROM lockers
	              WHERE location_id = $3 AND size_class = $4 AND status = $5
	              ORDER BY id
	              LIMIT 1
	              FOR UPDATE SKIP LOCKED
	          )
	          RETURNING ` + lockerColumns

	lk := &domain.Locker{}
	err := r.db.QueryRowContext(ctx, query,
		domain.LockerStatusOccupied, time.Now(), locationID, size, domain.LockerStatusAvailable,
	).Scan(&lk.ID, &lk.LocationID, &lk.SizeClass, &lk.Status, &lk.CurrentRentalID, &lk.CreatedOn, &lk.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoInventory
	}
	if err != nil {
		return nil, wrapStorageErr("claim locker", err)
	}
	return lk, nil
}

func (r *lockerRepository) BindRental(ctx context.Context, lockerID string, rentalID uuid.UUID) error {
	query := `UPDATE lockers SET current_rental_id = $1, updated_on = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, rentalID, time.Now(), lockerID, domain.LockerStatusOccupied)
	if err != nil {
		return wrapStorageErr("bind rental", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("bind rental to locker %s: %w", lockerID, domain.ErrConflict)
	}
	return nil
}

// Release is idempotent: the status guard makes the second and later calls
// no-ops, which crash-recovery paths rely on.
func (r *lockerRepository) Release(ctx context.Context, lockerID string) error {
	query := `UPDATE lockers SET status = $1, current_rental_id = NULL, updated_on = $2
	          WHERE id = $3 AND status = $4`
	_, err := r.db.ExecContext(ctx, query,
		domain.LockerStatusAvailable, time.Now(), lockerID, domain.LockerStatusOccupied)
	if err != nil {
		return wrapStorageErr("release locker", err)
	}
	return nil
}

func (r *lockerRepository) GetByID(ctx context.Context, id string) (*domain.Locker, error) {
	lk := &domain.Locker{}
	query := `SELECT ` + lockerColumns + ` FROM lockers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&lk.ID, &lk.LocationID, &lk.SizeClass, &lk.Status, &lk.CurrentRentalID, &lk.CreatedOn, &lk.UpdatedOn)
	if err != nil {
		return nil, wrapStorageErr("get locker", err)
	}
	return lk, nil
}

func (r *lockerRepository) ListByLocation(ctx context.Context, locationID string) ([]domain.Locker, error) {
	query := `SELECT ` + lockerColumns + ` FROM lockers WHERE location_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, wrapStorageErr("list lockers", err)
	}
	defer rows.Close()

	var lockers []domain.Locker
	for rows.Next() {
		var lk domain.Locker
		if err := rows.Scan(&lk.ID, &lk.LocationID, &lk.SizeClass, &lk.Status, &lk.CurrentRentalID, &lk.CreatedOn, &lk.UpdatedOn); err != nil {
			return nil, wrapStorageErr("scan locker", err)
		}
		lockers = append(lockers, lk)
	}
	return lockers, rows.Err()
}

// SetMaintenance toggles a unit in or out of service. Only AVAILABLE units
// can be pulled, and only MAINTENANCE units restored; an occupied locker
// must be released first.
func (r *lockerRepository) SetMaintenance(ctx context.Context, lockerID string, on bool) error {
	from, to := domain.LockerStatusAvailable, domain.LockerStatusMaintenance
	if !on {
		from, to = domain.LockerStatusMaintenance, domain.LockerStatusAvailable
	}
	query := `UPDATE lockers SET status = $1, updated_on = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), lockerID, from)
	if err != nil {
		return wrapStorageErr("set maintenance", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("locker %s not in %s: %w", lockerID, from, domain.ErrInvalidState)
	}
	return nil
}

func (r *lockerRepository) CountAvailable(ctx context.Context, locationID string, size domain.SizeClass) (int64, error) {
	var count int64
	query := `SELECT count(*) FROM lockers WHERE location_id = $1 AND size_class = $2 AND status = $3`
	err := r.db.QueryRowContext(ctx, query, locationID, size, domain.LockerStatusAvailable).Scan(&count)
	if err != nil {
		return 0, wrapStorageErr("count available", err)
	}
	return count, nil
}

func (r *lockerRepository) CountAvailableAll(ctx context.Context) ([]domain.AvailableCount, error) {
	query := `SELECT location_id, size_class, count(*) FROM lockers
	          WHERE status = $1 GROUP BY location_id, size_class`
	rows, err := r.db.QueryContext(ctx, query, domain.LockerStatusAvailable)
	if err != nil {
		return nil, wrapStorageErr("count available all", err)
	}
	defer rows.Close()

	var counts []domain.AvailableCount
	for rows.Next() {
		var c domain.AvailableCount
		if err := rows.Scan(&c.LocationID, &c.SizeClass, &c.Count); err != nil {
			return nil, wrapStorageErr("scan available count", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *lockerRepository) CountByStatus(ctx context.Context) (map[domain.LockerStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, count(*) FROM lockers GROUP BY status`)
	if err != nil {
		return nil, wrapStorageErr("count lockers by status", err)
	}
	defer rows.Close()

	counts := make(map[domain.LockerStatus]int64)
	for rows.Next() {
		var status domain.LockerStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, wrapStorageErr("scan status count", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *lockerRepository) CountOccupiedBySize(ctx context.Context) (map[domain.SizeClass]int64, error) {
	query := `SELECT size_class, count(*) FROM lockers WHERE status = $1 GROUP BY size_class`
	rows, err := r.db.QueryContext(ctx, query, domain.LockerStatusOccupied)
	if err != nil {
		return nil, wrapStorageErr("count occupied by size", err)
	}
	defer rows.Close()

	counts := make(map[domain.SizeClass]int64)
	for rows.Next() {
		var size domain.SizeClass
		var count int64
		if err := rows.Scan(&size, &count); err != nil {
			return nil, wrapStorageErr("scan size count", err)
		}
		counts[size] = count
	}
	return counts, rows.Err()
}

// A locker claimed but never bound to a rental stays OCCUPIED with a NULL
// current_rental_id. The grace period keeps the sweep from racing an
// in-flight claim that has not bound yet.
const orphanGrace = 15 * time.Minute

// ReleaseOrphans repairs partial writes left by crashes: lockers still
// OCCUPIED after their rental reached a terminal state, and lockers claimed
// but never bound to any rental.
func (r *lockerRepository) ReleaseOrphans(ctx context.Context) (int64, error) {
	now := time.Now()
	query := `UPDATE lockers SET status = $1, current_rental_id = NULL, updated_on = $2
	          WHERE status = $3 AND (
	              current_rental_id IN (
	                  SELECT id FROM rentals WHERE status IN ($4, $5)
	              )
	              OR (current_rental_id IS NULL AND updated_on < $6)
	          )`
	result, err := r.db.ExecContext(ctx, query,
		domain.LockerStatusAvailable, now, domain.LockerStatusOccupied,
		domain.RentalStatusCompleted, domain.RentalStatusCancelled, now.Add(-orphanGrace))
	if err != nil {
		return 0, wrapStorageErr("release orphans", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
