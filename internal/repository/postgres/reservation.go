package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/repository"
)

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

// Dates are stored denormalized as a text array; every query that filters
// on a single date uses the ANY(dates) containment form.
const reservationColumns = `id, user_id, location_id, size_class, dates, status, converted_rental_id, created_on, updated_on`

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	sort.Strings(res.Dates)
	query := `INSERT INTO reservations (id, user_id, location_id, size_class, dates, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.UserID, res.LocationID, res.SizeClass, pq.Array(res.Dates), res.Status, now, now)
	if err != nil {
		return wrapStorageErr("create reservation", err)
	}
	res.CreatedOn = now
	res.UpdatedOn = now
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.UserID, &res.LocationID, &res.SizeClass, pq.Array(&res.Dates),
		&res.Status, &res.ConvertedRental, &res.CreatedOn, &res.UpdatedOn)
	if err != nil {
		return nil, wrapStorageErr("get reservation", err)
	}
	return res, nil
}

// UpdateStatusFrom mirrors the rental guard: rows == 0 means the
// reservation was not in the expected state.
func (r *reservationRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to domain.ReservationStatus, convertedRental *uuid.UUID) error {
	query := `UPDATE reservations SET status = $1,
	              converted_rental_id = COALESCE($2, converted_rental_id),
	              updated_on = $3
	          WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, to, convertedRental, time.Now(), id, from)
	if err != nil {
		return wrapStorageErr("update reservation status", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("reservation %s is not %s: %w", id, from, domain.ErrInvalidState)
	}
	return nil
}

func (r *reservationRepository) ListByUser(ctx context.Context, userID string, status string, page, pageSize int32) ([]domain.Reservation, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1`

	args := []interface{}{userID}
	argIdx := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, wrapStorageErr("count reservations", err)
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapStorageErr("list reservations", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID, &res.UserID, &res.LocationID, &res.SizeClass, pq.Array(&res.Dates),
			&res.Status, &res.ConvertedRental, &res.CreatedOn, &res.UpdatedOn); err != nil {
			return nil, 0, wrapStorageErr("scan reservation", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, count, rows.Err()
}

func (r *reservationRepository) CountHeldForDate(ctx context.Context, locationID string, size domain.SizeClass, date string) (int32, error) {
	var count int32
	query := `SELECT count(*) FROM reservations
	          WHERE location_id = $1 AND size_class = $2 AND status IN ($3, $4) AND $5 = ANY(dates)`
	err := r.db.QueryRowContext(ctx, query, locationID, size,
		domain.ReservationStatusPending, domain.ReservationStatusConfirmed, date).Scan(&count)
	if err != nil {
		return 0, wrapStorageErr("count held reservations", err)
	}
	return count, nil
}

func (r *reservationRepository) ListExpirable(ctx context.Context, before string) ([]domain.Reservation, error) {
	// dates is kept sorted on insert, so the last element is the latest.
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE status IN ($1, $2) AND dates[array_length(dates, 1)] < $3`
	rows, err := r.db.QueryContext(ctx, query,
		domain.ReservationStatusPending, domain.ReservationStatusConfirmed, before)
	if err != nil {
		return nil, wrapStorageErr("list expirable reservations", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID, &res.UserID, &res.LocationID, &res.SizeClass, pq.Array(&res.Dates),
			&res.Status, &res.ConvertedRental, &res.CreatedOn, &res.UpdatedOn); err != nil {
			return nil, wrapStorageErr("scan expirable reservation", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}
