package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/repository"
)

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `id, user_id, locker_id, location_id, size_class, plan_tier, duration_class,
	start_time, end_time, status, total_price_cents, created_on, updated_on`

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	query := `INSERT INTO rentals (id, user_id, locker_id, location_id, size_class, plan_tier, duration_class, start_time, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		rt.ID, rt.UserID, rt.LockerID, rt.LocationID, rt.SizeClass, rt.PlanTier, rt.DurationClass,
		rt.StartTime, rt.Status, now, now)
	if err != nil {
		return wrapStorageErr("create rental", err)
	}
	rt.CreatedOn = now
	rt.UpdatedOn = now
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	rt := &domain.Rental{}
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rt.ID, &rt.UserID, &rt.LockerID, &rt.LocationID, &rt.SizeClass, &rt.PlanTier, &rt.DurationClass,
		&rt.StartTime, &rt.EndTime, &rt.Status, &rt.TotalPriceCents, &rt.CreatedOn, &rt.UpdatedOn)
	if err != nil {
		return nil, wrapStorageErr("get rental", err)
	}
	return rt, nil
}

// UpdateStatusFrom is the state-machine guard: the WHERE clause on the
// current status serializes concurrent transitions, so the losing side of
// a race gets ErrInvalidState instead of clobbering the winner.
func (r *rentalRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to domain.RentalStatus, endTime *time.Time, totalPriceCents *int64) error {
	query := `UPDATE rentals SET status = $1,
	              end_time = COALESCE($2, end_time),
	              total_price_cents = COALESCE($3, total_price_cents),
	              updated_on = $4
	          WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, to, endTime, totalPriceCents, time.Now(), id, from)
	if err != nil {
		return wrapStorageErr("update rental status", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("rental %s is not %s: %w", id, from, domain.ErrInvalidState)
	}
	return nil
}

func (r *rentalRepository) ListByUser(ctx context.Context, userID string, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE user_id = $1`

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
		return nil, 0, wrapStorageErr("count rentals", err)
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapStorageErr("list rentals", err)
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		var rt domain.Rental
		if err := rows.Scan(
			&rt.ID, &rt.UserID, &rt.LockerID, &rt.LocationID, &rt.SizeClass, &rt.PlanTier, &rt.DurationClass,
			&rt.StartTime, &rt.EndTime, &rt.Status, &rt.TotalPriceCents, &rt.CreatedOn, &rt.UpdatedOn); err != nil {
			return nil, 0, wrapStorageErr("scan rental", err)
		}
		rentals = append(rentals, rt)
	}
	return rentals, count, rows.Err()
}

func (r *rentalRepository) CountByStatus(ctx context.Context) (map[domain.RentalStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, count(*) FROM rentals GROUP BY status`)
	if err != nil {
		return nil, wrapStorageErr("count rentals by status", err)
	}
	defer rows.Close()

	counts := make(map[domain.RentalStatus]int64)
	for rows.Next() {
		var status domain.RentalStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, wrapStorageErr("scan rental count", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *rentalRepository) RevenueByPlan(ctx context.Context) (map[string]int64, error) {
	query := `SELECT plan_tier, size_class, COALESCE(sum(total_price_cents), 0)
	          FROM rentals WHERE status = $1 GROUP BY plan_tier, size_class`
	rows, err := r.db.QueryContext(ctx, query, domain.RentalStatusCompleted)
	if err != nil {
		return nil, wrapStorageErr("revenue by plan", err)
	}
	defer rows.Close()

	revenue := make(map[string]int64)
	for rows.Next() {
		var tier domain.PlanTier
		var size domain.SizeClass
		var cents int64
		if err := rows.Scan(&tier, &size, &cents); err != nil {
			return nil, wrapStorageErr("scan revenue", err)
		}
		revenue[domain.RevenueKey(tier, size)] = cents
	}
	return revenue, rows.Err()
}
