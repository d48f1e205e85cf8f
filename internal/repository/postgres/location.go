package postgres

import (
	"context"
	"database/sql"
	"errors"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/repository"
)

type locationRepository struct {
	db *sql.DB
}

func NewLocationRepository(db *sql.DB) repository.LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	loc := &domain.Location{}
	query := `SELECT id, name, address, latitude, longitude FROM locations WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Latitude, &loc.Longitude)
	if err != nil {
		return nil, wrapStorageErr("get location", err)
	}
	return loc, nil
}

func (r *locationRepository) List(ctx context.Context) ([]domain.Location, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, address, latitude, longitude FROM locations ORDER BY name`)
	if err != nil {
		return nil, wrapStorageErr("list locations", err)
	}
	defer rows.Close()

	var locations []domain.Location
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Latitude, &loc.Longitude); err != nil {
			return nil, wrapStorageErr("scan location", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// GetCapacity treats a location with no capacity row as provisioned zero:
// nothing was set aside for advance booking there.
func (r *locationRepository) GetCapacity(ctx context.Context, locationID string, size domain.SizeClass) (int32, error) {
	var capacity int32
	query := `SELECT provisioned FROM location_capacities WHERE location_id = $1 AND size_class = $2`
	err := r.db.QueryRowContext(ctx, query, locationID, size).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapStorageErr("get capacity", err)
	}
	return capacity, nil
}

func (r *locationRepository) ListCapacities(ctx context.Context, locationID string) ([]domain.LocationCapacity, error) {
	query := `SELECT location_id, size_class, provisioned FROM location_capacities WHERE location_id = $1`
	rows, err := r.db.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, wrapStorageErr("list capacities", err)
	}
	defer rows.Close()

	var caps []domain.LocationCapacity
	for rows.Next() {
		var c domain.LocationCapacity
		if err := rows.Scan(&c.LocationID, &c.SizeClass, &c.Provisioned); err != nil {
			return nil, wrapStorageErr("scan capacity", err)
		}
		caps = append(caps, c)
	}
	return caps, rows.Err()
}
