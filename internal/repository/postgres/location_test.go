package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lockerhub-backend/internal/domain"
)

func TestLocationGetCapacity_ReturnsProvisioned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewLocationRepository(db)

	mock.ExpectQuery(`SELECT provisioned FROM location_capacities`).
		WithArgs("loc-central", domain.SizeSmall).
		WillReturnRows(sqlmock.NewRows([]string{"provisioned"}).AddRow(7))

	capacity, err := repo.GetCapacity(context.Background(), "loc-central", domain.SizeSmall)
	require.NoError(t, err)
	assert.Equal(t, int32(7), capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A location with no capacity row has nothing set aside for advance
// booking; that is zero capacity, not a missing location.
func TestLocationGetCapacity_MissingRowMeansZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewLocationRepository(db)

	mock.ExpectQuery(`SELECT provisioned FROM location_capacities`).
		WithArgs("loc-central", domain.SizeLarge).
		WillReturnError(sql.ErrNoRows)

	capacity, err := repo.GetCapacity(context.Background(), "loc-central", domain.SizeLarge)
	require.NoError(t, err)
	assert.Zero(t, capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}
