package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lockerhub-backend/internal/domain"
)

func TestReservationCreate_SortsDatesBeforeInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewReservationRepository(db)

	res := &domain.Reservation{
		ID:         mustUUID(t),
		UserID:     "user-1",
		LocationID: "loc-central",
		SizeClass:  domain.SizeSmall,
		Dates:      []string{"2026-04-03", "2026-04-01"},
		Status:     domain.ReservationStatusPending,
	}

	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(res.ID, res.UserID, res.LocationID, res.SizeClass, sqlmock.AnyArg(),
			res.Status, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), res))
	assert.Equal(t, []string{"2026-04-01", "2026-04-03"}, res.Dates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationCountHeldForDate_UsesContainment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewReservationRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM reservations`).
		WithArgs("loc-central", domain.SizeSmall,
			domain.ReservationStatusPending, domain.ReservationStatusConfirmed, "2026-04-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountHeldForDate(context.Background(), "loc-central", domain.SizeSmall, "2026-04-01")
	require.NoError(t, err)
	assert.Equal(t, int32(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationUpdateStatusFrom_Guarded(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewReservationRepository(db)

	id := mustUUID(t)
	rentalID := mustUUID(t)
	mock.ExpectExec(`UPDATE reservations SET status = \$1`).
		WithArgs(domain.ReservationStatusConverted, rentalID, sqlmock.AnyArg(), id, domain.ReservationStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE reservations SET status = \$1`).
		WithArgs(domain.ReservationStatusConverted, rentalID, sqlmock.AnyArg(), id, domain.ReservationStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatusFrom(context.Background(), id,
		domain.ReservationStatusConfirmed, domain.ReservationStatusConverted, &rentalID))
	err = repo.UpdateStatusFrom(context.Background(), id,
		domain.ReservationStatusConfirmed, domain.ReservationStatusConverted, &rentalID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationListExpirable_ScansDatesArray(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewReservationRepository(db)

	now := time.Now()
	id := mustUUID(t)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "location_id", "size_class", "dates", "status", "converted_rental_id", "created_on", "updated_on",
	}).AddRow(id, "user-1", "loc-central", "SMALL", `{2026-03-01,2026-03-02}`, "CONFIRMED", nil, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM reservations`).
		WithArgs(domain.ReservationStatusPending, domain.ReservationStatusConfirmed, "2026-04-01").
		WillReturnRows(rows)

	out, err := repo.ListExpirable(context.Background(), "2026-04-01")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"2026-03-01", "2026-03-02"}, out[0].Dates)
	assert.Equal(t, "2026-03-02", out[0].LastDate())
	assert.NoError(t, mock.ExpectationsWereMet())
}
