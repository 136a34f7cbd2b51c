package ward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

var bedCols = []string{"id", "ward_id", "bed_number", "is_occupied"}

func TestRepoPG_MarkOccupied_Conditional(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`UPDATE bed SET is_occupied = TRUE .* WHERE id = \$1 AND NOT is_occupied`).
		WithArgs(int64(101), int64(0)).
		WillReturnRows(pgxmock.NewRows(bedCols).AddRow(int64(101), int64(1), 1, true))
	mock.ExpectQuery(`UPDATE bed SET is_occupied = TRUE`).
		WithArgs(int64(101), int64(0)).
		WillReturnError(pgx.ErrNoRows)

	repo := NewRepo(mock)
	bed, ok, err := repo.MarkOccupied(context.Background(), 101, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, bed.IsOccupied)

	_, ok, err = repo.MarkOccupied(context.Background(), 101, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ReserveOverPG_Conflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`UPDATE bed SET is_occupied = TRUE`).
		WithArgs(int64(102), int64(0)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM bed WHERE id = \$1`).
		WithArgs(int64(102)).
		WillReturnRows(pgxmock.NewRows(bedCols).AddRow(int64(102), int64(1), 2, true))

	svc := NewService(NewRepo(mock), db.NewTxRunner(mock), nil, zerolog.Nop())
	_, err = svc.Reserve(context.Background(), 102)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CreateWardOverPG_RollsBackOnBedFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO ward`).
		WithArgs(int64(1), "A", "general", "mixed", 3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(4), time.Now()))
	mock.ExpectExec(`INSERT INTO bed`).
		WithArgs(int64(4), 1, 3).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	svc := NewService(NewRepo(mock), db.NewTxRunner(mock), nil, zerolog.Nop())
	err = svc.CreateWard(context.Background(), &Ward{DepartmentID: 1, Name: "A", Type: TypeGeneral, BedCount: 3})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoPG_ListBeds_OnlyFree(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM bed\s+WHERE ward_id = \$1 AND \(\$2::bool = FALSE OR NOT is_occupied\)`).
		WithArgs(int64(1), true).
		WillReturnRows(pgxmock.NewRows(bedCols).AddRow(int64(101), int64(1), 1, false))

	beds, err := NewRepo(mock).ListBeds(context.Background(), 1, true)
	require.NoError(t, err)
	require.Len(t, beds, 1)
	assert.False(t, beds[0].IsOccupied)
}

func TestRepoPG_MarkFree_SkipsBedsOfActiveStays(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`UPDATE bed SET is_occupied = FALSE .* WHERE id = \$1 AND is_occupied AND NOT EXISTS \( SELECT 1 FROM inpatient WHERE discharge_date IS NULL AND \(bed_id = \$1 OR attender_bed_id = \$1\)\)`).
		WithArgs(int64(102)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM bed WHERE id = \$1`).
		WithArgs(int64(102)).
		WillReturnRows(pgxmock.NewRows(bedCols).AddRow(int64(102), int64(1), 2, true))

	svc := NewService(NewRepo(mock), db.NewTxRunner(mock), nil, zerolog.Nop())
	_, err = svc.Release(context.Background(), 102)
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Contains(t, apperr.From(err).Message, "active inpatient stay")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ReserveCountedOnlyOnCommit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	bedRow := func() *pgxmock.Rows { return pgxmock.NewRows(bedCols).AddRow(int64(101), int64(1), 1, true) }
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE bed SET is_occupied = TRUE`).WithArgs(int64(101), int64(1)).WillReturnRows(bedRow())
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE bed SET is_occupied = TRUE`).WithArgs(int64(101), int64(1)).WillReturnRows(bedRow())
	mock.ExpectCommit()

	metrics := &countingMetrics{}
	tx := db.NewTxRunner(mock)
	svc := NewService(NewRepo(mock), tx, metrics, zerolog.Nop())
	ctx := context.Background()

	stayFailed := errors.New("stay insert failed")
	err = tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.ReserveInWard(ctx, 1, 101); err != nil {
			return err
		}
		return stayFailed
	})
	require.ErrorIs(t, err, stayFailed)
	assert.Zero(t, metrics.counts["reserve:ok"])

	err = tx.InTx(ctx, func(ctx context.Context) error {
		_, err := svc.ReserveInWard(ctx, 1, 101)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.counts["reserve:ok"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
