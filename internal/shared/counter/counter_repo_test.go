package counter_test

import (
	"context"
	"errors"
	"testing"

	"go-leave/internal/shared/counter"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupCounterRepo(t *testing.T) (counter.Repository, sqlmock.Sqlmock, func()) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	return counter.NewRepository(gdb), mock, func() { _ = sqlDB.Close() }
}

func TestCounterRepository_GetNextValue(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, mock, done := setupCounterRepo(t)
		defer done()

		mock.ExpectQuery(`INSERT INTO counters`).
			WithArgs("leave_request").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(42)))

		v, err := repo.GetNextValue(ctx, "leave_request")

		assert.NoError(t, err)
		assert.Equal(t, int64(42), v)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("runs inside caller transaction", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()
		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO counters`).
			WithArgs("leave_request").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(1)))
		mock.ExpectRollback()

		tx, err := sqlDB.Begin()
		require.NoError(t, err)

		v, err := counter.NewRepository(gdb).WithTx(tx).GetNextValue(ctx, "leave_request")
		assert.NoError(t, err)
		assert.Equal(t, int64(1), v)

		assert.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative db error", func(t *testing.T) {
		repo, mock, done := setupCounterRepo(t)
		defer done()

		mock.ExpectQuery(`INSERT INTO counters`).WillReturnError(errors.New("db down"))

		v, err := repo.GetNextValue(ctx, "leave_request")

		assert.Error(t, err)
		assert.Zero(t, v)
	})
}
