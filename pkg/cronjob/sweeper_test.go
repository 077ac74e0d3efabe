package cronjob

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockSweeper(t *testing.T) (*Sweeper, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewSweeper(db), mock
}

func TestSweepDeactivatesExpiredRows(t *testing.T) {
	sweeper, mock := newMockSweeper(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_privileges" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "project_allocations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sweeper.sweep()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepContinuesAfterGrantError(t *testing.T) {
	sweeper, mock := newMockSweeper(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_privileges" SET`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "project_allocations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// A failure on one table must not skip the other.
	sweeper.sweep()

	assert.NoError(t, mock.ExpectationsWereMet())
}
