package authz

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewGormStore(db), mock
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestHasUserPrivilegeScopedQuery(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "user_privileges"`).
		WillReturnRows(countRows(1))

	ok, err := store.HasUserPrivilege(context.Background(), 1, model.ModuleDefects, model.ActionUpdate, ptr(2))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasUserPrivilegeAbsent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "user_privileges"`).
		WillReturnRows(countRows(0))

	ok, err := store.HasUserPrivilege(context.Background(), 1, model.ModuleDefects, model.ActionUpdate, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasProjectPrivilege(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "project_user_privileges"`).
		WillReturnRows(countRows(1))

	ok, err := store.HasProjectPrivilege(context.Background(), 1, 2, model.ModuleReleases, model.ActionCreate)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestActiveAllocationRolePicksNewestRow(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "project_id", "role_id", "is_active"}).
		AddRow(12, 1, 2, 7, true)
	mock.ExpectQuery(`SELECT \* FROM "project_allocations".*ORDER BY id DESC`).
		WillReturnRows(rows)

	roleID, found, err := store.ActiveAllocationRole(context.Background(), 1, ptr(2))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint(7), roleID)
}

func TestActiveAllocationRoleNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "project_allocations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "project_id", "role_id", "is_active"}))

	_, found, err := store.ActiveAllocationRole(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.False(t, found, "missing allocation is not an error")
}

func TestHasGroupPrivilege(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "group_privileges"`).
		WillReturnRows(countRows(1))

	ok, err := store.HasGroupPrivilege(context.Background(), 7, model.ModuleDefects, model.ActionUpdate)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsProjectOwner(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "projects"`).
		WillReturnRows(countRows(1))

	ok, err := store.IsProjectOwner(context.Background(), 9, 4)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasActiveAllocation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "project_allocations"`).
		WillReturnRows(countRows(0))

	ok, err := store.HasActiveAllocation(context.Background(), 9, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}
