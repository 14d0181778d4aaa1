package storage

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Storage{
		db:     sqlx.NewDb(db, "sqlmock"),
		logger: slog.Default(),
	}, mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "external_id", "username", "full_name",
		"is_banned", "is_active", "balance", "created_at",
	})
}

func TestGetOrCreateUser_NilProfileKeepsStored(t *testing.T) {
	s, mock := newMockStorage(t)

	// a repeat contact without profile fields must not null out the stored
	// ones, so the upsert has to coalesce against the existing row
	mock.ExpectQuery(`COALESCE\(EXCLUDED\.username, users\.username\)`).
		WithArgs(int64(42), nil, nil).
		WillReturnRows(userRows().
			AddRow(int64(1), int64(42), "keeper", "Lighthouse Keeper",
				false, true, int64(100), time.Now()))

	user, err := s.GetOrCreateUser(context.Background(), 42, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, user.Username)
	assert.Equal(t, "keeper", *user.Username)
	require.NotNil(t, user.FullName)
	assert.Equal(t, "Lighthouse Keeper", *user.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateUser_RefreshesProvidedProfile(t *testing.T) {
	s, mock := newMockStorage(t)

	username := "new-name"
	fullName := "New Name"
	mock.ExpectQuery(`COALESCE\(EXCLUDED\.full_name, users\.full_name\)`).
		WithArgs(int64(42), username, fullName).
		WillReturnRows(userRows().
			AddRow(int64(1), int64(42), username, fullName,
				false, true, int64(100), time.Now()))

	user, err := s.GetOrCreateUser(context.Background(), 42, &username, &fullName)
	require.NoError(t, err)
	require.NotNil(t, user.Username)
	assert.Equal(t, "new-name", *user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}
