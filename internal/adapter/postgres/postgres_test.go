package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"healthdash/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	s, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s), mock
}

func TestMigrate(t *testing.T) {
	db, mock := setupMockDB(t)

	for range migrations {
		mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, db.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_Error(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnError(errors.New("permission denied"))

	err := db.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate")
}

func TestAddSample(t *testing.T) {
	db, mock := setupMockDB(t)
	at := time.Date(2026, time.February, 10, 7, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO samples`).
		WithArgs(int64(1), "weight", 80.5, "kg", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	id, err := db.AddSample(context.Background(), 1, domain.MetricWeight, 80.5, "kg", at)
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListSamples(t *testing.T) {
	db, mock := setupMockDB(t)
	from := time.Date(2026, time.February, 4, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	rows := sqlmock.NewRows([]string{"id", "value", "unit", "sampled_at"}).
		AddRow(int64(1), 3000.0, "count", from.Add(9*time.Hour)).
		AddRow(int64(2), 2500.0, "count", from.Add(33*time.Hour))
	mock.ExpectQuery(`SELECT id, value, unit, sampled_at FROM samples WHERE user_id=\$1 AND kind=\$2 AND sampled_at >= \$3`).
		WithArgs(int64(1), "steps", from, to).
		WillReturnRows(rows)

	got, err := db.ListSamples(context.Background(), 1, domain.MetricSteps, from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.MetricSteps, got[0].Kind)
	assert.Equal(t, int64(1), got[0].UserID)
	assert.Equal(t, 2500.0, got[1].Value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListSamples_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT`).WillReturnError(sql.ErrConnDone)

	_, err := db.ListSamples(context.Background(), 1, domain.MetricSteps, time.Now(), time.Now())
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestListRecentSamples_Empty(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`ORDER BY sampled_at DESC, id DESC LIMIT \$3`).
		WithArgs(int64(1), "active_energy", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "value", "unit", "sampled_at"}))

	got, err := db.ListRecentSamples(context.Background(), 1, domain.MetricActiveEnergy, 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDeleteLatestSample(t *testing.T) {
	t.Run("deletes newest", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT id FROM samples`).
			WithArgs(int64(1), "weight").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
		mock.ExpectExec(`DELETE FROM samples`).
			WithArgs(int64(9), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := db.DeleteLatestSample(context.Background(), 1, domain.MetricWeight)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing to delete", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT id FROM samples`).WillReturnError(sql.ErrNoRows)

		ok, err := db.DeleteLatestSample(context.Background(), 1, domain.MetricWeight)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGetGrant(t *testing.T) {
	t.Run("never answered", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT can_read, can_share, updated_at FROM access_grants`).
			WithArgs(int64(3)).
			WillReturnError(sql.ErrNoRows)

		g, err := db.GetGrant(context.Background(), 3)
		require.NoError(t, err)
		assert.Nil(t, g)
	})

	t.Run("stored", func(t *testing.T) {
		db, mock := setupMockDB(t)
		updated := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT can_read, can_share, updated_at FROM access_grants`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"can_read", "can_share", "updated_at"}).AddRow(true, false, updated))

		g, err := db.GetGrant(context.Background(), 3)
		require.NoError(t, err)
		require.NotNil(t, g)
		assert.Equal(t, int64(3), g.UserID)
		assert.True(t, g.Read)
		assert.False(t, g.Share)
		assert.Equal(t, updated, g.UpdatedAt)
	})
}

func TestSaveGrant(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(`INSERT INTO access_grants .* ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs(int64(3), true, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, db.SaveGrant(context.Background(), 3, true, true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsername_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT id, username, password_hash, created_at FROM users WHERE username`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	u, err := db.GetByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSessionRepo(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(int64(1), "tok", "firefox", "10.0.0.1", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(ctx, 1, "tok", "firefox", "10.0.0.1", expires))

	mock.ExpectQuery(`SELECT token, user_id, user_agent, ip, expires_at, created_at FROM sessions`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "user_agent", "ip", "expires_at", "created_at"}).
			AddRow("tok", int64(1), "firefox", "10.0.0.1", expires, time.Now()))
	s, err := repo.GetByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "firefox", s.UserAgent)
	assert.Equal(t, "10.0.0.1", s.IP)

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at`).
		WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	require.NoError(t, mock.ExpectationsWereMet())
}
