package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, dialect, err := Open(context.Background(), Options{
		Driver:      "sqlite",
		DSN:         filepath.Join(t.TempDir(), "audit.db"),
		JournalMode: "wal",
	})
	require.NoError(t, err)
	require.Equal(t, DialectSQLite, dialect)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestQueryLogRepository_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewQueryLogRepository(openSQLite(t))

	entry := &QueryLogEntry{
		RequestID:      "req-1",
		Question:       "top costing",
		Intent:         "topCostly",
		Outcome:        "answered",
		Source:         "engine",
		ResultCount:    2,
		LatencyMs:      3,
		CatalogVersion: "v1",
		Cached:         true,
	}
	require.NoError(t, repo.Insert(ctx, entry))
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.False(t, entry.OccurredAt.IsZero())

	got, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Question, got.Question)
	assert.Equal(t, entry.Intent, got.Intent)
	assert.Equal(t, 2, got.ResultCount)
	assert.True(t, got.Cached)
	assert.WithinDuration(t, entry.OccurredAt, got.OccurredAt, time.Second)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryLogRepository_Recent(t *testing.T) {
	ctx := context.Background()
	repo := NewQueryLogRepository(openSQLite(t))

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	outcomes := []string{"answered", "empty", "answered", "delegated"}
	for i, outcome := range outcomes {
		require.NoError(t, repo.Insert(ctx, &QueryLogEntry{
			Question:   "q" + string(rune('a'+i)),
			Outcome:    outcome,
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "qd", recent[0].Question)
	assert.Equal(t, "qc", recent[1].Question)

	counts, err := repo.CountByOutcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"answered": 2, "empty": 1, "delegated": 1}, counts)
}

func TestQueryLogRepository_RecentEmpty(t *testing.T) {
	repo := NewQueryLogRepository(openSQLite(t))
	recent, err := repo.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.NotNil(t, recent)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, _, err := Open(ctx, Options{Driver: "oracle", DSN: "x"})
	assert.ErrorIs(t, err, ErrUnknownDialect)

	_, _, err = Open(ctx, Options{Driver: "sqlite"})
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(context.Background(), db, DialectSQLite))
	assert.ErrorIs(t, Migrate(context.Background(), db, Dialect("mysql")), ErrUnknownDialect)
}
