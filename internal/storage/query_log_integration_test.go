//go:build integration

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestQueryLogRepository_Postgres(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("inventory_engine_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/inventory_engine_test?sslmode=disable", host, port.Port())
	db, dialect, err := Open(ctx, Options{Driver: "postgres", DSN: dsn, MaxOpenConns: 4})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, DialectPostgres, dialect)

	repo := NewQueryLogRepository(db)
	entry := &QueryLogEntry{Question: "how many items", Intent: "stockCount", Outcome: "answered", Source: "engine"}
	require.NoError(t, repo.Insert(ctx, entry))

	got, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "stockCount", got.Intent)

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
