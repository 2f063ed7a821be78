//go:build integration

package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
)

// containerSetup holds the Postgres and Redis containers backing a full engine.
type containerSetup struct {
	PostgresDSN string
	RedisAddr   string
	cleanup     func()
}

func setupContainers(t *testing.T) *containerSetup {
	t.Helper()
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

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	redisContainer, err := redis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return &containerSetup{
		PostgresDSN: fmt.Sprintf("postgres://test:test@%s:%s/inventory_engine_test?sslmode=disable", pgHost, pgPort.Port()),
		RedisAddr:   fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
		cleanup: func() {
			if err := pgContainer.Terminate(ctx); err != nil {
				t.Logf("Failed to terminate postgres container: %v", err)
			}
			if err := redisContainer.Terminate(ctx); err != nil {
				t.Logf("Failed to terminate redis container: %v", err)
			}
		},
	}
}

func TestApp_PostgresAndRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := setupContainers(t)
	defer setup.cleanup()

	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Audit.Driver = "postgres"
	cfg.Audit.Postgres.DSN = setup.PostgresDSN
	cfg.Cache.Driver = "redis"
	cfg.Cache.Redis.Addr = setup.RedisAddr

	a, err := New(ctx, cfg, nil, Options{Delegate: cannedDelegate{answer: "• Olive Dye"}})
	require.NoError(t, err)
	defer a.Close()

	assert.Empty(t, a.Ready(ctx))

	first, err := a.Router.Query(ctx, retrieval.Request{Question: "top costing"})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := a.Router.Query(ctx, retrieval.Request{Question: "top costing"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Page.Items, second.Page.Items)

	delegated, err := a.Router.Query(ctx, retrieval.Request{Question: "chemical dye"})
	require.NoError(t, err)
	assert.Equal(t, retrieval.OutcomeDelegated, delegated.Outcome)

	counts, err := a.QueryLog.CountByOutcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"answered": 2, "delegated": 1}, counts)

	entries, err := a.QueryLog.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "chemical dye", entries[0].Question)
}
