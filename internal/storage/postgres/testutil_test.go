package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// schema. Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	applySchema(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// applySchema creates the wallet_assessments table. Kept in sync with
// internal/storage/migrations/postgres/001_wallet_assessments.sql; the
// migrations package cannot be imported here without a cycle.
func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wallet_assessments (
			assessment_id       TEXT PRIMARY KEY,
			wallet_address      TEXT NOT NULL,
			overall_risk_score  DOUBLE PRECISION NOT NULL,
			recommended_action  TEXT NOT NULL,
			token_count         INTEGER NOT NULL,
			at_risk_tokens      JSONB NOT NULL DEFAULT '[]'::jsonb,
			safe_tokens         JSONB NOT NULL DEFAULT '[]'::jsonb,
			assessed_at         TIMESTAMPTZ NOT NULL,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	require.NoError(t, err, "failed to create wallet_assessments")

	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_wallet_assessments_wallet
		ON wallet_assessments (wallet_address, assessed_at DESC)
	`)
	require.NoError(t, err, "failed to create wallet index")
}
