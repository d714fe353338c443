//go:build integration

package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/agentflow/internal/adapter/postgres"
)

// SetupTestDB connects to the test database, applies the migrations and
// empties every table. It skips the test if TEST_DATABASE_URL is not set.
// Tables are shared, so integration packages must run with -p 1.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := postgres.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect to test DB: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate test DB: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE distributions, agents, users, processed_operations`); err != nil {
		t.Fatalf("truncate test DB: %v", err)
	}
	return pool
}
