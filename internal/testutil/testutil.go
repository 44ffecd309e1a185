// Package testutil opens a migrated Postgres pool for integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/pkg/config"
	"taxibooking/pkg/db"
)

// NewTestPool connects to TEST_DATABASE_URL, applies migrations and empties the mutable tables.
// The test is skipped when the variable is unset or the database is unreachable.
func NewTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := config.Config{DatabaseURL: url, DirectURL: url}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, cfg)
	if err != nil {
		t.Skipf("postgres unreachable: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.MigrateConfig("file://"+migrationsDir(), cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	const truncate = `
TRUNCATE booking_drafts, booking_events, bookings, availability_days, contact_messages, audit_logs,
         package_prices, route_rates, packages, routes, seasons, temples
RESTART IDENTITY CASCADE`
	if _, err := pool.Exec(ctx, truncate); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
