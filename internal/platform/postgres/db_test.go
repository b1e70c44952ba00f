package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// newTestDB opens the integration test database and applies migrations.
// Tests built on it are skipped unless TEST_DATABASE_URL is set, so the
// default test run stays database-free.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test - TEST_DATABASE_URL environment variable required")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Error closing database connection: %v", err)
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, RunMigrations(context.Background(), db, logger), "Failed to apply migrations")

	return db
}

// testQueue returns a unique queue name so parallel test runs against a
// shared database never see each other's tasks.
func testQueue() string {
	return "itest-" + uuid.NewString()
}
