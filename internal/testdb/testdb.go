//go:build integration

// Package testdb provides database setup for integration tests. Tests skip
// themselves when no database URL is configured.
package testdb

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/librarian/internal/config"
	"github.com/phrazzld/librarian/internal/platform/logger"
	"github.com/phrazzld/librarian/internal/platform/postgres"
)

// Environment variables checked for a database URL, in order.
const (
	EnvDatabaseURL          = "DATABASE_URL"
	EnvLibrarianTestDBURL   = "LIBRARIAN_TEST_DB_URL"
	EnvLibrarianDatabaseURL = "LIBRARIAN_DATABASE_URL"
)

// DatabaseURL returns the first non-empty database URL variable.
func DatabaseURL() string {
	for _, name := range []string{EnvDatabaseURL, EnvLibrarianTestDBURL, EnvLibrarianDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether no database is configured.
func ShouldSkipDatabaseTest() bool {
	return DatabaseURL() == ""
}

// MaskDatabaseURL hides the password of a database URL for logging.
func MaskDatabaseURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "<unparseable database url>"
	}
	return u.Redacted()
}

// Open connects to the test database and migrates it up. The connection is
// closed when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	if ShouldSkipDatabaseTest() {
		t.Skip("no database URL set; skipping integration test")
	}

	log, _ := logger.NewTestLogger(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbURL := DatabaseURL()
	db, err := postgres.Open(ctx, config.DatabaseConfig{URL: dbURL, MaxOpenConns: 5, MaxIdleConns: 2}, log)
	require.NoError(t, err, "connect to %s", MaskDatabaseURL(dbURL))
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateUp, log))
	return db
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Logf("rollback failed: %v", err)
		}
	}()
	fn(t, tx)
}
