// Package databasetest provides a migrated sqlite database for tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/fircode/shelter/internal/config"
	"github.com/fircode/shelter/internal/database"
)

// New returns a handle on a fresh, fully migrated sqlite file that is
// removed when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()
	cfg := config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "shelter.db"),
	}
	require.NoError(t, database.Migrate(cfg))
	db, err := database.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
