package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenCreatesFileAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "autostamp.db")

	db, err := Open(Config{Path: path, BusyTimeoutMs: 1000})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	applied, err := db.migrateUp(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, applied)
	require.Equal(t, path, db.Path())

	var name string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'holiday_cache'`).Scan(&name))
	require.Equal(t, "holiday_cache", name)
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	applied, err := db.migrateUp(context.Background())
	require.NoError(t, err)
	require.Zero(t, applied)
}

func TestInMemoryPathIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	require.Empty(t, db.Path())
}

func TestExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	require.Equal(t, "\nCREATE TABLE a (id INTEGER);\n", extractUp(content))
	require.Equal(t, "SELECT 1;", extractUp("SELECT 1;"))
}

func TestNilDBIsNotOpen(t *testing.T) {
	var db *DB
	require.ErrorIs(t, db.MigrateUp(context.Background()), ErrNotOpen)
	require.NoError(t, db.Close())
}
