package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "careers.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('admins', 'job_applications') ORDER BY name`))
	assert.Equal(t, []string{"admins", "job_applications"}, tables)
}

func TestLockFileIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "careers.db")

	first, err := LockFile(path)
	require.NoError(t, err)

	_, err = LockFile(path)
	assert.Error(t, err)

	require.NoError(t, first.Release())

	again, err := LockFile(path)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}
