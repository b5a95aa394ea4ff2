// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userVersion(t *testing.T, ctx context.Context, path string) int {
	t.Helper()
	db, err := Open(ctx, path, DefaultConfig())
	require.NoError(t, err)
	defer db.Close()
	var v int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v))
	return v
}

func TestMigrate_AppliesPendingStepsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "m.sqlite")

	steps := []string{
		"CREATE TABLE a (id INTEGER PRIMARY KEY)",
		"ALTER TABLE a ADD COLUMN name TEXT",
	}

	db, err := Open(ctx, path, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db, steps[:1]))
	require.NoError(t, Migrate(ctx, db, steps))
	// Re-running is a no-op; a second ALTER would fail.
	require.NoError(t, Migrate(ctx, db, steps))
	_, err = db.ExecContext(ctx, "INSERT INTO a (name) VALUES ('x')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	assert.Equal(t, 2, userVersion(t, ctx, path))
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "m.sqlite"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "PRAGMA user_version = 5")
	require.NoError(t, err)

	err = Migrate(ctx, db, []string{"CREATE TABLE a (id INTEGER)"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestMigrate_FailedStepRollsBack(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "m.sqlite"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	err = Migrate(ctx, db, []string{"CREATE TABLE a (id INTEGER)", "NOT SQL"})
	require.Error(t, err)

	var v int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v))
	assert.Equal(t, 1, v)
}
