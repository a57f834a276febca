package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/garyjia/monitoria/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{
		Path:         filepath.Join(t.TempDir(), "data", "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunMigrations_Embedded(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db, zap.NewNop())

	require.NoError(t, migrator.RunMigrations(migrations.FS))
	// second run is a no-op
	require.NoError(t, migrator.RunMigrations(migrations.FS))

	for _, table := range []string{"users", "projects", "project_disciplines", "project_professors",
		"project_activities", "signatures", "project_history", "notification_logs", "vagas"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
	assert.NoError(t, db.Health(context.Background()))
}

func TestRunMigrations_Ordering(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"002_add_column.sql": {Data: []byte("ALTER TABLE things ADD COLUMN label TEXT;")},
		"001_create.sql":     {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
		"README.md":          {Data: []byte("ignored")},
	}

	require.NoError(t, NewMigrator(db, zap.NewNop()).RunMigrations(fsys))

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM schema_migrations WHERE version = 2").Scan(&name))
	assert.Equal(t, "add_column", name)
}

func TestRunMigrations_FailureRollsBack(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_broken.sql": {Data: []byte("CREATE TABLE ok (id INTEGER); NOT SQL;")},
	}

	err := NewMigrator(db, zap.NewNop()).RunMigrations(fsys)
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Zero(t, count)
}

func TestRunMigrations_InvalidName(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{"init.sql": {Data: []byte("SELECT 1;")}}

	assert.Error(t, NewMigrator(db, zap.NewNop()).RunMigrations(fsys))
}
