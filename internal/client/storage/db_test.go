package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/ideauth/internal/client/config"
	"github.com/dmitrijs2005/ideauth/internal/client/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("tableExists query failed: %v", err)
	}
	return n > 0
}

func TestInitDatabase_CreatesUsersAndGooseVersionTable(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "app.db")

	db, err := InitDatabase(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.PingContext(ctx))
	assert.True(t, tableExists(t, db, "goose_db_version"))
	assert.True(t, tableExists(t, db, "users"))
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "app.db")

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db), "first run")
	require.NoError(t, RunMigrations(ctx, db), "second run should be idempotent")
	assert.True(t, tableExists(t, db, "users"))
}

func testConfig(t *testing.T, backend string) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = filepath.Join(t.TempDir(), "nested", "data")
	cfg.StoreBackend = backend
	return cfg
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, testConfig(t, config.BackendJSON))
	require.NoError(t, err)
	assert.IsType(t, &users.JSONRepository{}, s.Users)
	require.NoError(t, s.Close())

	cfg := testConfig(t, config.BackendSQLite)
	s, err = Open(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &users.SQLiteRepository{}, s.Users)
	assert.FileExists(t, cfg.SQLitePath())

	list, err := s.Users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, s.Close())

	_, err = Open(ctx, testConfig(t, "bogus"))
	require.Error(t, err)
}
