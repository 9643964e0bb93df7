// Package storage opens the persistence behind the account core: the user
// store selected by configuration and the default keybindings file.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/ideauth/internal/client/config"
	"github.com/dmitrijs2005/ideauth/internal/client/migrations"
	"github.com/dmitrijs2005/ideauth/internal/client/repositories/users"
	"github.com/dmitrijs2005/ideauth/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Stores bundles the opened repositories and what must be closed with them.
type Stores struct {
	Users users.Repository
	db    *sql.DB
}

// Close releases the SQLite handle, if any.
func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open creates the data directory and opens the configured user store.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("failed to prepare data dir: %w", err)
	}

	switch cfg.StoreBackend {
	case config.BackendJSON:
		return &Stores{Users: users.NewJSONRepository(cfg.UsersPath())}, nil
	case config.BackendSQLite:
		db, err := InitDatabase(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open user database: %w", err)
		}
		return &Stores{Users: users.NewSQLiteRepository(db), db: db}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
