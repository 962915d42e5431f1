package db

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

const driverName = "sqlite"

const playerSchema = `
CREATE TABLE IF NOT EXISTS players (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL,
	is_guest INTEGER NOT NULL DEFAULT 0,
	preferred_mode TEXT NOT NULL DEFAULT '',
	preferred_difficulty TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Open connects to the SQLite database at path. Use ":memory:" for a
// throwaway database.
func Open(path string) (*sqlx.DB, error) {
	pool, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is its own database.
		pool.SetMaxOpenConns(1)
	}
	return pool, nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := conn.ExecContext(ctx, playerSchema); err != nil {
		return fmt.Errorf("failed to create players table: %w", err)
	}

	slog.InfoContext(ctx, "DB schema verified")
	return nil
}
