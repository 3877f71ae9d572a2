package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is one versioned schema change
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns the full schema history in order.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					username TEXT NOT NULL UNIQUE,
					password_hash BYTEA NOT NULL,
					role TEXT NOT NULL,
					oldest_valid_issue TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     2,
			Description: "Create access_codes table",
			SQL: `
				CREATE TABLE IF NOT EXISTS access_codes (
					code TEXT PRIMARY KEY,
					role TEXT NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     3,
			Description: "Create images table",
			// hash carries a plain index, not a unique constraint:
			// uniqueness is enforced by the advisory-locked conditional
			// insert so pre-existing duplicate rows stay visible to the dedup
			// repair pass.
			SQL: `
				CREATE TABLE IF NOT EXISTS images (
					id BIGSERIAL PRIMARY KEY,
					hash TEXT NOT NULL,
					name TEXT NOT NULL,
					tags TEXT[] NOT NULL,
					uploaded TIMESTAMPTZ NOT NULL,
					updated TIMESTAMPTZ NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_images_hash ON images(hash);
				CREATE INDEX IF NOT EXISTS idx_images_tags ON images USING GIN(tags);
			`,
		},
		{
			Version:     4,
			Description: "Create tags table",
			SQL: `
				CREATE TABLE IF NOT EXISTS tags (
					name TEXT PRIMARY KEY,
					created_by TEXT NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`,
		},
	}
}

// RunMigrations applies all pending migrations, tracking progress in a
// schema_migrations table.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	for _, m := range Migrations() {
		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`,
			m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking migration %d: %w", m.Version, err)
		}
		if exists {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
			m.Version, m.Description); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.Version, err)
		}
	}
	return nil
}
