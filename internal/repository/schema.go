package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Indexes mirror the sweep and lookup paths: short_code for redirects,
// owner_id for dashboards, (is_permanent, expires_at) and last_accessed for
// the expiration sweeps.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id              BIGSERIAL PRIMARY KEY,
        username        TEXT NOT NULL UNIQUE,
        email           TEXT NOT NULL UNIQUE,
        hashed_password TEXT NOT NULL,
        created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS links (
        id            BIGSERIAL PRIMARY KEY,
        original_url  TEXT NOT NULL,
        short_code    TEXT NOT NULL UNIQUE,
        owner_id      BIGINT REFERENCES users(id) ON DELETE CASCADE,
        is_permanent  BOOLEAN NOT NULL DEFAULT FALSE,
        created_at    TIMESTAMPTZ NOT NULL,
        expires_at    TIMESTAMPTZ,
        last_accessed TIMESTAMPTZ NOT NULL,
        clicks        BIGINT NOT NULL DEFAULT 0
    )`,
	`CREATE INDEX IF NOT EXISTS idx_links_owner_id ON links (owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_links_expiry ON links (is_permanent, expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_links_last_accessed ON links (last_accessed)`,
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
