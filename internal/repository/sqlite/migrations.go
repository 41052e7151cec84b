package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; the index+1 is the schema version.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS resumes (
		id            TEXT PRIMARY KEY,
		status        TEXT NOT NULL,
		years         REAL NOT NULL DEFAULT 0,
		location_lc   TEXT NOT NULL DEFAULT '',
		has_embedding INTEGER NOT NULL DEFAULT 0,
		created_at    INTEGER NOT NULL,
		body          TEXT NOT NULL,
		embedding     BLOB,
		views         INTEGER NOT NULL DEFAULT 0,
		matches       INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_resumes_status_years ON resumes(status, years);`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id         TEXT PRIMARY KEY,
		posted_by  TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		body       TEXT NOT NULL,
		embedding  BLOB,
		views      INTEGER NOT NULL DEFAULT 0,
		matches    INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_poster ON jobs(posted_by, status);`,
	`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);`,
}

// migrate brings the schema up to the latest version.
func migrate(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	var cnt int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&cnt); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	if cnt == 0 {
		if _, err := conn.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES(0)`); err != nil {
			return fmt.Errorf("init schema_migrations: %w", err)
		}
	}
	var version int
	if err := conn.QueryRowContext(ctx, `SELECT version FROM schema_migrations`).Scan(&version); err != nil {
		return fmt.Errorf("read version: %w", err)
	}

	for v := version; v < len(migrations); v++ {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin v%d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply v%d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE schema_migrations SET version = ?`, v+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bump to v%d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit v%d: %w", v+1, err)
		}
	}
	return nil
}
