package app

import (
	"database/sql"
	"fmt"
	"strconv"
)

// migrations holds one DDL batch per schema version. Entry i upgrades a
// database from version i to version i+1 and runs in its own
// transaction, so a failed step leaves the recorded version untouched.
var migrations = []string{
	`
CREATE TABLE roots (
	alias TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	added_at INTEGER NOT NULL,
	last_scan INTEGER NOT NULL DEFAULT 0,
	scanned_capacity INTEGER NOT NULL DEFAULT 0,
	scanned_free INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE files (
	root TEXT NOT NULL,
	path TEXT NOT NULL,
	name TEXT NOT NULL,
	dir TEXT NOT NULL DEFAULT '',
	ext TEXT NOT NULL DEFAULT '',
	size INTEGER NOT NULL DEFAULT 0,
	mod_time INTEGER NOT NULL DEFAULT 0,
	is_dir INTEGER NOT NULL DEFAULT 0,
	meta_json TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (root, path)
);

CREATE INDEX idx_files_name ON files(name);
CREATE INDEX idx_files_ext ON files(ext);

CREATE TABLE jobs (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	options_json TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	enqueued_at INTEGER NOT NULL DEFAULT 0,
	started_at INTEGER NOT NULL DEFAULT 0,
	finished_at INTEGER NOT NULL DEFAULT 0,
	summary_json TEXT NOT NULL DEFAULT '',
	errors_json TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT ''
);
`,
}

// migrate brings the database up to the current schema version. The
// metadata table exists from the start because the version is tracked
// in it.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS metadata (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	version, err := storedSchemaVersion(db)
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build supports (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		if err := applyMigration(db, i); err != nil {
			return fmt.Errorf("failed to migrate schema to version %d: %w", i+1, err)
		}
	}
	return nil
}

func storedSchemaVersion(db *sql.DB) (int, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	version, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("malformed schema version %q: %w", value, err)
	}
	return version, nil
}

func applyMigration(db *sql.DB, step int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.Exec(migrations[step]); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO metadata(key, value)
		VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, strconv.Itoa(step+1)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
