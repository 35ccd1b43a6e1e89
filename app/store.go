package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// Store persists the catalogue in a single SQLite file. It sits behind
// the in-memory index: scans save through it after they complete and
// queries never touch it, so the engine survives a restart without a
// rescan but never blocks on disk for reads.
type Store struct {
	db   *sql.DB
	path string
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db %s: %w", path, err)
	}
	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRoot replaces one root's partition in a single transaction: the
// root row is upserted, its old file rows dropped and the current ones
// inserted through a prepared statement.
func (s *Store) SaveRoot(ctx context.Context, root models.Root, records []models.FileRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := upsertRoot(ctx, tx, root); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE root = ?`, root.Alias); err != nil {
		return err
	}
	if err := insertFiles(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// DeleteRoot removes the root row and every file row under it.
func (s *Store) DeleteRoot(ctx context.Context, alias string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE root = ?`, alias); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM roots WHERE alias = ?`, alias); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE root = ?`, alias); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) SaveJob(ctx context.Context, job *models.ScanJob) error {
	optionsJSON, err := json.Marshal(job.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	summaryJSON := ""
	if job.Summary != nil {
		b, err := json.Marshal(job.Summary)
		if err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		summaryJSON = string(b)
	}
	errorsJSON := ""
	if len(job.Errors) > 0 {
		b, err := json.Marshal(job.Errors)
		if err != nil {
			return fmt.Errorf("failed to encode errors: %w", err)
		}
		errorsJSON = string(b)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs(id, root, options_json, status, enqueued_at, started_at, finished_at, summary_json, errors_json, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			started_at=excluded.started_at,
			finished_at=excluded.finished_at,
			summary_json=excluded.summary_json,
			errors_json=excluded.errors_json,
			error=excluded.error
	`, job.ID, job.Root, string(optionsJSON), string(job.Status),
		timeToUnix(job.EnqueuedAt), timeToUnix(job.StartedAt), timeToUnix(job.FinishedAt),
		summaryJSON, errorsJSON, job.Err)
	return err
}

func (s *Store) DeleteJobs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM jobs WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// SaveSnapshot rewrites the whole database with the given state.
func (s *Store) SaveSnapshot(ctx context.Context, snap models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"files", "roots", "jobs"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	for _, root := range snap.Roots {
		if err := upsertRoot(ctx, tx, root); err != nil {
			return err
		}
	}
	if err := insertFiles(ctx, tx, snap.Records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	for i := range snap.Jobs {
		if err := s.SaveJob(ctx, &snap.Jobs[i]); err != nil {
			return err
		}
	}
	return s.setMetadata("saved_at", snap.SavedAt.Format(time.RFC3339))
}

// LoadSnapshot reads the whole persisted state. A fresh database yields
// an empty snapshot, not an error.
func (s *Store) LoadSnapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot

	rows, err := s.db.QueryContext(ctx, `
		SELECT alias, path, added_at, last_scan, scanned_capacity, scanned_free
		FROM roots ORDER BY alias`)
	if err != nil {
		return snap, fmt.Errorf("failed to load roots: %w", err)
	}
	for rows.Next() {
		var r models.Root
		var added, last int64
		if err := rows.Scan(&r.Alias, &r.Path, &added, &last, &r.ScannedCapacity, &r.ScannedFree); err != nil {
			rows.Close()
			return snap, err
		}
		r.AddedAt = unixToTime(added)
		r.LastScan = unixToTime(last)
		snap.Roots = append(snap.Roots, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT root, path, name, dir, ext, size, mod_time, is_dir, meta_json
		FROM files ORDER BY root, path`)
	if err != nil {
		return snap, fmt.Errorf("failed to load files: %w", err)
	}
	for rows.Next() {
		var f models.FileRecord
		var mod int64
		var isDir int
		var metaJSON string
		if err := rows.Scan(&f.Root, &f.Path, &f.Name, &f.Dir, &f.Ext, &f.Size, &mod, &isDir, &metaJSON); err != nil {
			rows.Close()
			return snap, err
		}
		f.ModTime = unixToTime(mod)
		f.IsDir = isDir != 0
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &f.Meta); err != nil {
				rows.Close()
				return snap, fmt.Errorf("failed to decode meta for %s/%s: %w", f.Root, f.Path, err)
			}
		}
		snap.Records = append(snap.Records, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, root, options_json, status, enqueued_at, started_at, finished_at, summary_json, errors_json, error
		FROM jobs ORDER BY enqueued_at`)
	if err != nil {
		return snap, fmt.Errorf("failed to load jobs: %w", err)
	}
	for rows.Next() {
		var j models.ScanJob
		var optionsJSON, summaryJSON, errorsJSON string
		var enq, started, finished int64
		var status string
		if err := rows.Scan(&j.ID, &j.Root, &optionsJSON, &status, &enq, &started, &finished, &summaryJSON, &errorsJSON, &j.Err); err != nil {
			rows.Close()
			return snap, err
		}
		j.Status = models.JobStatus(status)
		j.EnqueuedAt = unixToTime(enq)
		j.StartedAt = unixToTime(started)
		j.FinishedAt = unixToTime(finished)
		if optionsJSON != "" {
			if err := json.Unmarshal([]byte(optionsJSON), &j.Options); err != nil {
				rows.Close()
				return snap, fmt.Errorf("failed to decode options for job %s: %w", j.ID, err)
			}
		}
		if summaryJSON != "" {
			if err := json.Unmarshal([]byte(summaryJSON), &j.Summary); err != nil {
				rows.Close()
				return snap, fmt.Errorf("failed to decode summary for job %s: %w", j.ID, err)
			}
		}
		if errorsJSON != "" {
			if err := json.Unmarshal([]byte(errorsJSON), &j.Errors); err != nil {
				rows.Close()
				return snap, fmt.Errorf("failed to decode errors for job %s: %w", j.ID, err)
			}
		}
		snap.Jobs = append(snap.Jobs, j)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	if saved, err := s.getMetadata("saved_at"); err == nil && saved != "" {
		if t, perr := time.Parse(time.RFC3339, saved); perr == nil {
			snap.SavedAt = t
		}
	}
	return snap, nil
}

// Backup writes a consistent copy of the database to dstPath.
func (s *Store) Backup(ctx context.Context, dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}
	if _, err := os.Stat(dstPath); err == nil {
		return fmt.Errorf("backup target %s already exists", dstPath)
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dstPath); err != nil {
		return fmt.Errorf("failed to back up to %s: %w", dstPath, err)
	}
	return nil
}

func upsertRoot(ctx context.Context, tx *sql.Tx, root models.Root) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO roots(alias, path, added_at, last_scan, scanned_capacity, scanned_free)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(alias) DO UPDATE SET
			path=excluded.path,
			last_scan=excluded.last_scan,
			scanned_capacity=excluded.scanned_capacity,
			scanned_free=excluded.scanned_free
	`, root.Alias, root.Path, timeToUnix(root.AddedAt), timeToUnix(root.LastScan),
		root.ScannedCapacity, root.ScannedFree)
	return err
}

func insertFiles(ctx context.Context, tx *sql.Tx, records []models.FileRecord) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files(root, path, name, dir, ext, size, mod_time, is_dir, meta_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(root, path) DO UPDATE SET
			name=excluded.name,
			dir=excluded.dir,
			ext=excluded.ext,
			size=excluded.size,
			mod_time=excluded.mod_time,
			is_dir=excluded.is_dir,
			meta_json=excluded.meta_json
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range records {
		metaJSON := ""
		if len(f.Meta) > 0 {
			b, err := json.Marshal(f.Meta)
			if err != nil {
				return fmt.Errorf("failed to encode meta for %s/%s: %w", f.Root, f.Path, err)
			}
			metaJSON = string(b)
		}
		_, err = stmt.ExecContext(ctx,
			f.Root, f.Path, f.Name, f.Dir, f.Ext, f.Size, timeToUnix(f.ModTime), boolToInt(f.IsDir), metaJSON)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) setMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata(key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, key, value)
	return err
}

func (s *Store) getMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func timeToUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
