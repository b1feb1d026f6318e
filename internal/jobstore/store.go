// Package jobstore persists render job snapshots to SQLite so finished jobs
// remain queryable after the in-memory registry is gone.
package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cuecast/internal/jobs"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages job history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Record upserts a snapshot.
func (s *Store) Record(ctx context.Context, snap jobs.Snapshot) error {
	if snap.ID == "" {
		return errors.New("record job: empty id")
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO render_jobs (id, status, message, duration_ms, output_path, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET
                 status = excluded.status,
                 message = excluded.message,
                 duration_ms = excluded.duration_ms,
                 output_path = excluded.output_path,
                 updated_at = excluded.updated_at`,
			snap.ID,
			string(snap.Status),
			nullableString(snap.Message),
			snap.DurationMs,
			nullableString(snap.Output),
			formatTime(snap.CreatedAt),
			formatTime(snap.UpdatedAt),
		)
		return err
	})
}

const jobColumns = "id, status, message, duration_ms, output_path, created_at, updated_at"

// Get fetches a job by id. The boolean is false when no row exists.
func (s *Store) Get(ctx context.Context, id string) (jobs.Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM render_jobs WHERE id = ?`, id)
	snap, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return jobs.Snapshot{}, false, nil
	}
	if err != nil {
		return jobs.Snapshot{}, false, fmt.Errorf("get job: %w", err)
	}
	return snap, true, nil
}

// List returns jobs newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...jobs.Status) ([]jobs.Snapshot, error) {
	query := `SELECT ` + jobColumns + ` FROM render_jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []jobs.Snapshot
	for rows.Next() {
		snap, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (jobs.Snapshot, error) {
	var (
		snap             jobs.Snapshot
		status           string
		message, output  sql.NullString
		created, updated string
	)
	if err := row.Scan(&snap.ID, &status, &message, &snap.DurationMs, &output, &created, &updated); err != nil {
		return jobs.Snapshot{}, err
	}
	snap.Status = jobs.Status(status)
	snap.Message = message.String
	snap.Output = output.String
	snap.CreatedAt = parseTime(created)
	snap.UpdatedAt = parseTime(updated)
	return snap, nil
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}
