package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"videoconverter/internal/convert"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Store persists conversion history in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
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
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open creates or connects to the history database at path and prunes rows
// older than retention when retention is positive.
func Open(ctx context.Context, path string, retention time.Duration) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
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
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if retention > 0 {
		if _, err := store.Prune(ctx, store.now().Add(-retention)); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends an entry, assigning an ID and timestamp when missing.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO conversions (
			id, request_id, kind, file_name, format, status, failure_kind, message,
			word_count, language, output_bytes, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.RequestID, entry.Kind, entry.FileName, entry.Format, string(entry.Status),
			entry.FailureKind, entry.Message, entry.WordCount, entry.Language, entry.OutputBytes,
			entry.Duration.Milliseconds(), entry.CreatedAt.UnixMilli(),
		)
		return err
	})
	if err != nil {
		return Entry{}, fmt.Errorf("record conversion: %w", err)
	}
	return entry, nil
}

// RecordConversion stores a pipeline report.
func (s *Store) RecordConversion(ctx context.Context, report convert.Report) error {
	entry := Entry{
		RequestID:   report.RequestID,
		Kind:        string(report.Kind),
		FileName:    report.FileName,
		Format:      report.Format,
		Status:      StatusSucceeded,
		WordCount:   report.WordCount,
		Language:    report.Language,
		OutputBytes: report.OutputBytes,
		Duration:    report.Duration,
		CreatedAt:   report.CompletedAt,
	}
	if report.Failure != nil {
		entry.Status = StatusFailed
		entry.FailureKind = string(report.Failure.Kind)
		entry.Message = report.Failure.Message
	}
	_, err := s.Record(ctx, entry)
	return err
}

// List returns the most recent entries first. Non-positive limits use
// DefaultListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, request_id, kind, file_name, format, status, failure_kind, message,
		word_count, language, output_bytes, duration_ms, created_at
		FROM conversions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			status     string
			durationMS int64
			createdMS  int64
		)
		if err := rows.Scan(&entry.ID, &entry.RequestID, &entry.Kind, &entry.FileName, &entry.Format,
			&status, &entry.FailureKind, &entry.Message, &entry.WordCount, &entry.Language,
			&entry.OutputBytes, &durationMS, &createdMS); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		entry.Status = Status(status)
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entry.CreatedAt = time.UnixMilli(createdMS).UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Prune deletes entries created before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM conversions WHERE created_at < ?`, cutoff.UnixMilli())
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune conversions: %w", err)
	}
	return removed, nil
}
