package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vconv/internal/convert"
	"vconv/internal/media"
)

// DefaultLimit is the number of rows `vconv history` shows without --limit.
const DefaultLimit = 20

// Entry is one recorded conversion.
type Entry struct {
	ID           int64
	ConversionID string
	SourcePath   string
	OutputPath   string
	Format       media.ContainerFormat
	Settings     string
	Backend      string
	Attempts     int
	Result       string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
	Elapsed      time.Duration
}

// Succeeded reports whether the conversion completed.
func (e Entry) Succeeded() bool {
	return e.Result == convert.ResultSucceeded
}

var _ convert.Recorder = (*Store)(nil)

// Store manages the conversion history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
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

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a finished conversion. Recording the same conversion ID twice
// replaces the earlier row.
func (s *Store) Record(ctx context.Context, outcome convert.Outcome) error {
	if outcome.ID == "" {
		return errors.New("record conversion: missing conversion id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (
            conversion_id, source_path, output_path, format, settings, backend,
            attempts, result, error_message, started_at, finished_at, elapsed_ms
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(conversion_id) DO UPDATE SET
            output_path = excluded.output_path,
            backend = excluded.backend,
            attempts = excluded.attempts,
            result = excluded.result,
            error_message = excluded.error_message,
            finished_at = excluded.finished_at,
            elapsed_ms = excluded.elapsed_ms`,
		outcome.ID,
		outcome.SourcePath,
		nullableString(outcome.OutputPath),
		outcome.Format.Label(),
		outcome.Settings.String(),
		nullableString(outcome.Backend),
		outcome.Attempts,
		outcome.Result,
		nullableString(outcome.ErrorMessage),
		formatTime(outcome.StartedAt),
		formatTime(outcome.FinishedAt),
		outcome.Elapsed().Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert conversion: %w", err)
	}
	return nil
}

// Recent returns up to limit conversions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversion_id, source_path, output_path, format, settings, backend,
                attempts, result, error_message, started_at, finished_at, elapsed_ms
         FROM conversions ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats counts recorded conversions by result.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT result, COUNT(1) FROM conversions GROUP BY result`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var result string
		var count int
		if err := rows.Scan(&result, &count); err != nil {
			return nil, err
		}
		stats[result] = count
	}
	return stats, rows.Err()
}

// Clear deletes every recorded conversion and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversions`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}
