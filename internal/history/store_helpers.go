package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vconv/internal/media"
)

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry                 Entry
		output, backend, msg  sql.NullString
		format                string
		startedRaw, finishRaw string
		elapsedMs             int64
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.ConversionID,
		&entry.SourcePath,
		&output,
		&format,
		&entry.Settings,
		&backend,
		&entry.Attempts,
		&entry.Result,
		&msg,
		&startedRaw,
		&finishRaw,
		&elapsedMs,
	); err != nil {
		return Entry{}, fmt.Errorf("scan conversion: %w", err)
	}
	entry.OutputPath = output.String
	entry.Backend = backend.String
	entry.ErrorMessage = msg.String
	entry.Format = media.ParseFormat(format)
	entry.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	if ts, err := parseTimeString(startedRaw); err == nil {
		entry.StartedAt = ts
	}
	if ts, err := parseTimeString(finishRaw); err == nil {
		entry.FinishedAt = ts
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
