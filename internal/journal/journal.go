package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jfmyers9/encore/pkg/resilient"
	_ "modernc.org/sqlite"
)

// Journal keeps a persistent record of API calls and how they ended, using SQLite
type Journal struct {
	db *sql.DB
}

// Entry is one recorded call
type Entry struct {
	ID        int64
	CallID    string
	Operation string
	Outcome   resilient.Outcome
	Category  string // empty on success
	Label     string
	Status    int
	Attempts  int
	Waited    time.Duration
	Error     string
	Timestamp time.Time
}

// New opens (or creates) a journal backed by SQLite
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool size to 1 for in-memory databases to ensure consistency
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS calls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			call_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			outcome TEXT NOT NULL,
			category TEXT,
			label TEXT,
			status INTEGER NOT NULL DEFAULT 0,
			attempts INTEGER NOT NULL,
			waited_ms INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			timestamp INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_calls_outcome ON calls(outcome, timestamp);
		CREATE INDEX IF NOT EXISTS idx_calls_timestamp ON calls(timestamp);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Record stores an entry and returns its row id
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	query := `
		INSERT INTO calls (call_id, operation, outcome, category, label, status, attempts, waited_ms, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := j.db.ExecContext(ctx, query,
		e.CallID,
		e.Operation,
		e.Outcome.String(),
		nullString(e.Category),
		nullString(e.Label),
		e.Status,
		e.Attempts,
		e.Waited.Milliseconds(),
		nullString(e.Error),
		e.Timestamp.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert call: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// Recent returns the newest entries first
// A limit <= 0 returns everything
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return j.query(ctx, "", limit)
}

// Failures returns the newest unsuccessful entries first
func (j *Journal) Failures(ctx context.Context, limit int) ([]Entry, error) {
	return j.query(ctx, "WHERE outcome != 'success'", limit)
}

func (j *Journal) query(ctx context.Context, where string, limit int) ([]Entry, error) {
	query := `
		SELECT id, call_id, operation, outcome, COALESCE(category, ''), COALESCE(label, ''),
			status, attempts, waited_ms, COALESCE(error, ''), timestamp
		FROM calls
	` + where + `
		ORDER BY timestamp DESC, id DESC
	`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := j.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var outcome string
		var waitedMs, timestampMs int64

		err := rows.Scan(
			&e.ID,
			&e.CallID,
			&e.Operation,
			&outcome,
			&e.Category,
			&e.Label,
			&e.Status,
			&e.Attempts,
			&waitedMs,
			&e.Error,
			&timestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}

		e.Outcome, err = resilient.ParseOutcome(outcome)
		if err != nil {
			return nil, err
		}
		e.Waited = time.Duration(waitedMs) * time.Millisecond
		e.Timestamp = time.UnixMilli(timestampMs)

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calls: %w", err)
	}

	return entries, nil
}

// Count returns the number of recorded calls
// If onlyFailures is true, successful calls are not counted
func (j *Journal) Count(ctx context.Context, onlyFailures bool) (int, error) {
	query := "SELECT COUNT(*) FROM calls"
	if onlyFailures {
		query += " WHERE outcome != 'success'"
	}

	var count int
	if err := j.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count calls: %w", err)
	}

	return count, nil
}

// Stats returns the number of calls per outcome
func (j *Journal) Stats(ctx context.Context) (map[resilient.Outcome]int, error) {
	rows, err := j.db.QueryContext(ctx, "SELECT outcome, COUNT(*) FROM calls GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[resilient.Outcome]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		o, err := resilient.ParseOutcome(outcome)
		if err != nil {
			return nil, err
		}
		stats[o] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats: %w", err)
	}

	return stats, nil
}

// Cleanup removes entries older than maxAge to prevent unbounded growth
func (j *Journal) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()

	result, err := j.db.ExecContext(ctx, "DELETE FROM calls WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old calls: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
