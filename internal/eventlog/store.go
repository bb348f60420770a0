// Package eventlog implements the event-log object type: a sqlite-backed
// record store plus the delegate that exports and imports its records
// through the archive pipeline.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS log_events (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	payload    TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_log_events_created ON log_events(created_at);
`

// Event is one event-log record.
type Event struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists event-log records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the event store at path, creating the parent
// directory if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(path)
}

// OpenInMemory opens an isolated in-memory store, ideal for tests.
func OpenInMemory() (*Store, error) {
	return open(":memory:")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL and a busy timeout for concurrent readers during export.
	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dsn}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts an event. Re-inserting an existing ID is a no-op, which makes
// import replays idempotent.
func (s *Store) Add(ctx context.Context, ev *Event) error {
	var payload *string
	if len(ev.Payload) > 0 {
		p := string(ev.Payload)
		payload = &p
	}

	createdAt := ev.CreatedAt.UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO log_events (id, kind, payload, created_at)
		VALUES (?, ?, ?, ?)
	`, ev.ID, ev.Kind, payload, createdAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM log_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Page returns up to limit events starting at offset, oldest first. The
// order is stable across calls, which export batching relies on.
func (s *Store) Page(ctx context.Context, offset, limit int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, payload, created_at
		FROM log_events
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var (
			ev        Event
			payload   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&ev.ID, &ev.Kind, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if payload.Valid {
			ev.Payload = json.RawMessage(payload.String)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse event timestamp: %w", err)
		}
		ev.CreatedAt = ts
		events = append(events, ev)
	}
	return events, rows.Err()
}
