// Package journal keeps a local SQLite record of provisioning and cleanup
// runs.
package journal

import (
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"nathanbeddoewebdev/provctl/internal/domain"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Entry is one recorded run.
type Entry struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Command    string    `json:"command"`
	Args       string    `json:"args,omitempty"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	Resources  string    `json:"resources,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// Repository persists journal entries.
type Repository interface {
	Save(entry *Entry) error
	List(limit int) ([]Entry, error)
	ListByCommand(command string, limit int) ([]Entry, error)
	Prune(olderThan time.Duration) (int64, error)
	Close() error
}

// SQLiteRepository implements Repository on a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// Open opens the journal at DefaultPath.
func Open() (*SQLiteRepository, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt creates or opens a journal at path.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS runs (
            id          INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp   TEXT    NOT NULL,
            command     TEXT    NOT NULL,
            args        TEXT    NOT NULL DEFAULT '',
            outcome     TEXT    NOT NULL DEFAULT '',
            detail      TEXT    NOT NULL DEFAULT '',
            resources   TEXT    NOT NULL DEFAULT '',
            duration_ms INTEGER NOT NULL DEFAULT 0
        );
        CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
        CREATE INDEX IF NOT EXISTS idx_runs_command ON runs(command);
    `
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("journal: migration failed: %w", err)
	}
	return nil
}

// Save inserts entry and sets its ID. A zero Timestamp becomes now.
func (r *SQLiteRepository) Save(entry *Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	result, err := r.db.Exec(`
        INSERT INTO runs (timestamp, command, args, outcome, detail, resources, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Command, entry.Args,
		entry.Outcome, entry.Detail, entry.Resources, entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("journal: insert failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("journal: failed to get last insert ID: %w", err)
	}
	entry.ID = id
	return nil
}

// List returns the most recent limit entries, newest first.
func (r *SQLiteRepository) List(limit int) ([]Entry, error) {
	rows, err := r.db.Query(`
        SELECT id, timestamp, command, args, outcome, detail, resources, duration_ms
        FROM runs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// ListByCommand is List restricted to one command path.
func (r *SQLiteRepository) ListByCommand(command string, limit int) ([]Entry, error) {
	rows, err := r.db.Query(`
        SELECT id, timestamp, command, args, outcome, detail, resources, duration_ms
        FROM runs WHERE command = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, command, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Prune deletes entries older than olderThan and returns how many went.
func (r *SQLiteRepository) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`DELETE FROM runs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("journal: delete failed: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var ts string
		err := rows.Scan(
			&entry.ID, &ts, &entry.Command, &entry.Args,
			&entry.Outcome, &entry.Detail, &entry.Resources, &entry.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("journal: scan failed: %w", err)
		}
		entry.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SummarizeHandles renders per-kind counts, e.g. "load_balancer=1 server=2".
func SummarizeHandles(handles []domain.Handle) string {
	counts := map[string]int{}
	for _, h := range handles {
		counts[string(h.Kind)]++
	}
	parts := make([]string, 0, len(counts))
	for _, kind := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, counts[kind]))
	}
	return strings.Join(parts, " ")
}
