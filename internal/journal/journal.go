// Package journal records Confluence write operations in a local SQLite
// database so an operator can see what the server changed.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/olgasafonova/confluence-mcp-server/metrics"
)

const (
	// DefaultLimit is used by Recent when limit is not positive
	DefaultLimit = 20

	// MaxLimit caps the number of entries Recent returns
	MaxLimit = 200
)

const schema = `
CREATE TABLE IF NOT EXISTS writes (
	id          TEXT PRIMARY KEY,
	operation   TEXT NOT NULL,
	content_id  TEXT NOT NULL,
	version     INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_writes_created_at ON writes(created_at);
`

// Entry statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Entry is one recorded write.
type Entry struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	ContentID string    `json:"content_id"`
	Version   int       `json:"version,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal is an append-only log of writes backed by SQLite.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path. ":memory:" gives a private
// in-memory journal.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure journal %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema %s: %w", path, err)
	}

	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores e. ID and CreatedAt are filled in when empty.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	if e.Status == "" {
		e.Status = StatusSuccess
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO writes (id, operation, content_id, version, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Operation, e.ContentID, e.Version, e.Status, e.Error, e.CreatedAt.UnixNano())
	if err != nil {
		metrics.JournalWrites.WithLabelValues(StatusError).Inc()
		return Entry{}, fmt.Errorf("record %s on %s: %w", e.Operation, e.ContentID, err)
	}

	metrics.JournalWrites.WithLabelValues(StatusSuccess).Inc()
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, operation, content_id, version, status, error, created_at
		 FROM writes ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Operation, &e.ContentID, &e.Version, &e.Status, &e.Error, &created); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}

// normalizeLimit ensures limit is within bounds
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
