// Package journal keeps a SQLite ledger of every processed capture so the
// operator can review what went where. It indexes captures, not note
// content; the vault itself stays the source of truth.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS captures (
	id              TEXT PRIMARY KEY,
	kind            TEXT NOT NULL,
	origin          TEXT NOT NULL DEFAULT '',
	folder          TEXT NOT NULL DEFAULT '',
	title           TEXT NOT NULL DEFAULT '',
	note_path       TEXT NOT NULL,
	attachment_path TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT '',
	warnings        TEXT NOT NULL DEFAULT '[]',
	checksum        TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_captures_created ON captures(created_at);
`

// Record is one processed item.
type Record struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Origin         string    `json:"origin,omitempty"`
	Folder         string    `json:"folder"`
	Title          string    `json:"title"`
	NotePath       string    `json:"note_path"`
	AttachmentPath string    `json:"attachment_path,omitempty"`
	Source         string    `json:"source"`
	Warnings       []string  `json:"warnings,omitempty"`
	Checksum       string    `json:"checksum,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// DB wraps a sql.DB with journal operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Insert appends a record. A missing ID or timestamp is filled in.
func (db *DB) Insert(r Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	warningsJSON, _ := json.Marshal(r.Warnings)

	_, err := db.conn.Exec(`
		INSERT INTO captures (id, kind, origin, folder, title, note_path, attachment_path, source, warnings, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Kind, r.Origin, r.Folder, r.Title, r.NotePath, r.AttachmentPath, r.Source, string(warningsJSON), r.Checksum, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("journal: insert: %w", err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (db *DB) Recent(limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, kind, origin, folder, title, note_path, attachment_path, source, warnings, checksum, created_at
		FROM captures ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var warningsJSON string
		if err := rows.Scan(&r.ID, &r.Kind, &r.Origin, &r.Folder, &r.Title, &r.NotePath,
			&r.AttachmentPath, &r.Source, &warningsJSON, &r.Checksum, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		_ = json.Unmarshal([]byte(warningsJSON), &r.Warnings)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SeenChecksum reports whether an identical content checksum was already
// captured, for duplicate-capture warnings.
func (db *DB) SeenChecksum(checksum string) (bool, error) {
	if checksum == "" {
		return false, nil
	}
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(1) FROM captures WHERE checksum = ?`, checksum).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("journal: seen checksum: %w", err)
	}
	return n > 0, nil
}
