// Package sqlite stores enrollments in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kozaktomas/biomatch/internal/database"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS enrollments (
	id            INTEGER PRIMARY KEY,
	position      INTEGER NOT NULL,
	name          TEXT    NOT NULL,
	phone         TEXT    NOT NULL,
	template      BLOB    NOT NULL,
	registered_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS enrollments_position_idx ON enrollments(position);
CREATE TABLE IF NOT EXISTS enrollment_meta (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	last_id INTEGER NOT NULL
);
INSERT OR IGNORE INTO enrollment_meta (id, last_id) SELECT 1, COALESCE(MAX(id), 0) FROM enrollments;
`

// Writers begin with BEGIN IMMEDIATE (see Open), so no explicit lock statement.
var statements = database.SQLStatements{
	SelectEnrollments: `
		SELECT id, name, phone, template, registered_at
		FROM enrollments
		ORDER BY position
	`,
	SelectLastID:      "SELECT last_id FROM enrollment_meta WHERE id = 1",
	DeleteEnrollments: "DELETE FROM enrollments",
	InsertEnrollment:  "INSERT INTO enrollments (id, position, name, phone, template, registered_at) VALUES (?, ?, ?, ?, ?, ?)",
	UpdateLastID:      "UPDATE enrollment_meta SET last_id = ? WHERE id = 1",
}

// Store is a SQLite-backed database.Backend.
type Store struct {
	*database.SQLStore
	db   *sql.DB
	path string
}

// Open opens (or creates) the database file and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure sqlite directory: %w", err)
	}

	// Immediate transactions take the write lock up front, so a reload inside
	// Update cannot race another process's commit.
	db, err := sql.Open("sqlite", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps the WAL writer serialized.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = FULL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		SQLStore: &database.SQLStore{
			DB:         db,
			Statements: statements,
			TimeValue:  formatTime,
			ScanTime:   parseTime,
		},
		db:   db,
		path: path,
	}, nil
}

// Name returns the backend name.
func (s *Store) Name() string {
	return "sqlite"
}

func formatTime(t time.Time) any {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case string:
		return time.Parse(time.RFC3339Nano, v)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(v))
	case time.Time:
		return v.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T", src)
	}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
