// Package mariadb stores enrollments in a MariaDB (or MySQL) table.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kozaktomas/biomatch/internal/database"
)

var schema = []string{`
	CREATE TABLE IF NOT EXISTS enrollments (
		id            BIGINT       NOT NULL PRIMARY KEY,
		position      INT          NOT NULL,
		name          VARCHAR(255) NOT NULL,
		phone         VARCHAR(64)  NOT NULL,
		template      VARBINARY(512) NOT NULL,
		registered_at DATETIME(6)  NOT NULL,
		INDEX enrollments_position_idx (position)
	) CHARACTER SET utf8mb4`, `
	CREATE TABLE IF NOT EXISTS enrollment_meta (
		id      INT    NOT NULL PRIMARY KEY,
		last_id BIGINT NOT NULL
	)`,
	"INSERT IGNORE INTO enrollment_meta (id, last_id) SELECT 1, COALESCE(MAX(id), 0) FROM enrollments",
}

var statements = database.SQLStatements{
	// Row lock on the single meta row serializes writers.
	Lock: "SELECT last_id FROM enrollment_meta WHERE id = 1 FOR UPDATE",
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

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool. The DSN is normalized so that
// DATETIME columns scan into time.Time in UTC.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MariaDB DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Repository is a MariaDB-backed database.Backend.
type Repository struct {
	*database.SQLStore
	pool *Pool
}

// Open connects, creates the tables if needed and returns the repository.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := NewPool(dsn)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := pool.db.ExecContext(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Repository{
		SQLStore: &database.SQLStore{DB: pool.db, Statements: statements},
		pool:     pool,
	}, nil
}

// Name returns the backend name.
func (r *Repository) Name() string {
	return "mariadb"
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	return r.pool.Close()
}
