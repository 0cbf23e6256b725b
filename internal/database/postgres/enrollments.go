package postgres

import (
	"github.com/kozaktomas/biomatch/internal/database"
)

var statements = database.SQLStatements{
	// The single meta row doubles as the writer lock.
	Lock: "SELECT last_id FROM enrollment_meta WHERE id = 1 FOR UPDATE",
	SelectEnrollments: `
		SELECT id, name, phone, template, registered_at
		FROM enrollments
		ORDER BY position
	`,
	SelectLastID:      "SELECT last_id FROM enrollment_meta WHERE id = 1",
	DeleteEnrollments: "DELETE FROM enrollments",
	InsertEnrollment: `INSERT INTO enrollments (id, position, name, phone, template, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
	UpdateLastID: "UPDATE enrollment_meta SET last_id = $1 WHERE id = 1",
}

// EnrollmentRepository provides PostgreSQL-backed enrollment storage
type EnrollmentRepository struct {
	*database.SQLStore
	pool *Pool
}

// NewEnrollmentRepository creates a new PostgreSQL enrollment repository
func NewEnrollmentRepository(pool *Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		SQLStore: &database.SQLStore{DB: pool.db, Statements: statements},
		pool:     pool,
	}
}

// Name returns the backend name.
func (r *EnrollmentRepository) Name() string {
	return "postgres"
}

// Close closes the connection pool.
func (r *EnrollmentRepository) Close() error {
	return r.pool.Close()
}
