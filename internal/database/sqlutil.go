package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/biomatch/internal/biometric"
)

// SQLStatements are the dialect-specific statements run by SQLStore.
type SQLStatements struct {
	// Lock takes the writer lock inside an Update transaction. Empty when
	// beginning the transaction already serializes writers.
	Lock string
	// SelectEnrollments returns id, name, phone, template, registered_at in scan order.
	SelectEnrollments string
	SelectLastID      string
	DeleteEnrollments string
	// InsertEnrollment binds id, position, name, phone, template, registered_at.
	InsertEnrollment string
	// UpdateLastID binds the new high-water mark.
	UpdateLastID string
}

// SQLStore persists snapshots through database/sql. The enrollments table and
// the single-row high-water mark are always replaced in one transaction.
type SQLStore struct {
	DB         *sql.DB
	Statements SQLStatements

	// TimeValue converts registered_at for binding. Nil binds a UTC time.Time.
	TimeValue func(time.Time) any
	// ScanTime converts a scanned registered_at. Nil expects a time.Time.
	ScanTime func(src any) (time.Time, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// LoadSnapshot reads all enrollments and the high-water mark.
func (s *SQLStore) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	return s.load(ctx, s.DB)
}

// SaveSnapshot replaces the stored snapshot in one transaction.
func (s *SQLStore) SaveSnapshot(ctx context.Context, snapshot Snapshot) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := s.replace(ctx, tx, snapshot); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Update locks, reloads, applies fn and saves within one transaction.
func (s *SQLStore) Update(ctx context.Context, fn UpdateFunc) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if s.Statements.Lock != "" {
		if _, err := tx.ExecContext(ctx, s.Statements.Lock); err != nil {
			return fmt.Errorf("lock enrollments: %w", err)
		}
	}

	current, err := s.load(ctx, tx)
	if err != nil {
		return err
	}
	next, changed, err := fn(current)
	if err != nil || !changed {
		return err
	}

	if err := s.replace(ctx, tx, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) load(ctx context.Context, q queryer) (Snapshot, error) {
	rows, err := q.QueryContext(ctx, s.Statements.SelectEnrollments)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []Enrollment{}
	for rows.Next() {
		var e Enrollment
		var tmpl []byte
		var registeredAt any
		if err := rows.Scan(&e.ID, &e.Name, &e.Phone, &tmpl, &registeredAt); err != nil {
			return Snapshot{}, fmt.Errorf("scan enrollment: %w", err)
		}
		e.Template = biometric.Template(tmpl)
		if err := e.Template.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("enrollment %d: %w", e.ID, err)
		}
		if e.RegisteredAt, err = s.scanTime(registeredAt); err != nil {
			return Snapshot{}, fmt.Errorf("enrollment %d: parse registered_at: %w", e.ID, err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate enrollments: %w", err)
	}

	snapshot := Snapshot{Enrollments: enrollments}
	err = q.QueryRowContext(ctx, s.Statements.SelectLastID).Scan(&snapshot.LastID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("query last id: %w", err)
	}
	snapshot.LastID = snapshot.HighestID()
	return snapshot, nil
}

func (s *SQLStore) replace(ctx context.Context, q queryer, snapshot Snapshot) error {
	if _, err := q.ExecContext(ctx, s.Statements.DeleteEnrollments); err != nil {
		return fmt.Errorf("delete enrollments: %w", err)
	}

	if len(snapshot.Enrollments) > 0 {
		stmt, err := q.PrepareContext(ctx, s.Statements.InsertEnrollment)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range snapshot.Enrollments {
			e := &snapshot.Enrollments[i]
			if _, err := stmt.ExecContext(ctx, e.ID, i, e.Name, e.Phone, []byte(e.Template), s.timeValue(e.RegisteredAt)); err != nil {
				return fmt.Errorf("insert enrollment %d: %w", e.ID, err)
			}
		}
	}

	if _, err := q.ExecContext(ctx, s.Statements.UpdateLastID, snapshot.HighestID()); err != nil {
		return fmt.Errorf("update last id: %w", err)
	}
	return nil
}

func (s *SQLStore) timeValue(t time.Time) any {
	if s.TimeValue != nil {
		return s.TimeValue(t)
	}
	return t.UTC()
}

func (s *SQLStore) scanTime(src any) (time.Time, error) {
	if s.ScanTime != nil {
		return s.ScanTime(src)
	}
	t, ok := src.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected type %T", src)
	}
	return t.UTC(), nil
}
