// Package matching implements the template store, the best-match search over it
// and the enrollment service with duplicate detection.
package matching

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/biomatch/internal/biometric"
	"github.com/kozaktomas/biomatch/internal/database"
)

// Store owns the ordered enrollment set. Insertion order is scan order.
//
// Reads take a shared lock for one full scan. Mutations hold the exclusive lock
// across the scan, the durable write and the in-memory publish, so the store
// always equals the last successfully persisted state.
//
// When the writer is a database.Updater, every mutation rereads the persisted
// snapshot under the backend's lock before scanning, so records written by
// other processes are neither overwritten nor missed by the duplicate check.
// Reads serve the in-memory copy, which catches up on the next mutation.
type Store struct {
	mu      sync.RWMutex
	records []database.Enrollment
	lastID  int64
	writer  database.EnrollmentWriter
}

// NewStore returns an empty store persisting through writer.
func NewStore(writer database.EnrollmentWriter) *Store {
	return &Store{writer: writer}
}

// LoadStore builds a store from the records currently persisted by writer.
func LoadStore(ctx context.Context, writer database.EnrollmentWriter) (*Store, error) {
	snapshot, err := writer.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	for i := range snapshot.Enrollments {
		if err := snapshot.Enrollments[i].Template.Validate(); err != nil {
			return nil, fmt.Errorf("enrollment %d: %w", snapshot.Enrollments[i].ID, err)
		}
	}
	s := &Store{writer: writer}
	s.publish(snapshot)
	return s, nil
}

// Len returns the number of enrolled records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// List returns a copy of all records in scan order.
func (s *Store) List() []database.Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := database.CloneEnrollments(s.records)
	if out == nil {
		out = []database.Enrollment{}
	}
	return out
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id int64) (database.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.records, id); i >= 0 {
		return s.records[i].Clone(), nil
	}
	return database.Enrollment{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

// FindBestMatch runs the best-match search against a consistent snapshot.
func (s *Store) FindBestMatch(candidate biometric.Template, threshold float64) (MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FindBestMatch(s.records, candidate, threshold)
}

// Insert checks candidate against the store at duplicateThreshold and, if
// nothing matches, appends a new record and persists the store.
func (s *Store) Insert(ctx context.Context, candidate biometric.Template, name, phone string,
	duplicateThreshold float64, registeredAt time.Time) (database.Enrollment, error) {
	if err := validateTemplate(candidate); err != nil {
		return database.Enrollment{}, err
	}
	if err := validateThreshold("duplicate threshold", duplicateThreshold); err != nil {
		return database.Enrollment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var record database.Enrollment
	err := s.apply(ctx, "enroll", func(current database.Snapshot) (database.Snapshot, bool, error) {
		res, err := FindBestMatch(current.Enrollments, candidate, duplicateThreshold)
		if err != nil {
			return database.Snapshot{}, false, err
		}
		if res.Matched {
			return database.Snapshot{}, false, &DuplicateError{
				ExistingID:   res.Enrollment.ID,
				ExistingName: res.Enrollment.Name,
				Similarity:   res.Similarity,
			}
		}

		record = database.Enrollment{
			ID:           nextID(current),
			Name:         name,
			Phone:        phone,
			Template:     candidate.Clone(),
			RegisteredAt: registeredAt.UTC(),
		}
		next := make([]database.Enrollment, len(current.Enrollments), len(current.Enrollments)+1)
		copy(next, current.Enrollments)
		next = append(next, record)
		return database.Snapshot{Enrollments: next, LastID: record.ID}, true, nil
	})
	if err != nil {
		return database.Enrollment{}, err
	}
	return record.Clone(), nil
}

// Delete removes the record with the given id. An unknown id is a no-op and
// does not touch storage. It reports whether a record was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	err := s.apply(ctx, "delete", func(current database.Snapshot) (database.Snapshot, bool, error) {
		i := indexOf(current.Enrollments, id)
		if i < 0 {
			return current, false, nil
		}
		removed = true
		return database.Snapshot{
			Enrollments: slices.Delete(slices.Clone(current.Enrollments), i, i+1),
			LastID:      current.HighestID(),
		}, true, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// Clear removes every record and persists the empty store. The id high-water
// mark is kept. It returns the number of records removed.
func (s *Store) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	err := s.apply(ctx, "clear", func(current database.Snapshot) (database.Snapshot, bool, error) {
		n = len(current.Enrollments)
		return database.Snapshot{Enrollments: []database.Enrollment{}, LastID: current.HighestID()}, true, nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// apply computes the next snapshot with fn and publishes it once persisted.
// Errors from fn are returned unchanged; storage errors become a
// PersistenceError. Callers hold the write lock.
func (s *Store) apply(ctx context.Context, op string, fn database.UpdateFunc) error {
	updater, ok := s.writer.(database.Updater)
	if !ok {
		next, changed, err := fn(s.snapshot())
		if err != nil || !changed {
			return err
		}
		return s.commit(ctx, op, next)
	}

	var (
		fnErr     error
		next      database.Snapshot
		persisted bool
	)
	err := updater.Update(ctx, func(current database.Snapshot) (database.Snapshot, bool, error) {
		// Storage is the source of truth: adopt it before deciding anything.
		s.publish(current)
		n, changed, err := fn(current)
		if err != nil {
			fnErr = err
			return database.Snapshot{}, false, err
		}
		next, persisted = n, changed
		return n, changed, nil
	})
	switch {
	case fnErr != nil:
		return fnErr
	case err != nil:
		return &PersistenceError{Op: op, cause: err}
	case persisted:
		s.publish(next)
	}
	return nil
}

// commit persists next and publishes it only after the write succeeded.
// Callers must hold the write lock.
func (s *Store) commit(ctx context.Context, op string, next database.Snapshot) error {
	if err := s.writer.SaveSnapshot(ctx, next); err != nil {
		return &PersistenceError{Op: op, cause: err}
	}
	s.publish(next)
	return nil
}

func (s *Store) snapshot() database.Snapshot {
	return database.Snapshot{Enrollments: s.records, LastID: s.lastID}
}

func (s *Store) publish(snapshot database.Snapshot) {
	s.records = snapshot.Enrollments
	if s.records == nil {
		s.records = []database.Enrollment{}
	}
	s.lastID = snapshot.HighestID()
}

// nextID is one past the highest id ever issued. Without deletions that is
// len+1; ids freed by delete or clear are never handed out again.
func nextID(current database.Snapshot) int64 {
	return current.HighestID() + 1
}

func indexOf(records []database.Enrollment, id int64) int {
	return slices.IndexFunc(records, func(e database.Enrollment) bool { return e.ID == id })
}
