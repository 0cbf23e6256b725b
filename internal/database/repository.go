package database

import (
	"context"
)

// EnrollmentLoader reads the persisted enrollment set
type EnrollmentLoader interface {
	// LoadSnapshot returns all enrollments in insertion order and the id
	// high-water mark. An empty (or not yet created) storage yields an empty
	// snapshot and no error.
	LoadSnapshot(ctx context.Context) (Snapshot, error)
}

// EnrollmentWriter replaces the persisted enrollment set
type EnrollmentWriter interface {
	EnrollmentLoader

	// SaveSnapshot atomically replaces everything stored with the given snapshot.
	// Either the whole set is written or the previous state is kept.
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
}

// UpdateFunc computes the next snapshot from the current one. Returning
// changed=false (or an error) leaves storage untouched.
type UpdateFunc func(current Snapshot) (next Snapshot, changed bool, err error)

// Updater is implemented by backends that several processes may share. Update
// holds an exclusive lock across loading the current snapshot, calling fn and
// saving its result, so concurrent writers never overwrite each other.
//
// An error returned by fn is passed through unchanged.
type Updater interface {
	Update(ctx context.Context, fn UpdateFunc) error
}

// Backend is a durable storage for the enrollment set
type Backend interface {
	EnrollmentWriter

	// Name identifies the backend in logs (e.g. "file", "postgres").
	Name() string
	// Close releases connections and locks held by the backend.
	Close() error
}
