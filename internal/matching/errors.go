package matching

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate is matched by every *DuplicateError.
	ErrDuplicate = errors.New("duplicate enrollment")
	// ErrPersistence is matched by every *PersistenceError.
	ErrPersistence = errors.New("persistence failed")
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("enrollment not found")
)

// ValidationError reports a rejected input (template length, blank name, bad threshold).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DuplicateError is returned by enrollment when the candidate matches an
// existing record at the duplicate threshold. No record is created.
type DuplicateError struct {
	ExistingID   int64
	ExistingName string
	Similarity   float64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("template already enrolled as %q (id %d, similarity %.2f%%)",
		e.ExistingName, e.ExistingID, e.Similarity)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// PersistenceError wraps a failed durable write. The in-memory store is left at
// the last successfully persisted state.
//
// The backend error can be accessed via errors.Unwrap.
type PersistenceError struct {
	Op    string
	cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persist enrollments: %v", e.Op, e.cause)
}

func (e *PersistenceError) Unwrap() error { return e.cause }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Outcome classifies an operation result into a short label for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
