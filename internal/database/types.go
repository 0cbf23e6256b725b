package database

import (
	"time"

	"github.com/kozaktomas/biomatch/internal/biometric"
)

// Enrollment is a template bound to an identity.
type Enrollment struct {
	ID           int64
	Name         string
	Phone        string
	Template     biometric.Template
	RegisteredAt time.Time
}

// Clone returns a deep copy of the enrollment (the template is copied too).
func (e Enrollment) Clone() Enrollment {
	e.Template = e.Template.Clone()
	return e
}

// CloneEnrollments deep-copies a slice of enrollments.
func CloneEnrollments(in []Enrollment) []Enrollment {
	if in == nil {
		return nil
	}
	out := make([]Enrollment, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// Snapshot is the persisted state: the enrollments in scan order and the
// highest id ever issued. LastID survives deletions and clears, so an id is
// never issued twice.
type Snapshot struct {
	Enrollments []Enrollment
	LastID      int64
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	s.Enrollments = CloneEnrollments(s.Enrollments)
	return s
}

// HighestID returns the larger of LastID and the highest live id. Stores
// written before LastID was tracked report their highest live id.
func (s Snapshot) HighestID() int64 {
	high := s.LastID
	for i := range s.Enrollments {
		high = max(high, s.Enrollments[i].ID)
	}
	return high
}
