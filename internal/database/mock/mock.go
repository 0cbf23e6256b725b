// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/biomatch/internal/database"
)

// MockBackend is an in-memory implementation of database.Backend
type MockBackend struct {
	mu          sync.Mutex
	enrollments []database.Enrollment
	lastID      int64

	// Error injection
	LoadError  error
	SaveError  error
	CloseError error

	// Call tracking
	SaveCalls int
	Closed    bool
}

// NewMockBackend creates a new mock backend pre-populated with the given enrollments
func NewMockBackend(enrollments ...database.Enrollment) *MockBackend {
	snapshot := database.Snapshot{Enrollments: database.CloneEnrollments(enrollments)}
	return &MockBackend{enrollments: snapshot.Enrollments, lastID: snapshot.HighestID()}
}

// Name returns the backend name
func (m *MockBackend) Name() string {
	return "mock"
}

// LoadSnapshot returns a copy of the stored snapshot
func (m *MockBackend) LoadSnapshot(ctx context.Context) (database.Snapshot, error) {
	if m.LoadError != nil {
		return database.Snapshot{}, m.LoadError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return database.Snapshot{Enrollments: database.CloneEnrollments(m.enrollments), LastID: m.lastID}, nil
}

// SaveSnapshot replaces the stored snapshot
func (m *MockBackend) SaveSnapshot(ctx context.Context, snapshot database.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}
	m.enrollments = database.CloneEnrollments(snapshot.Enrollments)
	m.lastID = snapshot.HighestID()
	return nil
}

// LastID returns the persisted id high-water mark
func (m *MockBackend) LastID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastID
}

// Saved returns a copy of what was last persisted
func (m *MockBackend) Saved() []database.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return database.CloneEnrollments(m.enrollments)
}

// Calls returns the number of SaveSnapshot calls
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SaveCalls
}

// Close marks the backend as closed
func (m *MockBackend) Close() error {
	m.Closed = true
	return m.CloseError
}
