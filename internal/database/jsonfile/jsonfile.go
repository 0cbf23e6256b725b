// Package jsonfile stores the enrollment set as a single JSON document on disk.
//
// Every save replaces the whole file through a uniquely named temp file and a
// rename, so a crash never leaves a partially written document behind. An
// advisory lock file serializes access between processes sharing the same path
// (for example the server and a CLI command); Update holds it across the
// reload, the change and the write.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/kozaktomas/biomatch/internal/database"
)

const lockRetryDelay = 50 * time.Millisecond

// Store is a file-backed database.Backend.
type Store struct {
	// mu serializes goroutines; the flock only excludes other processes.
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// New creates a store for the given file path. The file and its parent
// directory are created lazily on the first save.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("data file path is required")
	}
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Name returns the backend name.
func (s *Store) Name() string {
	return "file"
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// LoadSnapshot reads the data file. A missing file is an empty set.
func (s *Store) LoadSnapshot(ctx context.Context) (database.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return database.Snapshot{}, err
	}
	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return database.Snapshot{}, fmt.Errorf("acquire read lock: %w", err)
	}
	if !locked {
		return database.Snapshot{}, errors.New("acquire read lock: not acquired")
	}
	defer s.lock.Unlock() //nolint:errcheck

	return s.read()
}

// SaveSnapshot atomically replaces the data file.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot database.Snapshot) error {
	data, err := database.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockExclusive(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return s.write(data)
}

// Update holds the exclusive lock while it rereads the data file, applies fn
// and writes the result, so writes from other processes are never lost.
func (s *Store) Update(ctx context.Context, fn database.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockExclusive(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	next, changed, err := fn(current)
	if err != nil || !changed {
		return err
	}

	data, err := database.MarshalSnapshot(next)
	if err != nil {
		return err
	}
	return s.write(data)
}

func (s *Store) lockExclusive(ctx context.Context) (func(), error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire write lock: %w", err)
	}
	if !locked {
		return nil, errors.New("acquire write lock: not acquired")
	}
	return func() { _ = s.lock.Unlock() }, nil
}

// read loads the data file. Callers hold the file lock.
func (s *Store) read() (database.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.Snapshot{Enrollments: []database.Enrollment{}}, nil
		}
		return database.Snapshot{}, fmt.Errorf("read data file: %w", err)
	}

	snapshot, err := database.UnmarshalSnapshot(data)
	if err != nil {
		return database.Snapshot{}, fmt.Errorf("load %s: %w", s.path, err)
	}
	return snapshot, nil
}

// write replaces the data file. Callers hold the exclusive file lock.
func (s *Store) write(data []byte) error {
	tmpPath := fmt.Sprintf("%s.%s.tmp", s.path, uuid.NewString())
	if err := writeFileSync(tmpPath, data); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Close releases the lock file handle.
func (s *Store) Close() error {
	if err := s.lock.Close(); err != nil {
		return fmt.Errorf("closing lock: %w", err)
	}
	return nil
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}

// writeFileSync writes data and flushes it to stable storage before returning.
func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return nil
}
