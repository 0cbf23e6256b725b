package matching

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kozaktomas/biomatch/internal/biometric"
	"github.com/kozaktomas/biomatch/internal/database"
	"golang.org/x/text/unicode/norm"
)

// Default thresholds, in percent.
const (
	DefaultMatchThreshold     = 40.0
	DefaultDuplicateThreshold = 70.0
)

// Recorder receives operation metrics. Implement it to export them to a
// monitoring system.
type Recorder interface {
	RecordMatch(result MatchResult, duration time.Duration, err error)
	RecordEnroll(duration time.Duration, err error)
	RecordDelete(removed bool, err error)
	RecordClear(removed int, err error)
	SetEnrolled(n int)
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

func (NoopRecorder) RecordMatch(MatchResult, time.Duration, error) {}
func (NoopRecorder) RecordEnroll(time.Duration, error)             {}
func (NoopRecorder) RecordDelete(bool, error)                      {}
func (NoopRecorder) RecordClear(int, error)                        {}
func (NoopRecorder) SetEnrolled(int)                               {}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	MatchThreshold     float64
	DuplicateThreshold float64
	Logger             *slog.Logger
	Recorder           Recorder
	Now                func() time.Time
}

// Service is the entry point for match, enroll, delete and clear.
type Service struct {
	store              *Store
	matchThreshold     float64
	duplicateThreshold float64
	logger             *slog.Logger
	recorder           Recorder
	now                func() time.Time
}

// NewService wraps store. Thresholds outside [0, 100] are rejected.
func NewService(store *Store, opts Options) (*Service, error) {
	s := &Service{
		store:              store,
		matchThreshold:     opts.MatchThreshold,
		duplicateThreshold: opts.DuplicateThreshold,
		logger:             opts.Logger,
		recorder:           opts.Recorder,
		now:                opts.Now,
	}
	if s.matchThreshold == 0 {
		s.matchThreshold = DefaultMatchThreshold
	}
	if s.duplicateThreshold == 0 {
		s.duplicateThreshold = DefaultDuplicateThreshold
	}
	if err := validateThreshold("match threshold", s.matchThreshold); err != nil {
		return nil, err
	}
	if err := validateThreshold("duplicate threshold", s.duplicateThreshold); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.recorder == nil {
		s.recorder = NoopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.recorder.SetEnrolled(store.Len())
	return s, nil
}

// MatchThreshold returns the configured verification threshold.
func (s *Service) MatchThreshold() float64 { return s.matchThreshold }

// DuplicateThreshold returns the configured enrollment duplicate threshold.
func (s *Service) DuplicateThreshold() float64 { return s.duplicateThreshold }

// Match finds the best enrolled record for candidate. A threshold <= 0 selects
// the configured match threshold.
func (s *Service) Match(ctx context.Context, candidate biometric.Template, threshold float64) (MatchResult, error) {
	if threshold <= 0 {
		threshold = s.matchThreshold
	}
	start := time.Now()
	res, err := s.store.FindBestMatch(candidate, threshold)
	s.recorder.RecordMatch(res, time.Since(start), err)
	if err != nil {
		return MatchResult{}, err
	}

	if res.Matched {
		s.logger.InfoContext(ctx, "template matched",
			"id", res.Enrollment.ID,
			"similarity", res.Similarity,
			"threshold", threshold)
	} else {
		s.logger.InfoContext(ctx, "no match",
			"best_similarity", res.BestSimilarity,
			"threshold", threshold,
			"enrolled", s.store.Len())
	}
	return res, nil
}

// Enroll registers a new identity unless the template is already enrolled at
// the duplicate threshold. Name is NFC-normalized; name and phone are trimmed
// and must not be blank.
func (s *Service) Enroll(ctx context.Context, candidate biometric.Template, name, phone string) (database.Enrollment, error) {
	start := time.Now()
	e, err := s.enroll(ctx, candidate, name, phone)
	s.recorder.RecordEnroll(time.Since(start), err)
	if err != nil {
		s.logger.WarnContext(ctx, "enrollment rejected", "outcome", Outcome(err), "error", err)
		return database.Enrollment{}, err
	}
	s.recorder.SetEnrolled(s.store.Len())
	s.logger.InfoContext(ctx, "enrolled", "id", e.ID, "name", e.Name)
	return e, nil
}

func (s *Service) enroll(ctx context.Context, candidate biometric.Template, name, phone string) (database.Enrollment, error) {
	if err := validateTemplate(candidate); err != nil {
		return database.Enrollment{}, err
	}
	name = NormalizeName(name)
	if name == "" {
		return database.Enrollment{}, invalid("name", "must not be empty")
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return database.Enrollment{}, invalid("phone", "must not be empty")
	}
	return s.store.Insert(ctx, candidate, name, phone, s.duplicateThreshold, s.now())
}

// Delete removes the record with the given id. Deleting an unknown id is not an
// error. It reports whether a record was removed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := s.store.Delete(ctx, id)
	s.recorder.RecordDelete(removed, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "delete failed", "id", id, "error", err)
		return false, err
	}
	if removed {
		s.recorder.SetEnrolled(s.store.Len())
		s.logger.InfoContext(ctx, "enrollment deleted", "id", id)
	} else {
		s.logger.DebugContext(ctx, "delete of unknown id ignored", "id", id)
	}
	return removed, nil
}

// Clear removes every enrollment.
func (s *Service) Clear(ctx context.Context) (int, error) {
	n, err := s.store.Clear(ctx)
	s.recorder.RecordClear(n, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "clear failed", "error", err)
		return 0, err
	}
	s.recorder.SetEnrolled(0)
	s.logger.InfoContext(ctx, "store cleared", "removed", n)
	return n, nil
}

// List returns all enrollments in scan order.
func (s *Service) List() []database.Enrollment { return s.store.List() }

// Get returns one enrollment by id.
func (s *Service) Get(id int64) (database.Enrollment, error) { return s.store.Get(id) }

// Count returns the number of enrollments.
func (s *Service) Count() int { return s.store.Len() }

// NormalizeName trims surrounding whitespace and converts name to Unicode NFC
// so that visually identical names compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
