package matching

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/kozaktomas/biomatch/internal/biometric"
	"github.com/kozaktomas/biomatch/internal/database"
	"github.com/kozaktomas/biomatch/internal/database/jsonfile"
	"github.com/kozaktomas/biomatch/internal/database/mock"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func randomTemplate(seed uint64) biometric.Template {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	t := make(biometric.Template, biometric.TemplateSize)
	for i := range t {
		t[i] = byte(r.UintN(256))
	}
	return t
}

// flipBits returns a copy of t with the first k bits inverted.
func flipBits(t biometric.Template, k int) biometric.Template {
	out := t.Clone()
	for i := range k {
		out[i/8] ^= 1 << (i % 8)
	}
	return out
}

func zeroTemplate() biometric.Template {
	return make(biometric.Template, biometric.TemplateSize)
}

func record(id int64, name string, tmpl biometric.Template) database.Enrollment {
	return database.Enrollment{ID: id, Name: name, Phone: "555", Template: tmpl, RegisteredAt: fixedNow}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService builds a service over a mock backend pre-populated with records.
func newTestService(t *testing.T, records ...database.Enrollment) (*Service, *mock.MockBackend) {
	t.Helper()
	backend := mock.NewMockBackend(records...)
	store, err := LoadStore(context.Background(), backend)
	if err != nil {
		t.Fatalf("LoadStore() error: %v", err)
	}
	svc, err := NewService(store, Options{
		Logger: discardLogger(),
		Now:    func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	return svc, backend
}

// newFileService builds a service over a JSON file backend at path.
func newFileService(t *testing.T, path string) *Service {
	t.Helper()
	backend, err := jsonfile.New(path)
	if err != nil {
		t.Fatalf("jsonfile.New() error: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	store, err := LoadStore(context.Background(), backend)
	if err != nil {
		t.Fatalf("LoadStore() error: %v", err)
	}
	svc, err := NewService(store, Options{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	return svc
}

func assertCount(t *testing.T, svc *Service, want int) {
	t.Helper()
	if got := svc.Count(); got != want {
		t.Errorf("Count() = %d, want %d", got, want)
	}
}
