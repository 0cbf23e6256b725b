package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/biomatch/internal/biometric"
	"github.com/kozaktomas/biomatch/internal/database"
	"github.com/kozaktomas/biomatch/internal/database/mock"
	"github.com/kozaktomas/biomatch/internal/matching"
)

var testTime = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// filledTemplate returns a template with every byte set to b
func filledTemplate(b byte) biometric.Template {
	return biometric.Template(bytes.Repeat([]byte{b}, biometric.TemplateSize))
}

// halfFlipped returns a template differing from zero in exactly half of the bits
func halfFlipped() biometric.Template {
	t := filledTemplate(0)
	for i := range biometric.TemplateSize / 2 {
		t[i] = 0xFF
	}
	return t
}

func encode(t biometric.Template) string {
	return base64.StdEncoding.EncodeToString(t)
}

// testService creates a matching service over a mock backend
func testService(t *testing.T, records ...database.Enrollment) (*matching.Service, *mock.MockBackend) {
	t.Helper()
	backend := mock.NewMockBackend(records...)
	store, err := matching.LoadStore(context.Background(), backend)
	if err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	svc, err := matching.NewService(store, matching.Options{
		Logger: testLogger(),
		Now:    func() time.Time { return testTime },
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc, backend
}

func enrollment(id int64, name string, tmpl biometric.Template) database.Enrollment {
	return database.Enrollment{ID: id, Name: name, Phone: "555", Template: tmpl, RegisteredAt: testTime}
}

// jsonRequest creates a request with a JSON body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%v'", expectedMessage, result["error"])
	}
}
