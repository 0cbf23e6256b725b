package database

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/biomatch/internal/biometric"
)

func testTemplate(fill byte) biometric.Template {
	t := make(biometric.Template, biometric.TemplateSize)
	for i := range t {
		t[i] = fill ^ byte(i)
	}
	return t
}

func TestMarshalSnapshot_RoundTrip(t *testing.T) {
	registered := time.Date(2026, 3, 14, 15, 9, 26, 535000000, time.UTC)
	in := []Enrollment{
		{ID: 1, Name: "Alice", Phone: "+420 111 222 333", Template: testTemplate(0x00), RegisteredAt: registered},
		{ID: 3, Name: "Bob", Phone: "555-0100", Template: testTemplate(0xA5), RegisteredAt: registered.Add(time.Hour)},
	}

	data, err := MarshalSnapshot(Snapshot{Enrollments: in, LastID: 5})
	if err != nil {
		t.Fatalf("MarshalSnapshot() error: %v", err)
	}

	out, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot() error: %v", err)
	}

	if out.LastID != 5 {
		t.Errorf("LastID = %d, want 5", out.LastID)
	}
	if len(out.Enrollments) != len(in) {
		t.Fatalf("expected %d enrollments, got %d", len(in), len(out.Enrollments))
	}
	for i := range in {
		got := out.Enrollments[i]
		if got.ID != in[i].ID || got.Name != in[i].Name || got.Phone != in[i].Phone {
			t.Errorf("enrollment %d: got %+v, want %+v", i, got, in[i])
		}
		if !bytes.Equal(got.Template, in[i].Template) {
			t.Errorf("enrollment %d: template bytes differ after round trip", i)
		}
		if !got.RegisteredAt.Equal(in[i].RegisteredAt) {
			t.Errorf("enrollment %d: registered_at = %v, want %v", i, got.RegisteredAt, in[i].RegisteredAt)
		}
	}
}

func TestMarshalSnapshot_Layout(t *testing.T) {
	data, err := MarshalSnapshot(Snapshot{Enrollments: []Enrollment{
		{ID: 1, Name: "Alice", Phone: "1", Template: testTemplate(0), RegisteredAt: time.Unix(0, 0)},
	}})
	if err != nil {
		t.Fatalf("MarshalSnapshot() error: %v", err)
	}

	var raw struct {
		LastID      int64            `json:"last_id"`
		Enrollments []map[string]any `json:"enrollments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("output is not a JSON document: %v", err)
	}
	if raw.LastID != 1 {
		t.Errorf("last_id = %d, want the highest live id 1", raw.LastID)
	}
	for _, key := range []string{"id", "name", "phone", "template", "registered_at"} {
		if _, ok := raw.Enrollments[0][key]; !ok {
			t.Errorf("expected key %q in persisted record", key)
		}
	}
	if raw.Enrollments[0]["registered_at"] != "1970-01-01T00:00:00Z" {
		t.Errorf("unexpected registered_at %v", raw.Enrollments[0]["registered_at"])
	}
}

func TestUnmarshalSnapshot_BareArray(t *testing.T) {
	good := testTemplate(1).String()
	data := `[{"id":2,"name":"a","phone":"1","template":"` + good + `","registered_at":"2026-01-01T00:00:00Z"},` +
		`{"id":7,"name":"b","phone":"2","template":"` + good + `","registered_at":"2026-01-01T00:00:00Z"}]`

	out, err := UnmarshalSnapshot([]byte(data))
	if err != nil {
		t.Fatalf("UnmarshalSnapshot() error: %v", err)
	}
	if len(out.Enrollments) != 2 || out.LastID != 7 {
		t.Errorf("got %d enrollments with LastID %d, want 2 and 7", len(out.Enrollments), out.LastID)
	}
}

func TestUnmarshalSnapshot_LastIDRaisedToLiveIDs(t *testing.T) {
	good := testTemplate(1).String()
	data := `{"last_id":1,"enrollments":[{"id":4,"name":"a","phone":"1","template":"` + good + `","registered_at":"2026-01-01T00:00:00Z"}]}`

	out, err := UnmarshalSnapshot([]byte(data))
	if err != nil {
		t.Fatalf("UnmarshalSnapshot() error: %v", err)
	}
	if out.LastID != 4 {
		t.Errorf("LastID = %d, want 4", out.LastID)
	}
}

func TestUnmarshalSnapshot_Empty(t *testing.T) {
	for _, input := range []string{"", "  \n", "[]", `{"last_id":0,"enrollments":[]}`} {
		out, err := UnmarshalSnapshot([]byte(input))
		if err != nil {
			t.Errorf("UnmarshalSnapshot(%q) error: %v", input, err)
		}
		if len(out.Enrollments) != 0 {
			t.Errorf("UnmarshalSnapshot(%q) = %d records, want 0", input, len(out.Enrollments))
		}
	}

	out, err := UnmarshalSnapshot([]byte(`{"last_id":9,"enrollments":[]}`))
	if err != nil {
		t.Fatalf("UnmarshalSnapshot() error: %v", err)
	}
	if out.LastID != 9 {
		t.Errorf("cleared store must keep its high-water mark, got %d", out.LastID)
	}
}

func TestUnmarshalSnapshot_Invalid(t *testing.T) {
	good := testTemplate(1).String()
	short := biometric.Template(testTemplate(1)[:100]).String()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not json", `{`, "parse enrollments"},
		{"negative last id", `{"last_id":-1,"enrollments":[]}`, "invalid last_id"},
		{"zero id", `[{"id":0,"name":"a","phone":"1","template":"` + good + `","registered_at":"2026-01-01T00:00:00Z"}]`, "invalid id"},
		{"duplicate id", `[{"id":1,"name":"a","phone":"1","template":"` + good + `","registered_at":"2026-01-01T00:00:00Z"},` +
			`{"id":1,"name":"b","phone":"2","template":"` + good + `","registered_at":"2026-01-01T00:00:00Z"}]`, "duplicate id"},
		{"bad base64", `[{"id":1,"name":"a","phone":"1","template":"%%%","registered_at":"2026-01-01T00:00:00Z"}]`, "decode template"},
		{"short template", `[{"id":1,"name":"a","phone":"1","template":"` + short + `","registered_at":"2026-01-01T00:00:00Z"}]`, "512 bytes"},
		{"bad timestamp", `[{"id":1,"name":"a","phone":"1","template":"` + good + `","registered_at":"yesterday"}]`, "registered_at"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := UnmarshalSnapshot([]byte(tc.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestCloneEnrollments(t *testing.T) {
	in := []Enrollment{{ID: 1, Template: testTemplate(9)}}
	out := CloneEnrollments(in)
	out[0].Template[0] ^= 0xFF
	if in[0].Template[0] == out[0].Template[0] {
		t.Error("CloneEnrollments shares template memory")
	}
	if CloneEnrollments(nil) != nil {
		t.Error("CloneEnrollments(nil) should be nil")
	}
}

func TestSnapshot_HighestID(t *testing.T) {
	s := Snapshot{Enrollments: []Enrollment{{ID: 3}, {ID: 8}, {ID: 2}}, LastID: 5}
	if got := s.HighestID(); got != 8 {
		t.Errorf("HighestID() = %d, want 8", got)
	}
	s.LastID = 12
	if got := s.HighestID(); got != 12 {
		t.Errorf("HighestID() = %d, want 12", got)
	}
	if got := (Snapshot{}).HighestID(); got != 0 {
		t.Errorf("empty HighestID() = %d, want 0", got)
	}
}
