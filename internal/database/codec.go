package database

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kozaktomas/biomatch/internal/biometric"
)

// storedEnrollment is the on-disk JSON shape of one enrollment.
type storedEnrollment struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Template     string `json:"template"`
	RegisteredAt string `json:"registered_at"`
}

// storedSnapshot is the on-disk JSON document.
type storedSnapshot struct {
	LastID      int64              `json:"last_id"`
	Enrollments []storedEnrollment `json:"enrollments"`
}

// MarshalSnapshot encodes a snapshot as an indented JSON document holding the
// id high-water mark and the enrollment array. Templates are standard base64
// and timestamps RFC 3339 in UTC.
func MarshalSnapshot(snapshot Snapshot) ([]byte, error) {
	doc := storedSnapshot{
		LastID:      snapshot.HighestID(),
		Enrollments: make([]storedEnrollment, len(snapshot.Enrollments)),
	}
	for i := range snapshot.Enrollments {
		e := &snapshot.Enrollments[i]
		doc.Enrollments[i] = storedEnrollment{
			ID:           e.ID,
			Name:         e.Name,
			Phone:        e.Phone,
			Template:     base64.StdEncoding.EncodeToString(e.Template),
			RegisteredAt: e.RegisteredAt.UTC().Format(time.RFC3339Nano),
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal enrollments: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes the document written by MarshalSnapshot. A bare
// JSON array of enrollments is accepted too; its high-water mark is the
// highest id present. Every template must decode to exactly
// biometric.TemplateSize bytes.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Snapshot{Enrollments: []Enrollment{}}, nil
	}

	var doc storedSnapshot
	if data[0] == '[' {
		if err := json.Unmarshal(data, &doc.Enrollments); err != nil {
			return Snapshot{}, fmt.Errorf("parse enrollments: %w", err)
		}
	} else if err := json.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("parse enrollments: %w", err)
	}
	if doc.LastID < 0 {
		return Snapshot{}, fmt.Errorf("invalid last_id %d", doc.LastID)
	}

	enrollments := make([]Enrollment, 0, len(doc.Enrollments))
	seen := make(map[int64]struct{}, len(doc.Enrollments))
	for i, s := range doc.Enrollments {
		if s.ID <= 0 {
			return Snapshot{}, fmt.Errorf("enrollment #%d: invalid id %d", i, s.ID)
		}
		if _, dup := seen[s.ID]; dup {
			return Snapshot{}, fmt.Errorf("enrollment #%d: duplicate id %d", i, s.ID)
		}
		seen[s.ID] = struct{}{}

		raw, err := base64.StdEncoding.DecodeString(s.Template)
		if err != nil {
			return Snapshot{}, fmt.Errorf("enrollment %d: decode template: %w", s.ID, err)
		}
		tmpl := biometric.Template(raw)
		if err := tmpl.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("enrollment %d: %w", s.ID, err)
		}

		registeredAt, err := time.Parse(time.RFC3339Nano, s.RegisteredAt)
		if err != nil {
			return Snapshot{}, fmt.Errorf("enrollment %d: parse registered_at: %w", s.ID, err)
		}

		enrollments = append(enrollments, Enrollment{
			ID:           s.ID,
			Name:         s.Name,
			Phone:        s.Phone,
			Template:     tmpl,
			RegisteredAt: registeredAt.UTC(),
		})
	}

	snapshot := Snapshot{Enrollments: enrollments, LastID: doc.LastID}
	snapshot.LastID = snapshot.HighestID()
	return snapshot, nil
}
