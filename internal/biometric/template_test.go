package biometric

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	valid := randomTemplate(7)
	encoded := base64.StdEncoding.EncodeToString(valid)

	tests := []struct {
		name    string
		input   string
		wantErr bool
		sizeErr bool
	}{
		{"plain base64", encoded, false, false},
		{"surrounding whitespace", "  " + encoded + "\n", false, false},
		{"data URI", "data:application/octet-stream;base64," + encoded, false, false},
		{"empty", "", true, false},
		{"not base64", "!!!not-base64!!!", true, false},
		{"malformed data URI", "data:application/octet-stream;base64", true, false},
		{"too short", base64.StdEncoding.EncodeToString(valid[:511]), true, true},
		{"too long", base64.StdEncoding.EncodeToString(append(valid.Clone(), 0)), true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTemplate(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tc.sizeErr && !errors.Is(err, ErrTemplateSize) {
					t.Errorf("expected ErrTemplateSize, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != encoded {
				t.Error("decoded template does not match input")
			}
		})
	}
}

func TestTemplate_Clone(t *testing.T) {
	orig := randomTemplate(3)
	c := orig.Clone()
	c[0] ^= 0xFF
	if orig[0] == c[0] {
		t.Error("Clone shares the backing array")
	}
	if Template(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
