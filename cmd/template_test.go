package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadTemplateFile(t *testing.T) {
	dir := t.TempDir()
	raw := filled(0xA5)

	rawPath := filepath.Join(dir, "raw.bin")
	if err := os.WriteFile(rawPath, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	b64Path := filepath.Join(dir, "t.b64")
	if err := os.WriteFile(b64Path, []byte(raw.String()+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	shortPath := filepath.Join(dir, "short.bin")
	if err := os.WriteFile(shortPath, raw[:100], 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := readTemplateFile(rawPath, false)
	if err != nil {
		t.Fatalf("raw: unexpected error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("raw: content differs")
	}

	got, err = readTemplateFile(b64Path, true)
	if err != nil {
		t.Fatalf("base64: unexpected error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("base64: content differs")
	}

	if _, err := readTemplateFile(shortPath, false); err == nil {
		t.Error("expected error for short template")
	}
	if _, err := readTemplateFile(rawPath, true); err == nil {
		t.Error("expected error decoding raw bytes as base64")
	}
	if _, err := readTemplateFile(filepath.Join(dir, "missing"), false); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "Name"}, [][]string{{"1", "Alice"}, {"2"}}, 1)
	for _, want := range []string{"ID", "Name", "Alice", "2"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil) != "" {
		t.Error("expected empty output without headers")
	}
}
