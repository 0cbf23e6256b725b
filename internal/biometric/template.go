// Package biometric defines the fixed-size binary template captured by a sensor
// and the bit-level similarity metric used to compare two templates.
package biometric

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// TemplateSize is the exact length of a template in bytes (4096 bits).
const TemplateSize = 512

// TemplateBits is the number of bits in a template.
const TemplateBits = TemplateSize * 8

// ErrTemplateSize is returned when a template is not exactly TemplateSize bytes long.
var ErrTemplateSize = errors.New("template must be exactly 512 bytes")

// Template is one biometric capture.
type Template []byte

// Validate checks the template length.
func (t Template) Validate() error {
	if len(t) != TemplateSize {
		return fmt.Errorf("%w: got %d", ErrTemplateSize, len(t))
	}
	return nil
}

// Clone returns a copy that does not share the backing array.
func (t Template) Clone() Template {
	if t == nil {
		return nil
	}
	c := make(Template, len(t))
	copy(c, t)
	return c
}

// String encodes the template as standard base64.
func (t Template) String() string {
	return base64.StdEncoding.EncodeToString(t)
}

// ParseTemplate decodes base64 text into a validated template.
// A data URI prefix (data:...;base64,) is stripped before decoding.
func ParseTemplate(s string) (Template, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("template is empty")
	}
	if strings.HasPrefix(s, "data:") {
		parts := strings.SplitN(s, ",", 2)
		if len(parts) != 2 {
			return nil, errors.New("invalid data URI template")
		}
		s = parts[1]
	}

	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 template: %w", err)
	}

	t := Template(decoded)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
