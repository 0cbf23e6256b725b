package biometric

import (
	"math"
	"math/rand/v2"
	"testing"
)

func randomTemplate(seed uint64) Template {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	t := make(Template, TemplateSize)
	for i := range t {
		t[i] = byte(r.UintN(256))
	}
	return t
}

// flipBits returns a copy of t with the first k bits inverted.
func flipBits(t Template, k int) Template {
	out := t.Clone()
	for i := range k {
		out[i/8] ^= 1 << (i % 8)
	}
	return out
}

func TestSimilarity_Identical(t *testing.T) {
	for seed := range uint64(5) {
		tmpl := randomTemplate(seed)
		if got := Similarity(tmpl, tmpl); got != 100 {
			t.Errorf("seed %d: Similarity(a, a) = %v, want 100", seed, got)
		}
	}

	zero := make(Template, TemplateSize)
	if got := Similarity(zero, zero); got != 100 {
		t.Errorf("Similarity(zero, zero) = %v, want 100", got)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	for seed := range uint64(10) {
		a := randomTemplate(seed)
		b := randomTemplate(seed + 100)
		if ab, ba := Similarity(a, b), Similarity(b, a); ab != ba {
			t.Errorf("seed %d: Similarity(a, b) = %v, Similarity(b, a) = %v", seed, ab, ba)
		}
	}
}

func TestSimilarity_LengthMismatch(t *testing.T) {
	tests := []struct {
		name string
		a, b []byte
	}{
		{"shorter", make([]byte, TemplateSize), make([]byte, TemplateSize-1)},
		{"longer", make([]byte, TemplateSize+1), make([]byte, TemplateSize)},
		{"empty vs full", nil, make([]byte, TemplateSize)},
		{"both empty", nil, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Similarity(tc.a, tc.b); got != 0 {
				t.Errorf("Similarity() = %v, want 0", got)
			}
		})
	}
}

func TestSimilarity_FlippedBits(t *testing.T) {
	base := randomTemplate(42)

	tests := []struct {
		flipped int
		want    float64
	}{
		{0, 100},
		{1, 99.98},
		{41, 99},
		{1024, 75},
		{2048, 50},
		{3072, 25},
		{4096, 0},
	}

	for _, tc := range tests {
		got := Similarity(flipBits(base, tc.flipped), base)
		if got != tc.want {
			t.Errorf("flipped %d bits: Similarity() = %v, want %v", tc.flipped, got, tc.want)
		}

		exact := 100 * (1 - float64(tc.flipped)/TemplateBits)
		if math.Abs(got-exact) > 0.005 {
			t.Errorf("flipped %d bits: Similarity() = %v, not within rounding of %v", tc.flipped, got, exact)
		}
	}
}

func TestSimilarity_AllZeroVsAllOnes(t *testing.T) {
	zero := make(Template, TemplateSize)
	ones := make(Template, TemplateSize)
	for i := range ones {
		ones[i] = 0xFF
	}

	if got := Similarity(zero, ones); got != 0 {
		t.Errorf("Similarity(zero, ones) = %v, want 0", got)
	}
}

func TestHammingDistance(t *testing.T) {
	a := []byte{0b1010_1010, 0x00}
	b := []byte{0b0101_0101, 0x01}

	got, err := HammingDistance(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 9 {
		t.Errorf("HammingDistance() = %d, want 9", got)
	}

	if _, err := HammingDistance(a, b[:1]); err == nil {
		t.Error("expected error for length mismatch")
	}
}
