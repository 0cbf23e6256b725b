package biometric

import (
	"fmt"
	"math"
	"math/bits"
)

// HammingDistance counts the differing bits between two equal-length buffers.
func HammingDistance(a, b []byte) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d != %d", len(a), len(b))
	}

	distance := 0
	for i := range a {
		distance += bits.OnesCount8(a[i] ^ b[i])
	}
	return distance, nil
}

// Similarity returns the percentage of matching bits between a and b,
// rounded to two decimal places. Buffers of different (or zero) length
// have similarity 0 so that a malformed stored entry never aborts a scan.
func Similarity(a, b []byte) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	distance, err := HammingDistance(a, b)
	if err != nil {
		return 0
	}

	totalBits := float64(len(a) * 8)
	return roundPercent(100 * (1 - float64(distance)/totalBits))
}

func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}
