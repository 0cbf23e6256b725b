package matching

import (
	"fmt"
	"math"

	"github.com/kozaktomas/biomatch/internal/biometric"
	"github.com/kozaktomas/biomatch/internal/database"
)

// MatchResult is the outcome of a best-match search.
//
// When Matched is true, Enrollment is the accepted record and Similarity its
// score. BestSimilarity is the maximum similarity over the whole store and is
// reported whether or not anything matched.
type MatchResult struct {
	Matched        bool
	Enrollment     *database.Enrollment
	Similarity     float64
	BestSimilarity float64
}

// FindBestMatch scans records in order and returns the earliest record with the
// highest similarity that is at least threshold. The scan never exits early.
// The returned Enrollment is a copy.
//
// Acceptance is similarity >= threshold, so a threshold of 0 accepts any
// record, including one with similarity 0.
func FindBestMatch(records []database.Enrollment, candidate biometric.Template, threshold float64) (MatchResult, error) {
	if err := validateTemplate(candidate); err != nil {
		return MatchResult{}, err
	}
	if err := validateThreshold("threshold", threshold); err != nil {
		return MatchResult{}, err
	}

	var (
		best        float64
		accepted    = -1
		acceptedSim float64
	)
	for i := range records {
		sim := biometric.Similarity(candidate, records[i].Template)
		if sim > best {
			best = sim
		}
		// Strictly greater keeps the first record on ties.
		if sim >= threshold && (accepted < 0 || sim > acceptedSim) {
			accepted = i
			acceptedSim = sim
		}
	}

	if accepted < 0 {
		return MatchResult{BestSimilarity: best}, nil
	}
	e := records[accepted].Clone()
	return MatchResult{
		Matched:        true,
		Enrollment:     &e,
		Similarity:     acceptedSim,
		BestSimilarity: best,
	}, nil
}

func validateTemplate(t biometric.Template) error {
	if len(t) != biometric.TemplateSize {
		return invalid("template", fmt.Sprintf("must be exactly %d bytes, got %d", biometric.TemplateSize, len(t)))
	}
	return nil
}

func validateThreshold(field string, threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 100 {
		return invalid(field, "must be between 0 and 100")
	}
	return nil
}
