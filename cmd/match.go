package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Identify a template against the enrolled store",
	Long: `Find the enrolled identity closest to a template.

Prints the matched identity and its similarity, or the best similarity
found when nothing reaches the threshold.

Examples:
  biomatch match --template capture.bin
  biomatch match --template capture.b64 --base64-file --threshold 60`,
	Args: cobra.NoArgs,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
	addTemplateFlags(matchCmd)
	addThresholdFlag(matchCmd, "BIOMATCH_MATCH_THRESHOLD")
	addJSONFlag(matchCmd, "Output as JSON")
}

// matchOutput is the JSON form of a match result.
type matchOutput struct {
	Matched        bool              `json:"matched"`
	Similarity     float64           `json:"similarity"`
	BestSimilarity float64           `json:"best_similarity"`
	Threshold      float64           `json:"threshold"`
	Enrollment     *enrollmentOutput `json:"enrollment,omitempty"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	tmpl, err := templateFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	threshold := thresholdFlag(cmd, a.service.MatchThreshold())

	res, err := a.service.Match(ctx, tmpl, threshold)
	if err != nil {
		return fmt.Errorf("failed to match: %w", err)
	}

	if jsonRequested(cmd) {
		out := matchOutput{
			Matched:        res.Matched,
			BestSimilarity: res.BestSimilarity,
			Threshold:      threshold,
		}
		if res.Matched {
			out.Similarity = res.Similarity
			e := newEnrollmentOutput(res.Enrollment)
			out.Enrollment = &e
		}
		return outputJSON(out)
	}

	if !res.Matched {
		fmt.Printf("No match (best similarity %.2f%%, threshold %.2f%%)\n", res.BestSimilarity, threshold)
		return nil
	}
	fmt.Printf("Matched %s (id %d, phone %s)\n", res.Enrollment.Name, res.Enrollment.ID, res.Enrollment.Phone)
	fmt.Printf("Similarity: %.2f%% (threshold %.2f%%)\n", res.Similarity, threshold)
	return nil
}
