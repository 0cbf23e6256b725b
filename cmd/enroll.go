package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/biomatch/internal/matching"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <name> <phone>",
	Short: "Enroll a new identity",
	Long: `Enroll a template under a name and phone number.

The template is rejected as a duplicate when it matches an existing
enrollment at the duplicate threshold (BIOMATCH_DUPLICATE_THRESHOLD).

Examples:
  biomatch enroll "Alice Smith" "+1 555 0100" --template alice.bin
  biomatch enroll Bob 555-0101 --base64 "AAAA..."`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	addTemplateFlags(enrollCmd)
	addJSONFlag(enrollCmd, "Output as JSON")
}

func runEnroll(cmd *cobra.Command, args []string) error {
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

	e, err := a.service.Enroll(ctx, tmpl, args[0], args[1])
	if err != nil {
		var dup *matching.DuplicateError
		if errors.As(err, &dup) {
			return fmt.Errorf("already enrolled as %q (id %d, similarity %.2f%%)",
				dup.ExistingName, dup.ExistingID, dup.Similarity)
		}
		return fmt.Errorf("failed to enroll: %w", err)
	}

	if jsonRequested(cmd) {
		return outputJSON(newEnrollmentOutput(&e))
	}
	fmt.Printf("Enrolled %s (id %d) at %s\n", e.Name, e.ID, e.RegisteredAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
