package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kozaktomas/biomatch/internal/biometric"
	"github.com/kozaktomas/biomatch/internal/matching"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var importCmd = &cobra.Command{
	Use:   "import <manifest.yaml>",
	Short: "Enroll identities in bulk from a YAML manifest",
	Long: `Enroll every entry of a YAML manifest.

Each entry names the person and either a template file (raw bytes,
resolved relative to the manifest) or an inline base64 template:

  enrollments:
    - name: Alice Smith
      phone: "+1 555 0100"
      template_file: templates/alice.bin
    - name: Bob
      phone: "555-0101"
      template: "AAAA..."

Duplicates and invalid entries are reported and skipped. A storage
failure stops the import.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	addJSONFlag(importCmd, "Output summary as JSON")
}

// manifestEntry is a single enrollment in an import manifest.
type manifestEntry struct {
	Name         string `yaml:"name"`
	Phone        string `yaml:"phone"`
	TemplateFile string `yaml:"template_file"`
	Template     string `yaml:"template"`
}

type manifest struct {
	Enrollments []manifestEntry `yaml:"enrollments"`
}

// importSummary reports the outcome of an import.
type importSummary struct {
	Total      int      `json:"total"`
	Enrolled   int      `json:"enrolled"`
	Duplicates int      `json:"duplicates"`
	Invalid    int      `json:"invalid"`
	Errors     []string `json:"errors,omitempty"`
}

// loadManifest parses a manifest file.
func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// template resolves the entry's template. Relative files are looked up in baseDir.
func (e *manifestEntry) template(baseDir string) (biometric.Template, error) {
	switch {
	case e.TemplateFile != "" && e.Template != "":
		return nil, errors.New("set either template_file or template, not both")
	case e.Template != "":
		return biometric.ParseTemplate(e.Template)
	case e.TemplateFile != "":
		path := e.TemplateFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return readTemplateFile(path, false)
	default:
		return nil, errors.New("no template given")
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	jsonOutput := jsonRequested(cmd)

	m, err := loadManifest(args[0])
	if err != nil {
		return err
	}
	if len(m.Enrollments) == 0 {
		return fmt.Errorf("manifest %s has no enrollments", args[0])
	}

	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var bar *progressbar.ProgressBar
	if !jsonOutput && stdoutIsTerminal() {
		bar = progressbar.NewOptions(len(m.Enrollments),
			progressbar.OptionSetDescription("Enrolling"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("templates"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	summary, err := importEntries(ctx, a.service, m.Enrollments, filepath.Dir(args[0]), bar)
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(summary)
	}
	fmt.Printf("Enrolled %d of %d (%d duplicates, %d invalid)\n",
		summary.Enrolled, summary.Total, summary.Duplicates, summary.Invalid)
	for _, e := range summary.Errors {
		fmt.Printf("  %s\n", e)
	}
	return nil
}

// importEntries enrolls entries in order. It stops at the first persistence failure.
func importEntries(ctx context.Context, svc *matching.Service, entries []manifestEntry, baseDir string, bar *progressbar.ProgressBar) (*importSummary, error) {
	summary := &importSummary{Total: len(entries)}

	for i := range entries {
		entry := &entries[i]
		label := fmt.Sprintf("#%d %s", i+1, entry.Name)

		tmpl, err := entry.template(baseDir)
		if err == nil {
			_, err = svc.Enroll(ctx, tmpl, entry.Name, entry.Phone)
		} else {
			err = &matching.ValidationError{Field: "template", Reason: err.Error()}
		}

		var dup *matching.DuplicateError
		switch {
		case err == nil:
			summary.Enrolled++
		case errors.As(err, &dup):
			summary.Duplicates++
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("%s: duplicate of %q (id %d, %.2f%%)", label, dup.ExistingName, dup.ExistingID, dup.Similarity))
		case errors.Is(err, matching.ErrValidation):
			summary.Invalid++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", label, err))
		default:
			return summary, fmt.Errorf("import stopped at %s: %w", label, err)
		}

		if bar != nil {
			bar.Add(1)
		}
	}
	return summary, nil
}
