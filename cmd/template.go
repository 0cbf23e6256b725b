package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/biomatch/internal/biometric"
	"github.com/spf13/cobra"
)

// addTemplateFlags registers the flags used to supply a template.
func addTemplateFlags(cmd *cobra.Command) {
	cmd.Flags().String("template", "", "Path to a template file (raw 512 bytes)")
	cmd.Flags().String("base64", "", "Template as base64 text")
	cmd.Flags().Bool("base64-file", false, "Template file contains base64 text instead of raw bytes")
}

// templateFromFlags reads the template given by --template or --base64.
func templateFromFlags(cmd *cobra.Command) (biometric.Template, error) {
	path := mustGetString(cmd, "template")
	b64 := mustGetString(cmd, "base64")

	switch {
	case path != "" && b64 != "":
		return nil, errors.New("use either --template or --base64, not both")
	case b64 != "":
		tmpl, err := biometric.ParseTemplate(b64)
		if err != nil {
			return nil, fmt.Errorf("invalid --base64 template: %w", err)
		}
		return tmpl, nil
	case path != "":
		return readTemplateFile(path, mustGetBool(cmd, "base64-file"))
	default:
		return nil, errors.New("a template is required (--template FILE or --base64 STRING)")
	}
}

// readTemplateFile loads a raw or base64-encoded template from disk.
func readTemplateFile(path string, isBase64 bool) (biometric.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	if isBase64 {
		tmpl, err := biometric.ParseTemplate(string(data))
		if err != nil {
			return nil, fmt.Errorf("invalid template in %s: %w", path, err)
		}
		return tmpl, nil
	}
	tmpl := biometric.Template(data)
	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid template in %s: %w", path, err)
	}
	return tmpl, nil
}
