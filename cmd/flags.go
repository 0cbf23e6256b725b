package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Every flag read here is registered in an init(), so a failed lookup is a
// wiring bug in this package and panics.
func mustFlag[T any](cmd *cobra.Command, name string, get func(*pflag.FlagSet, string) (T, error)) T {
	val, err := get(cmd.Flags(), name)
	if err != nil {
		panic(fmt.Sprintf("%s: flag --%s: %v", cmd.CommandPath(), name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetString)
}

// addJSONFlag registers --json with the given help text.
func addJSONFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().Bool("json", false, usage)
}

// jsonRequested reports whether --json was passed.
func jsonRequested(cmd *cobra.Command) bool {
	return mustGetBool(cmd, "json")
}

// addThresholdFlag registers --threshold. Zero means the configured default.
func addThresholdFlag(cmd *cobra.Command, envVar string) {
	cmd.Flags().Float64("threshold", 0, fmt.Sprintf("Similarity threshold in percent (default %s)", envVar))
}

// thresholdFlag returns --threshold, or fallback when it was left at zero or
// set negative.
func thresholdFlag(cmd *cobra.Command, fallback float64) float64 {
	if t := mustFlag(cmd, "threshold", (*pflag.FlagSet).GetFloat64); t > 0 {
		return t
	}
	return fallback
}
