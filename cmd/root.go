package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var storageOverride string

var rootCmd = &cobra.Command{
	Use:   "biomatch",
	Short: "Biometric template enrollment and matching",
	Long: `biomatch identifies people by comparing a captured 512-byte biometric
template against a store of enrolled templates.

It runs as an HTTP service (serve) or operates on the configured store
directly from the command line (enroll, match, list, delete, clear, import).
Storage is selected with BIOMATCH_STORAGE: file, sqlite, postgres, mariadb or s3.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&storageOverride, "storage", "", "Storage backend (overrides BIOMATCH_STORAGE)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
