package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all enrollments",
	Long: `Remove every enrollment from the configured store.

Asks for confirmation unless --yes is given. Without a terminal on stdin
--yes is required.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func confirmAction(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func runClear(cmd *cobra.Command, args []string) error {
	skipConfirm := mustGetBool(cmd, "yes")

	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	count := a.service.Count()
	if count == 0 {
		fmt.Println("Store is already empty")
		return nil
	}

	if !skipConfirm {
		if !isInteractive() {
			return errors.New("refusing to clear without --yes when stdin is not a terminal")
		}
		if !confirmAction(fmt.Sprintf("Remove all %d enrollments from %s storage? [y/N]: ", count, a.backend.Name())) {
			fmt.Println("Cancelled")
			return nil
		}
	}

	removed, err := a.service.Clear(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear: %w", err)
	}
	fmt.Printf("Removed %d enrollments\n", removed)
	return nil
}
