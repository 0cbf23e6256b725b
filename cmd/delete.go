package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an enrollment by id",
	Long: `Delete an enrollment by id.

Deleting an id that does not exist is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid enrollment id %q", args[0])
	}

	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.service.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	if removed {
		fmt.Printf("Deleted enrollment %d\n", id)
	} else {
		fmt.Printf("No enrollment with id %d\n", id)
	}
	return nil
}
