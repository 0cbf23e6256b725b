package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kozaktomas/biomatch/internal/database"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	addJSONFlag(listCmd, "Output as JSON")
}

// enrollmentOutput is the CLI view of an enrollment (without the template).
type enrollmentOutput struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registered_at"`
}

func newEnrollmentOutput(e *database.Enrollment) enrollmentOutput {
	return enrollmentOutput{ID: e.ID, Name: e.Name, Phone: e.Phone, RegisteredAt: e.RegisteredAt}
}

func enrollmentRows(enrollments []database.Enrollment) [][]string {
	rows := make([][]string, 0, len(enrollments))
	for _, e := range enrollments {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.Phone,
			e.RegisteredAt.Format(time.RFC3339),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	enrollments := a.service.List()

	if jsonRequested(cmd) {
		out := make([]enrollmentOutput, 0, len(enrollments))
		for i := range enrollments {
			out = append(out, newEnrollmentOutput(&enrollments[i]))
		}
		return outputJSON(out)
	}

	if len(enrollments) == 0 {
		fmt.Println("No enrollments")
		return nil
	}
	fmt.Println(renderTable([]string{"ID", "Name", "Phone", "Registered"}, enrollmentRows(enrollments), 1))
	fmt.Printf("%d enrollment(s) in %s storage\n", len(enrollments), a.backend.Name())
	return nil
}
