package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bidscout/bidscout/internal/artifacts"
	"github.com/bidscout/bidscout/internal/db"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(14)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func showCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:          "show <run-id>",
		Short:        "Show a run's summary and rendered bid outline",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := args[0]
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			handle, closeFn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			record, err := db.NewStore(handle).GetRun(cmd.Context(), runID)
			if err != nil {
				return fmt.Errorf("run %s not found", runID)
			}
			printSummary(record)

			store := artifacts.NewStore(runsDir(cfg))
			outline, err := store.ReadOutline(runID)
			if err != nil {
				fmt.Println("\nno outline was written for this run")
				return nil
			}
			if raw {
				fmt.Println()
				fmt.Println(outline)
				return nil
			}

			rendered, err := glamour.Render(outline, "dark")
			if err != nil {
				// Terminal rendering is cosmetic; fall back to plain text.
				fmt.Println()
				fmt.Println(outline)
				return nil
			}
			fmt.Print(rendered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the outline as plain markdown")
	return cmd
}

func printSummary(record db.RunRecord) {
	status := okStyle.Render(record.Status)
	if record.Status == db.StatusFailed {
		status = failStyle.Render(record.Status)
	}
	rows := []struct {
		label string
		value string
	}{
		{"Run", record.RunID},
		{"Started", record.CreatedAt},
		{"RFP", record.RFPPath},
		{"Company", record.Company},
		{"Status", status},
		{"Iterations", fmt.Sprintf("%d", record.Iterations)},
		{"Coverage", fmt.Sprintf("%.2f", record.CoverageScore)},
		{"Requirements", fmt.Sprintf("%d", record.RequirementsCount)},
		{"Evidence", fmt.Sprintf("%d", record.EvidenceCount)},
	}
	for _, row := range rows {
		fmt.Printf("%s %s\n", labelStyle.Render(row.label), row.value)
	}
	if len(record.Errors) > 0 {
		fmt.Printf("%s %s\n", labelStyle.Render("Errors"), failStyle.Render(strings.Join(record.Errors, "; ")))
	}
}
