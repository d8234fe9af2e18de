package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bidscout/bidscout/internal/artifacts"
	"github.com/bidscout/bidscout/internal/db"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage bidscout runs",
	}
	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsPruneCmd())
	return cmd
}

func runsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List runs, newest first",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			handle, closeFn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := db.NewStore(handle).ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no runs")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tSTARTED\tCOMPANY\tSTATUS\tITERS\tCOVERAGE\tREQS\tEVIDENCE")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\t%d\t%d\n",
					r.RunID, r.CreatedAt, r.Company, r.Status, r.Iterations,
					r.CoverageScore, r.RequirementsCount, r.EvidenceCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list (0 for all)")
	return cmd
}

func runsPruneCmd() *cobra.Command {
	var keepLast int
	var keepDays int
	var dryRun bool
	cmd := &cobra.Command{
		Use:          "prune",
		Short:        "Prune old runs from disk and database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			handle, closeFn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			if keepLast <= 0 && keepDays <= 0 {
				keepLast = cfg.Retention.KeepLast
				keepDays = cfg.Retention.KeepDays
			}
			if keepLast <= 0 && keepDays <= 0 {
				return fmt.Errorf("set --keep-last or --keep-days (or configure retention in the config file)")
			}

			store := db.NewStore(handle)
			prunable, err := store.Prunable(cmd.Context(), keepLast, keepDays)
			if err != nil {
				return err
			}
			if dryRun {
				log.Info().Msgf("would delete %d runs", len(prunable))
				for _, runID := range prunable {
					fmt.Println(runID)
				}
				return nil
			}

			artifactStore := artifacts.NewStore(runsDir(cfg))
			deleted := 0
			for _, runID := range prunable {
				if err := artifactStore.Remove(runID); err != nil {
					log.Warn().Err(err).Str("run_id", runID).Msg("remove artifacts failed")
					continue
				}
				if err := store.DeleteRun(cmd.Context(), runID); err != nil {
					log.Warn().Err(err).Str("run_id", runID).Msg("delete run record failed")
					continue
				}
				deleted++
			}
			log.Info().Msgf("deleted %d runs", deleted)
			return nil
		},
	}
	cmd.Flags().IntVar(&keepLast, "keep-last", 0, "keep the newest N runs")
	cmd.Flags().IntVar(&keepDays, "keep-days", 0, "keep runs newer than N days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be pruned without deleting")
	return cmd
}
