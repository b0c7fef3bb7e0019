package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/greyhollow/huekeep/internal/history"
	"github.com/greyhollow/huekeep/internal/infrastructure/database"
)

func newHistoryCommand() *cobra.Command {
	var (
		kind  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded backup and restore runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("run history is disabled in configuration")
			}

			db, err := database.Open(database.Config{
				Path:        cfg.History.Path,
				BusyTimeout: cfg.History.BusyTimeout,
			})
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // read-only usage

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}

			runs, err := history.NewSQLiteRepository(db.DB).List(cmd.Context(), history.Filter{
				Kind:  kind,
				Limit: limit,
			})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tBRIDGE\tSNAPSHOT\tSTARTED\tDURATION")
			for _, run := range runs {
				bridgeName := run.BridgeName
				if bridgeName == "" {
					bridgeName = run.BridgeID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					run.ID, run.Kind, bridgeName, run.SnapshotPath,
					run.StartedAt.Local().Format(time.DateTime),
					run.FinishedAt.Sub(run.StartedAt).Round(time.Second),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by run kind (backup, restore)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}
