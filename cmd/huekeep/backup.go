package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/greyhollow/huekeep/internal/capture"
	"github.com/greyhollow/huekeep/internal/history"
	"github.com/greyhollow/huekeep/internal/infrastructure/config"
	"github.com/greyhollow/huekeep/internal/infrastructure/database"
	"github.com/greyhollow/huekeep/internal/infrastructure/logging"
)

func newBackupCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Capture the bridge's configuration into a snapshot file",
		Long: `Reads the bridge's full state, expands each scene's stored light states,
disambiguates duplicate names within each class, verifies referential
integrity, and writes the snapshot file. A snapshot that fails the
integrity check is not written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging, version)

			client, err := bridgeClient(cfg, log)
			if err != nil {
				return err
			}

			started := time.Now()
			runner := capture.New(client, log)
			snap, renames, err := runner.Run(cmd.Context(), file)
			if err != nil {
				return err
			}

			recordRun(cmd.Context(), cfg, log, &history.Run{
				Kind:         history.KindBackup,
				BridgeID:     snap.Config.BridgeID,
				BridgeName:   snap.Config.Name,
				SnapshotPath: file,
				Details: map[string]any{
					"lights":        len(snap.Lights),
					"sensors":       len(snap.Sensors),
					"groups":        len(snap.Groups),
					"scenes":        len(snap.Scenes),
					"schedules":     len(snap.Schedules),
					"rules":         len(snap.Rules),
					"resourcelinks": len(snap.ResourceLinks),
					"renamed":       len(renames),
				},
				StartedAt: started,
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "hue-backup.json", "snapshot file to write")
	return cmd
}

// recordRun stores the run in the history database. History is advisory;
// a failure here is logged and never fails the command.
func recordRun(ctx context.Context, cfg *config.Config, log *logging.Logger, run *history.Run) {
	if !cfg.History.Enabled {
		return
	}
	db, err := database.Open(database.Config{
		Path:        cfg.History.Path,
		BusyTimeout: cfg.History.BusyTimeout,
	})
	if err != nil {
		log.Warn("run history unavailable", "error", err)
		return
	}
	defer db.Close() //nolint:errcheck // advisory store, nothing to do on close failure

	if err := db.Migrate(ctx); err != nil {
		log.Warn("run history migration failed", "error", err)
		return
	}
	if err := history.NewSQLiteRepository(db.DB).Record(ctx, run); err != nil {
		log.Warn("recording run failed", "error", err)
	}
}
