package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/greyhollow/huekeep/internal/history"
	"github.com/greyhollow/huekeep/internal/infrastructure/logging"
	"github.com/greyhollow/huekeep/internal/restore"
	"github.com/greyhollow/huekeep/internal/snapshot"
)

func newRestoreCommand() *cobra.Command {
	var (
		file             string
		wakeupAdjustment string
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore a snapshot onto the bridge",
		Long: `Reconciles the snapshot against the destination bridge: physical devices
are matched by hardware id, logical entities by name, and everything
missing is created in dependency order. Entities whose devices are not
paired yet are skipped with a reason and picked up by a later run.

The command exits successfully even when entities were skipped; the
summary on stdout lists each one. A non-zero exit means the run itself
could not proceed (unreadable snapshot or unreachable bridge).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if wakeupAdjustment != "" {
				cfg.Restore.WakeupAdjustment = wakeupAdjustment
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := logging.New(cfg.Logging, version)

			client, err := bridgeClient(cfg, log)
			if err != nil {
				return err
			}

			snap, err := snapshot.Load(file)
			if err != nil {
				return err
			}

			started := time.Now()
			runner := restore.NewRunner(client, restore.Options{
				WakeupAdjustment: cfg.Restore.WakeupAdjustment,
			}, log)
			summary, err := runner.Run(cmd.Context(), snap)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), summary.Render())

			recordRun(cmd.Context(), cfg, log, &history.Run{
				Kind:         history.KindRestore,
				BridgeID:     snap.Config.BridgeID,
				BridgeName:   snap.Config.Name,
				SnapshotPath: file,
				Details: map[string]any{
					"skipped":       len(summary.Skipped),
					"failed":        len(summary.Failures),
					"warnings":      len(summary.Warnings),
					"links_deleted": summary.LinksDeleted,
					"clean":         summary.Clean(),
				},
				StartedAt: started,
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "hue-backup.json", "snapshot file to restore")
	cmd.Flags().StringVar(&wakeupAdjustment, "wakeup-adjustment", "",
		"how absolute schedule times cross timezones (preserve-wall-clock, shift-offset)")
	return cmd
}
