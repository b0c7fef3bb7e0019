// huekeep - Hue bridge backup and restore
//
// huekeep captures a bridge's full configuration into a snapshot file and
// restores it onto the same bridge or a different one, reconciling
// bridge-local identifiers through hardware ids and names. Restore runs
// are stateless and idempotent: pair more devices, run again, and the
// newly satisfiable remainder is applied.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/greyhollow/huekeep/migrations"

	"github.com/greyhollow/huekeep/internal/bridge"
	"github.com/greyhollow/huekeep/internal/infrastructure/config"
	"github.com/greyhollow/huekeep/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
)

var (
	cfgFile       string
	flagBridge    string
	flagAPIKey    string
	flagLogLevel  string
	flagLogFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "huekeep",
		Short: "Backup and restore Hue bridge configuration",
		Long: `huekeep captures the full configuration of a Hue bridge (lights, sensors,
groups, scenes, schedules, rules, resource links) into a snapshot file and
restores it onto any bridge, matching physical devices by hardware id and
logical entities by name.

Restores are safe to re-run: each run recomputes what is missing from live
bridge state and applies only that.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config.yaml (optional)")
	root.PersistentFlags().StringVar(&flagBridge, "bridge", "", "bridge hostname or IP")
	root.PersistentFlags().StringVar(&flagAPIKey, "key", "", "bridge API key")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format (text, json)")

	root.AddCommand(newBackupCommand())
	root.AddCommand(newRestoreCommand())
	root.AddCommand(newHistoryCommand())
	return root
}

// loadConfig resolves the effective configuration: defaults, then the
// config file if given, then environment variables, then flags.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if flagBridge != "" {
		cfg.Bridge.Address = flagBridge
	}
	if flagAPIKey != "" {
		cfg.Bridge.APIKey = flagAPIKey
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Logging.Format = flagLogFormat
	}
	return cfg, nil
}

// bridgeClient builds the API client, verifying the connection settings
// are present after flag merging.
func bridgeClient(cfg *config.Config, log *logging.Logger) (*bridge.Client, error) {
	if cfg.Bridge.Address == "" {
		return nil, fmt.Errorf("bridge address required (--bridge, HUEKEEP_BRIDGE_ADDRESS, or config file)")
	}
	if cfg.Bridge.APIKey == "" {
		return nil, fmt.Errorf("bridge API key required (--key, HUEKEEP_BRIDGE_API_KEY, or config file)")
	}
	return bridge.New(bridge.Config{
		Address:    cfg.Bridge.Address,
		APIKey:     cfg.Bridge.APIKey,
		Timeout:    cfg.HTTP.Timeout(),
		RetryCount: cfg.HTTP.RetryCount,
		RetryDelay: cfg.HTTP.RetryDelay(),
	}, log), nil
}
