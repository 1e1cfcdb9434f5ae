// Command planner is an offline-first task tracker. Tasks live in a local
// cache and are kept in step with a remote store whenever the device is
// online.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/planner/internal/config"
	"github.com/mschirtzinger/planner/internal/logging"
)

var (
	cfg     *config.Config
	logs    *logging.Factory
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Offline-first task tracker",
	Long: `planner keeps a personal task list in a local cache and synchronizes it
with a remote task store when the device is online.

Changes made offline are saved locally and pushed on the next reconnect.
Deletions made offline are queued and flushed in one batch.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("remote") {
			loaded.Remote.URL, _ = cmd.Flags().GetString("remote")
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		cfg = loaded

		logs = logging.New(logging.Options{
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
			Verbose:    verbose,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logs != nil {
			_ = logs.Close()
		}
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Tasks:"},
		&cobra.Group{ID: "sync", Title: "Sync:"},
		&cobra.Group{ID: "advanced", Title: "Advanced:"},
	)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log sync activity to stderr")
	rootCmd.PersistentFlags().String("remote", "", "Remote store URL (overrides remote.url)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// fatalf prints an error and exits.
func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
