package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/planner/internal/connectivity"
	"github.com/mschirtzinger/planner/internal/dashboard"
	"github.com/mschirtzinger/planner/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Run the sync engine in the foreground",
	Long: `Run a long-lived sync session in the foreground.

The daemon watches the connectivity status file (see 'planner net') and runs
a Full Reconciliation every time it goes from offline to online. With
--dashboard it also serves a WebSocket feed of engine events:

  ws://localhost:<port>/ws     task_update, connectivity, sync_started,
                               sync_complete, deletions_flushed, sync_error
  http://localhost:<port>/state  current session snapshot (JSON)

Press Ctrl+C to stop; a final reconciliation is attempted when online.`,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("dashboard") {
			cfg.Dashboard.Enabled, _ = cmd.Flags().GetBool("dashboard")
		}
		if cmd.Flags().Changed("port") {
			cfg.Dashboard.Port, _ = cmd.Flags().GetInt("port")
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		s := mustOpenSession(ctx)
		defer s.close()

		source, err := connectivity.NewFileSource(cfg.Connectivity.StatusFile, s.monitor, logs.Logger("connectivity"))
		if err != nil {
			s.close()
			fatalf("%v", err)
		}
		if err := source.Start(); err != nil {
			s.close()
			fatalf("failed to watch status file: %v", err)
		}
		defer source.Stop()

		var server *dashboard.Server
		if cfg.Dashboard.Enabled {
			server = dashboard.NewServer(&dashboard.Config{
				Port:   cfg.Dashboard.Port,
				Logger: logs.Logger("dashboard"),
			}, func() (interface{}, error) {
				return s.engine.Snapshot()
			})
			s.engine.AddObserver(dashboard.NewHandler(server, logs.Logger("dashboard")))
			if err := server.Start(); err != nil {
				_ = source.Stop()
				s.close()
				fatalf("failed to start dashboard: %v", err)
			}
		}

		fmt.Printf("%s Sync daemon running\n", ui.RenderAccent("●"))
		fmt.Printf("   Remote: %s\n", cfg.Remote.URL)
		fmt.Printf("   Cache: %s\n", cfg.Cache.Path)
		fmt.Printf("   Status file: %s (%s)\n", cfg.Connectivity.StatusFile, s.monitor.Status())
		if server != nil {
			fmt.Printf("   Dashboard: http://localhost:%d (ws://localhost:%d/ws)\n", cfg.Dashboard.Port, cfg.Dashboard.Port)
		}
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		<-ctx.Done()

		fmt.Println("\nShutting down...")
		if server != nil {
			if err := server.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "Error stopping dashboard: %v\n", err)
			}
		}
		fmt.Println("Sync daemon stopped")
	},
}

func init() {
	daemonCmd.Flags().Bool("dashboard", false, "Serve the WebSocket dashboard (overrides dashboard.enabled)")
	daemonCmd.Flags().IntP("port", "p", 8081, "Dashboard port (overrides dashboard.port)")

	rootCmd.AddCommand(daemonCmd)
}
