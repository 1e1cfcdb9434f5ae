package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/planner/internal/connectivity"
	"github.com/mschirtzinger/planner/internal/sync"
	"github.com/mschirtzinger/planner/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Run a full reconciliation with the remote store",
	Long: `Run a Full Reconciliation and wait for it:
  1. Push every task in the local working set
  2. Replace the working set with the remote's undeleted tasks
  3. Flush queued deletions in one batch

Fails when the status file says the device is offline.`,
	Run: func(cmd *cobra.Command, args []string) {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		s := mustOpenSession(cmd.Context())
		defer s.close()

		fmt.Printf("%s Syncing with %s...\n", ui.RenderAccent("↻"), cfg.Remote.URL)
		start := time.Now()

		if err := s.engine.Reconcile(); err != nil {
			s.close()
			fatalf("%v (run 'planner net online' when connected)", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.engine.Settle(ctx); err != nil {
			s.close()
			fatalf("sync did not finish within %s", timeout)
		}

		state, err := s.engine.Snapshot()
		if err != nil {
			s.close()
			fatalf("%v", err)
		}
		if state.LastError != nil && !state.LastError.At.Before(start) {
			fmt.Printf("%s Sync finished with errors: %v\n", ui.RenderWarn("⚠"), state.LastError)
			s.close()
			os.Exit(1)
		}

		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), time.Since(start).Round(time.Millisecond))
		fmt.Printf("   Tasks: %d\n", len(state.Tasks))
		fmt.Printf("   Next id: %d\n", state.NextID)
		fmt.Printf("   Pending deletions: %d\n", state.PendingDeletions)
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show sync status",
	Long: `Display the current session state:
  - Connectivity, with the (offline) indicator
  - Task and pending-deletion counts
  - Cache location and availability
  - The last sync error, if any`,
	Run: func(cmd *cobra.Command, args []string) {
		s := mustOpenSession(cmd.Context())
		defer s.close()

		state, err := s.engine.Snapshot()
		if err != nil {
			s.close()
			fatalf("%v", err)
		}
		fmt.Print(renderStatus(state, cfg.Cache.Path, cfg.Remote.URL))
	},
}

func renderStatus(state sync.State, cachePath, remoteURL string) string {
	title := "Planner Status"
	if state.Connectivity == connectivity.Offline {
		title += " " + ui.RenderWarn("(offline)")
	}

	completed := 0
	for _, t := range state.Tasks {
		if t.Completed() {
			completed++
		}
	}

	cacheState := ui.RenderPass("available")
	if !state.CacheAvailable {
		cacheState = ui.RenderFail("unavailable")
	}

	out := fmt.Sprintf("\n%s %s\n\n", ui.RenderAccent("●"), title)
	out += fmt.Sprintf("Remote: %s (%s)\n", remoteURL, state.Connectivity)
	out += fmt.Sprintf("Cache: %s (%s)\n", cachePath, cacheState)
	out += fmt.Sprintf("Tasks: %d (%d completed)\n", len(state.Tasks), completed)
	out += fmt.Sprintf("Next id: %d\n", state.NextID)
	out += fmt.Sprintf("Pending deletions: %d\n", state.PendingDeletions)
	if state.LastError != nil {
		out += fmt.Sprintf("Last error: %s %s\n", ui.RenderFail(state.LastError.Error()),
			ui.RenderMuted(state.LastError.At.Format("2006-01-02 15:04:05")))
	}
	return out + "\n"
}

func init() {
	syncCmd.Flags().Duration("timeout", 30*time.Second, "How long to wait for the reconciliation")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}
