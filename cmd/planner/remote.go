package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mschirtzinger/planner/internal/remote"
	"github.com/mschirtzinger/planner/internal/ui"
)

var serveRemoteCmd = &cobra.Command{
	Use:     "serve-remote",
	GroupID: "advanced",
	Short:   "Serve an in-memory remote task store",
	Long: `Serve the remote task store API from memory, for development and demos:

  GET  /api/tasks/undeleted   undeleted tasks
  GET  /api/tasks/count       number of stored records, tombstones included
  POST /api/task              upsert one task (last write wins)
  POST /api/tasks             upsert a batch

Data is lost when the server stops.`,
	Run: func(cmd *cobra.Command, args []string) {
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		store := remote.NewMemoryStore()
		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      remote.NewServer(store, logs.Logger("remote")).Handler(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		fmt.Printf("%s Remote store listening on http://localhost:%d/api\n", ui.RenderAccent("●"), port)
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		select {
		case err := <-errCh:
			if err != nil {
				fatalf("remote store failed: %v", err)
			}
		case <-ctx.Done():
		}

		fmt.Println("\nShutting down remote store...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fatalf("shutdown: %v", err)
		}
		fmt.Printf("Remote store stopped (%d records)\n", store.Count())
	},
}

func init() {
	serveRemoteCmd.Flags().IntP("port", "p", 8090, "Port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveRemoteCmd)
}
