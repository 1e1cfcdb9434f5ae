package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/planner/internal/connectivity"
	"github.com/mschirtzinger/planner/internal/ui"
)

var netCmd = &cobra.Command{
	Use:     "net [online|offline]",
	GroupID: "sync",
	Short:   "Show or set the connectivity status",
	Long: `Show or set the connectivity status file that planner reads at startup
and the daemon watches for changes.

Network managers or hooks can call 'planner net offline' and
'planner net online'; a running daemon reconciles on the offline -> online
transition. A missing status file means online.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"online", "offline"},
	Run: func(cmd *cobra.Command, args []string) {
		path := cfg.Connectivity.StatusFile

		if len(args) == 0 {
			status, err := connectivity.ReadStatusFile(path)
			if err != nil {
				fatalf("%v", err)
			}
			fmt.Printf("%s (%s)\n", renderConnectivity(status), path)
			return
		}

		status, ok := connectivity.ParseStatus(args[0])
		if !ok {
			fatalf("unknown status %q (want online or offline)", args[0])
		}
		if err := connectivity.WriteStatusFile(path, status); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s Connectivity set to %s\n", ui.RenderPass("✓"), renderConnectivity(status))
	},
}

func renderConnectivity(s connectivity.Status) string {
	if s == connectivity.Online {
		return ui.RenderPass(s.String())
	}
	return ui.RenderWarn(s.String())
}

func init() {
	rootCmd.AddCommand(netCmd)
}
