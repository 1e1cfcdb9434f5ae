package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mschirtzinger/planner/internal/config"
	"github.com/mschirtzinger/planner/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "advanced",
	Short:   "Manage planner configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the default configuration to ~/.planner/config.yaml, or with
--project to ./.planner/config.yaml. Project settings override global ones and
PLANNER_* environment variables override both.`,
	Run: func(cmd *cobra.Command, args []string) {
		project, _ := cmd.Flags().GetBool("project")
		force, _ := cmd.Flags().GetBool("force")

		var path string
		if project {
			cwd, err := os.Getwd()
			if err != nil {
				fatalf("%v", err)
			}
			path = config.ProjectConfigPath(cwd)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				fatalf("%v", err)
			}
			path = config.GlobalConfigPath(home)
		}

		if err := config.WriteDefault(path, force); err != nil {
			fatalf("%v (use --force to overwrite)", err)
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), path)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			fatalf("failed to marshal config: %v", err)
		}
		fmt.Print(string(out))
	},
}

func init() {
	configInitCmd.Flags().Bool("project", false, "Write ./.planner/config.yaml instead of the global file")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
