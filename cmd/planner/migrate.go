package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/planner/internal/migrate"
	"github.com/mschirtzinger/planner/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export <file>",
	GroupID: "advanced",
	Short:   "Write the working set to a JSONL file",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := mustOpenSession(cmd.Context())
		defer s.close()

		tasks, err := s.engine.Tasks()
		if err != nil {
			s.close()
			fatalf("failed to read tasks: %v", err)
		}
		if err := migrate.ExportFile(args[0], tasks); err != nil {
			s.close()
			fatalf("export failed: %v", err)
		}
		fmt.Printf("%s Exported %d tasks to %s\n", ui.RenderPass("✓"), len(tasks), args[0])
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "advanced",
	Short:   "Create tasks from a JSONL file",
	Long: `Create one task per record of a JSONL export. Imported tasks get new
ids; content, priority and completion are preserved. Deleted records are
skipped.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		s := mustOpenSession(cmd.Context())
		defer s.close()

		result, err := migrate.Import(s.engine, migrate.ImportOptions{
			FromJSONL: args[0],
			DryRun:    dryRun,
		})
		if err != nil {
			s.close()
			fatalf("import failed: %v", err)
		}

		for _, msg := range result.Errors {
			fmt.Printf("%s %s\n", ui.RenderWarn("⚠"), msg)
		}
		verb := "Imported"
		if dryRun {
			verb = "Would import"
		}
		fmt.Printf("%s %s %d of %d tasks (%d skipped)\n",
			ui.RenderPass("✓"), verb, result.Created, result.Read, result.Skipped)
	},
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "Parse and count without creating tasks")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
