package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/planner/internal/repository"
	"github.com/mschirtzinger/planner/internal/task"
	"github.com/mschirtzinger/planner/internal/ui"
)

var addCmd = &cobra.Command{
	Use:     "add <content>...",
	GroupID: "tasks",
	Short:   "Add a task",
	Long: `Add a task with low priority. The task is saved to the local cache
immediately and pushed to the remote store when online.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := mustOpenSession(cmd.Context())
		defer s.close()

		t, err := s.engine.Create(strings.Join(args, " "))
		if err != nil {
			s.close()
			if errors.Is(err, repository.ErrEmptyContent) {
				fatalf("task content cannot be empty")
			}
			fatalf("failed to add task: %v", err)
		}
		fmt.Printf("%s Added %s\n", ui.RenderPass("✓"), ui.RenderTask(t))
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	GroupID: "tasks",
	Short:   "List tasks",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustOpenSession(cmd.Context())
		defer s.close()

		tasks, err := s.engine.Tasks()
		if err != nil {
			s.close()
			fatalf("failed to list tasks: %v", err)
		}

		pending, _ := cmd.Flags().GetBool("pending")
		if pending {
			open := tasks[:0]
			for _, t := range tasks {
				if !t.Completed() {
					open = append(open, t)
				}
			}
			tasks = open
		}
		fmt.Println(ui.RenderTaskList(tasks))
	},
}

var doneCmd = &cobra.Command{
	Use:     "done <id>",
	GroupID: "tasks",
	Short:   "Toggle a task between open and completed",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runTaskUpdate(cmd.Context(), args[0], "Toggled", func(s *session, id int) (task.Task, error) {
			return s.engine.ToggleComplete(id)
		})
	},
}

var priorityCmd = &cobra.Command{
	Use:     "priority <id>",
	Aliases: []string{"pri"},
	GroupID: "tasks",
	Short:   "Cycle a task's priority (L -> M -> H -> L)",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runTaskUpdate(cmd.Context(), args[0], "Reprioritized", func(s *session, id int) (task.Task, error) {
			return s.engine.CyclePriority(id)
		})
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	GroupID: "tasks",
	Short:   "Delete a task",
	Long: `Delete a task. Online, the deletion is sent to the remote store right
away; offline it is queued and flushed on the next sync.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := mustParseID(args[0])

		s := mustOpenSession(cmd.Context())
		defer s.close()

		tomb, err := s.engine.Remove(id)
		if err != nil {
			s.close()
			fatalf("failed to delete task %d: %v", id, err)
		}
		fmt.Printf("%s Deleted %d %s\n", ui.RenderPass("✓"), tomb.ID, ui.RenderMuted(tomb.Content))
	},
}

func runTaskUpdate(ctx context.Context, arg, verb string, fn func(*session, int) (task.Task, error)) {
	id := mustParseID(arg)

	s := mustOpenSession(ctx)
	defer s.close()

	t, err := fn(s, id)
	if err != nil {
		s.close()
		fatalf("%v", err)
	}
	fmt.Printf("%s %s %s\n", ui.RenderPass("✓"), verb, ui.RenderTask(t))
}

func mustParseID(arg string) int {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		fatalf("invalid task id %q", arg)
	}
	return id
}

func mustOpenSession(ctx context.Context) *session {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, cfg, logs)
	if err != nil {
		fatalf("%v", err)
	}
	return s
}

func init() {
	listCmd.Flags().Bool("pending", false, "Only show open tasks")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(priorityCmd)
	rootCmd.AddCommand(rmCmd)
}
