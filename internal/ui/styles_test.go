package ui

import (
	"strings"
	"testing"

	"github.com/mschirtzinger/planner/internal/task"
)

func TestRenderTask(t *testing.T) {
	tests := []struct {
		name string
		task task.Task
		want []string
	}{
		{
			name: "open",
			task: task.Task{ID: 3, Content: "water plants", Priority: task.PriorityHigh},
			want: []string{"3", "[ ]", "H", "water plants"},
		},
		{
			name: "completed",
			task: task.Task{ID: 12, Content: "file taxes", Priority: task.PriorityLow, CompletedTime: 1},
			want: []string{"12", "[x]", "L", "file taxes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderTask(tt.task)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("RenderTask() = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestRenderTaskList_Empty(t *testing.T) {
	if got := RenderTaskList(nil); !strings.Contains(got, "No tasks") {
		t.Errorf("RenderTaskList(nil) = %q", got)
	}
}
