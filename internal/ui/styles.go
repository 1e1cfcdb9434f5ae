// Package ui holds the terminal styles shared by planner commands.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mschirtzinger/planner/internal/task"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle   = mutedStyle.Strikethrough(true)

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		task.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)

func RenderAccent(s string) string { return accentStyle.Render(s) }
func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderWarn(s string) string   { return warnStyle.Render(s) }
func RenderFail(s string) string   { return failStyle.Render(s) }
func RenderMuted(s string) string  { return mutedStyle.Render(s) }

// RenderPriority renders the single-letter priority in its color.
func RenderPriority(p task.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		return string(p)
	}
	return style.Render(string(p))
}

// RenderTask formats one task as a list line.
func RenderTask(t task.Task) string {
	check := "[ ]"
	content := t.Content
	if t.Completed() {
		check = RenderPass("[x]")
		content = doneStyle.Render(content)
	}
	return fmt.Sprintf("%4d %s %s %s", t.ID, check, RenderPriority(t.Priority), content)
}

// RenderTaskList formats tasks one per line, or a placeholder when empty.
func RenderTaskList(tasks []task.Task) string {
	if len(tasks) == 0 {
		return RenderMuted("No tasks")
	}
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = RenderTask(t)
	}
	return strings.Join(lines, "\n")
}
