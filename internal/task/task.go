// Package task defines the task record shared by the local cache, the remote
// store and the sync engine.
package task

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Priority is the task priority. It serializes as a single letter.
type Priority string

const (
	// PriorityLow is the default priority for new tasks.
	PriorityLow Priority = "L"
	// PriorityMedium sits between low and high.
	PriorityMedium Priority = "M"
	// PriorityHigh is the highest priority.
	PriorityHigh Priority = "H"
)

// Next returns the priority that follows p in the L -> M -> H -> L cycle.
// Unknown values restart the cycle at medium, as if they were low.
func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// String returns the human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParsePriority accepts either the wire letter or the long name.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "L", "l", "low":
		return PriorityLow, nil
	case "M", "m", "medium":
		return PriorityMedium, nil
	case "H", "h", "high":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Task is a single tracked item.
//
// Timestamps are Unix milliseconds. A zero CompletedTime means the task is
// open; a zero LastModifiedTime means it has never been edited since creation.
// The JSON field names are shared with the remote API and the cache keys.
type Task struct {
	ID               int      `json:"id"`
	Content          string   `json:"content"`
	CreatedTime      int64    `json:"createdTime"`
	CompletedTime    int64    `json:"completedTime"`
	Priority         Priority `json:"priority"`
	LastModifiedTime int64    `json:"lastModifiedTime"`
	Deleted          bool     `json:"deleted"`
}

// Millis converts t to Unix milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Validate checks that the record can be stored or sent.
func (t *Task) Validate() error {
	if t.ID < 1 {
		return fmt.Errorf("id must be positive (got %d)", t.ID)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if t.CreatedTime <= 0 {
		return fmt.Errorf("createdTime is required")
	}
	if t.CompletedTime < 0 {
		return fmt.Errorf("completedTime must not be negative")
	}
	if t.LastModifiedTime < 0 {
		return fmt.Errorf("lastModifiedTime must not be negative")
	}
	return nil
}

// Completed reports whether the task has a completion time.
func (t Task) Completed() bool {
	return t.CompletedTime != 0
}

// Tombstone returns a copy of t marked deleted at the given time.
func (t Task) Tombstone(at time.Time) Task {
	t.Deleted = true
	t.LastModifiedTime = Millis(at)
	return t
}

// Version is the timestamp used for last-write-wins comparisons.
func (t Task) Version() int64 {
	if t.LastModifiedTime != 0 {
		return t.LastModifiedTime
	}
	return t.CreatedTime
}

// Clone returns a copy of tasks that shares no backing array with the input.
// A nil input yields an empty, non-nil slice.
func Clone(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// MaxID returns the highest id in tasks, or 0 for an empty slice.
func MaxID(tasks []Task) int {
	highest := 0
	for _, t := range tasks {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest
}

// SortByID orders tasks by ascending id in place.
func SortByID(tasks []Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
}

// MarshalList encodes tasks as a JSON array. A nil slice encodes as [].
func MarshalList(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tasks: %w", err)
	}
	return data, nil
}

// UnmarshalList decodes a JSON array of tasks.
func UnmarshalList(data []byte) ([]Task, error) {
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse tasks: %w", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}
