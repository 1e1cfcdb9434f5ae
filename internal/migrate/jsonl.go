// Package migrate moves task lists in and out of planner as JSONL, one task
// record per line in the cache/wire format.
package migrate

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mschirtzinger/planner/internal/task"
)

// Engine is the subset of the sync engine an import needs.
type Engine interface {
	Create(content string) (task.Task, error)
	ToggleComplete(id int) (task.Task, error)
	CyclePriority(id int) (task.Task, error)
}

// ImportOptions contains configuration for an import
type ImportOptions struct {
	FromJSONL string // Input JSONL file path
	DryRun    bool   // Parse and count without creating tasks
}

// ImportResult contains statistics about an import
type ImportResult struct {
	Read    int
	Created int
	Skipped int
	Errors  []string
}

// ReadJSONL decodes task records from r. Blank lines are ignored.
func ReadJSONL(r io.Reader) ([]task.Task, error) {
	var tasks []task.Task
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var t task.Task
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("invalid JSON at line %d: %w", lineNum, err)
		}
		tasks = append(tasks, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL: %w", err)
	}
	return tasks, nil
}

// WriteJSONL encodes tasks to w, one per line.
func WriteJSONL(w io.Writer, tasks []task.Task) error {
	enc := json.NewEncoder(w)
	for _, t := range tasks {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("failed to encode task %d: %w", t.ID, err)
		}
	}
	return nil
}

// ExportFile writes tasks to path, replacing it atomically via a temp file.
func ExportFile(path string, tasks []task.Task) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tmpPath := path + ".tmp"
	// #nosec G304 - controlled path from CLI
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	w := bufio.NewWriter(f)
	err = WriteJSONL(w, tasks)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Import recreates the tasks of a JSONL file through the engine. Imported
// tasks get fresh ids; content, completion and priority are carried over.
// Tombstones and records that fail validation are skipped.
func Import(eng Engine, opts ImportOptions) (*ImportResult, error) {
	// #nosec G304 - controlled path from CLI
	file, err := os.Open(opts.FromJSONL)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer file.Close()

	tasks, err := ReadJSONL(file)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Read: len(tasks)}
	for _, src := range tasks {
		if src.Deleted {
			result.Skipped++
			continue
		}
		if err := src.Validate(); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("task %d: %v", src.ID, err))
			continue
		}
		if opts.DryRun {
			result.Created++
			continue
		}
		if err := recreate(eng, src); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("task %d: %v", src.ID, err))
			continue
		}
		result.Created++
	}
	return result, nil
}

func recreate(eng Engine, src task.Task) error {
	t, err := eng.Create(src.Content)
	if err != nil {
		return err
	}
	for i := 0; i < 3 && t.Priority != src.Priority; i++ {
		if t, err = eng.CyclePriority(t.ID); err != nil {
			return err
		}
	}
	if t.Priority != src.Priority {
		return errors.New("priority not reachable")
	}
	if src.Completed() {
		if _, err := eng.ToggleComplete(t.ID); err != nil {
			return err
		}
	}
	return nil
}
