// Package cache is the device-local persistent cache for the task working set.
//
// The Adapter stores three keys in a Store:
//
//	tasks         JSON array of the working set
//	taskIdx       JSON integer, the next id to assign
//	deletedTasks  JSON array of tombstones not yet acknowledged by the remote
//
// A missing key means "never initialized" and is reported separately from an
// empty array. When the Store refuses writes the Adapter degrades: every write
// becomes a no-op and every read reports nothing.
package cache

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"github.com/mschirtzinger/planner/internal/task"
)

// Cache keys.
const (
	KeyTasks        = "tasks"
	KeyCounter      = "taskIdx"
	KeyDeletedTasks = "deletedTasks"

	probeKey = "test"
)

// Adapter wraps a Store with the task-specific cache operations. It holds no
// task data of its own.
type Adapter struct {
	store  Store
	logger *log.Logger
}

// New creates an Adapter over store. A nil logger discards output.
func New(store Store, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Adapter{store: store, logger: logger}
}

// Available probes whether the store accepts writes by writing and removing
// a throwaway key. It never fails; any error means false.
func (a *Adapter) Available() bool {
	if a == nil || a.store == nil {
		return false
	}
	ctx := context.Background()
	if err := a.store.Set(ctx, probeKey, []byte(probeKey)); err != nil {
		return false
	}
	if err := a.store.Delete(ctx, probeKey); err != nil {
		return false
	}
	return true
}

// LoadTasks returns the cached working set. ok is false when the cache is
// unavailable, the key is absent, or the stored value cannot be parsed.
func (a *Adapter) LoadTasks() (tasks []task.Task, ok bool) {
	return a.loadList(KeyTasks)
}

// SaveTasks replaces the cached working set.
func (a *Adapter) SaveTasks(tasks []task.Task) {
	a.saveList(KeyTasks, tasks)
}

// LoadCounter returns the cached next-id counter.
func (a *Adapter) LoadCounter() (int, bool) {
	if !a.Available() {
		return 0, false
	}
	data, ok := a.get(KeyCounter)
	if !ok {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		a.logger.Printf("Warning: ignoring unparsable %s: %v", KeyCounter, err)
		return 0, false
	}
	return n, true
}

// SaveCounter stores the next-id counter.
func (a *Adapter) SaveCounter(n int) {
	if !a.Available() {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		a.logger.Printf("Warning: failed to marshal counter: %v", err)
		return
	}
	a.set(KeyCounter, data)
}

// LoadPendingDeletions returns the queued tombstones in append order. An
// absent key or an unavailable cache yields an empty slice.
func (a *Adapter) LoadPendingDeletions() []task.Task {
	tasks, ok := a.loadList(KeyDeletedTasks)
	if !ok {
		return []task.Task{}
	}
	return tasks
}

// AppendPendingDeletion adds a tombstone to the end of the queue.
func (a *Adapter) AppendPendingDeletion(t task.Task) {
	if !a.Available() {
		return
	}
	queue := a.LoadPendingDeletions()
	a.saveList(KeyDeletedTasks, append(queue, t))
}

// ClearPendingDeletions removes the queue key entirely.
func (a *Adapter) ClearPendingDeletions() {
	if !a.Available() {
		return
	}
	if err := a.store.Delete(context.Background(), KeyDeletedTasks); err != nil {
		a.logger.Printf("Warning: failed to clear %s: %v", KeyDeletedTasks, err)
	}
}

// TrimPendingDeletions drops the first n queued tombstones and keeps anything
// appended after them. Trimming the whole queue clears the key.
func (a *Adapter) TrimPendingDeletions(n int) {
	if n <= 0 || !a.Available() {
		return
	}
	queue := a.LoadPendingDeletions()
	if n >= len(queue) {
		a.ClearPendingDeletions()
		return
	}
	a.saveList(KeyDeletedTasks, queue[n:])
}

func (a *Adapter) loadList(key string) ([]task.Task, bool) {
	if !a.Available() {
		return nil, false
	}
	data, ok := a.get(key)
	if !ok {
		return nil, false
	}
	tasks, err := task.UnmarshalList(data)
	if err != nil {
		a.logger.Printf("Warning: ignoring unparsable %s: %v", key, err)
		return nil, false
	}
	return tasks, true
}

func (a *Adapter) saveList(key string, tasks []task.Task) {
	if !a.Available() {
		return
	}
	data, err := task.MarshalList(tasks)
	if err != nil {
		a.logger.Printf("Warning: %v", err)
		return
	}
	a.set(key, data)
}

func (a *Adapter) get(key string) ([]byte, bool) {
	data, ok, err := a.store.Get(context.Background(), key)
	if err != nil {
		a.logger.Printf("Warning: failed to read %s: %v", key, err)
		return nil, false
	}
	return data, ok
}

func (a *Adapter) set(key string, data []byte) {
	if err := a.store.Set(context.Background(), key, data); err != nil {
		a.logger.Printf("Warning: failed to write %s: %v", key, err)
	}
}
