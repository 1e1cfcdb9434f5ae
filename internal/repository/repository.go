// Package repository holds the in-memory working set of a session and the
// synchronous operations that mutate it.
package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mschirtzinger/planner/internal/task"
)

var (
	// ErrNotFound is returned when an id is not in the working set.
	ErrNotFound = errors.New("task not found")
	// ErrEmptyContent is returned by Create for blank content.
	ErrEmptyContent = errors.New("task content is empty")
)

// Repository is the working set plus the next-id counter. It is not safe for
// concurrent use; the sync engine serializes access to it.
type Repository struct {
	tasks  []task.Task
	nextID int
	now    func() time.Time
}

// New returns an empty repository whose first id is 1. A nil clock means
// time.Now.
func New(now func() time.Time) *Repository {
	if now == nil {
		now = time.Now
	}
	return &Repository{tasks: []task.Task{}, nextID: 1, now: now}
}

// Replace swaps in a new working set and counter, for example after loading
// the cache or hydrating from the remote. The counter is raised if needed so
// that it stays above every id in tasks.
func (r *Repository) Replace(tasks []task.Task, nextID int) {
	r.tasks = task.Clone(tasks)
	r.nextID = 1
	r.EnsureNextID(nextID)
}

// EnsureNextID raises the counter to at least n and to one above the highest
// id in the working set. It never lowers the counter.
func (r *Repository) EnsureNextID(n int) {
	if n > r.nextID {
		r.nextID = n
	}
	if m := task.MaxID(r.tasks) + 1; m > r.nextID {
		r.nextID = m
	}
}

// NextID returns the id the next Create will assign.
func (r *Repository) NextID() int {
	return r.nextID
}

// List returns a copy of the working set in insertion order.
func (r *Repository) List() []task.Task {
	return task.Clone(r.tasks)
}

// Len returns the number of tasks in the working set.
func (r *Repository) Len() int {
	return len(r.tasks)
}

// Get returns the task with id.
func (r *Repository) Get(id int) (task.Task, error) {
	i := r.index(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	return r.tasks[i], nil
}

// Create appends a new low-priority, open task and advances the counter.
func (r *Repository) Create(content string) (task.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return task.Task{}, ErrEmptyContent
	}

	t := task.Task{
		ID:               r.nextID,
		Content:          content,
		CreatedTime:      task.Millis(r.now()),
		CompletedTime:    0,
		Priority:         task.PriorityLow,
		LastModifiedTime: 0,
		Deleted:          false,
	}
	r.nextID++
	r.tasks = append(r.tasks, t)
	return t, nil
}

// ToggleComplete marks an open task completed now, or reopens a completed one.
func (r *Repository) ToggleComplete(id int) (task.Task, error) {
	return r.update(id, func(t *task.Task, now int64) {
		if t.CompletedTime == 0 {
			t.CompletedTime = now
		} else {
			t.CompletedTime = 0
		}
	})
}

// CyclePriority advances the priority L -> M -> H -> L.
func (r *Repository) CyclePriority(id int) (task.Task, error) {
	return r.update(id, func(t *task.Task, _ int64) {
		t.Priority = t.Priority.Next()
	})
}

// Remove takes the task out of the working set and returns its last state.
// Routing the deletion to the remote is the caller's job.
func (r *Repository) Remove(id int) (task.Task, error) {
	i := r.index(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("remove %d: %w", id, ErrNotFound)
	}
	t := r.tasks[i]
	r.tasks = append(r.tasks[:i:i], r.tasks[i+1:]...)
	return t, nil
}

func (r *Repository) update(id int, fn func(t *task.Task, now int64)) (task.Task, error) {
	i := r.index(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("update %d: %w", id, ErrNotFound)
	}
	now := task.Millis(r.now())
	fn(&r.tasks[i], now)
	r.tasks[i].LastModifiedTime = now
	return r.tasks[i], nil
}

func (r *Repository) index(id int) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
