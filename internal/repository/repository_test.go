package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mschirtzinger/planner/internal/task"
)

// fakeClock returns a clock that advances one second per call.
func fakeClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestCreate(t *testing.T) {
	r := New(fakeClock())

	got, err := r.Create("  write tests  ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := task.Task{
		ID:          1,
		Content:     "write tests",
		CreatedTime: 1_700_000_001_000,
		Priority:    task.PriorityLow,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Create mismatch (-want +got):\n%s", diff)
	}
	if r.NextID() != 2 {
		t.Errorf("NextID() = %d, want 2", r.NextID())
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	if _, err := r.Create("   "); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Create(blank) error = %v, want ErrEmptyContent", err)
	}
	if r.NextID() != 2 {
		t.Error("rejected Create advanced the counter")
	}
}

func TestIDsMonotonicAfterRemove(t *testing.T) {
	r := New(fakeClock())

	var ids []int
	for i := 0; i < 3; i++ {
		tk, _ := r.Create("t")
		ids = append(ids, tk.ID)
	}
	if _, err := r.Remove(3); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	tk, _ := r.Create("after remove")
	ids = append(ids, tk.ID)

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not strictly increasing: %v", ids)
		}
	}
	if tk.ID == 3 {
		t.Error("removed id was reused")
	}
}

func TestToggleComplete(t *testing.T) {
	r := New(fakeClock())
	created, _ := r.Create("A")

	done, err := r.ToggleComplete(created.ID)
	if err != nil {
		t.Fatalf("ToggleComplete failed: %v", err)
	}
	if done.CompletedTime == 0 || done.LastModifiedTime != done.CompletedTime {
		t.Errorf("after first toggle = %+v", done)
	}

	reopened, _ := r.ToggleComplete(created.ID)
	if reopened.CompletedTime != 0 {
		t.Errorf("CompletedTime = %d, want 0", reopened.CompletedTime)
	}
	if reopened.LastModifiedTime <= done.LastModifiedTime {
		t.Error("LastModifiedTime not refreshed")
	}

	stored, _ := r.Get(created.ID)
	if diff := cmp.Diff(reopened, stored); diff != "" {
		t.Errorf("working set not updated (-want +got):\n%s", diff)
	}
}

func TestCyclePriority(t *testing.T) {
	r := New(fakeClock())
	r.Create("one")
	r.Create("two")

	want := []task.Priority{task.PriorityMedium, task.PriorityHigh, task.PriorityLow}
	for i, w := range want {
		got, err := r.CyclePriority(2)
		if err != nil {
			t.Fatalf("CyclePriority failed: %v", err)
		}
		if got.Priority != w {
			t.Errorf("cycle %d = %s, want %s", i+1, got.Priority, w)
		}
	}

	first, _ := r.Get(1)
	if first.Priority != task.PriorityLow || first.LastModifiedTime != 0 {
		t.Errorf("untouched task changed: %+v", first)
	}
}

func TestNotFound(t *testing.T) {
	r := New(nil)

	ops := map[string]func() error{
		"get":      func() error { _, err := r.Get(9); return err },
		"toggle":   func() error { _, err := r.ToggleComplete(9); return err },
		"priority": func() error { _, err := r.CyclePriority(9); return err },
		"remove":   func() error { _, err := r.Remove(9); return err },
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestRemove(t *testing.T) {
	r := New(fakeClock())
	r.Create("A")
	b, _ := r.Create("B")
	r.Create("C")
	before := r.List()

	got, err := r.Remove(b.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if diff := cmp.Diff(b, got); diff != "" {
		t.Errorf("returned snapshot mismatch (-want +got):\n%s", diff)
	}
	if _, err := r.Get(b.ID); !errors.Is(err, ErrNotFound) {
		t.Error("removed task still present")
	}

	var contents []string
	for _, tk := range r.List() {
		contents = append(contents, tk.Content)
	}
	if diff := cmp.Diff([]string{"A", "C"}, contents); diff != "" {
		t.Errorf("order after remove (-want +got):\n%s", diff)
	}
	if len(before) != 3 || before[1].Content != "B" {
		t.Error("List() result was aliased by Remove")
	}
}

func TestReplaceAndEnsureNextID(t *testing.T) {
	r := New(nil)

	r.Replace([]task.Task{{ID: 4}, {ID: 7}}, 3)
	if r.NextID() != 8 {
		t.Errorf("NextID() = %d, want 8 (above max id)", r.NextID())
	}

	r.EnsureNextID(20)
	if r.NextID() != 20 {
		t.Errorf("NextID() = %d, want 20", r.NextID())
	}
	r.EnsureNextID(5)
	if r.NextID() != 20 {
		t.Error("EnsureNextID lowered the counter")
	}

	r.Replace(nil, 0)
	if r.NextID() != 1 || r.Len() != 0 {
		t.Errorf("after empty Replace: next %d len %d", r.NextID(), r.Len())
	}
}
