package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mschirtzinger/planner/internal/task"
)

func newTask(id int, content string) task.Task {
	return task.Task{ID: id, Content: content, CreatedTime: 1000 + int64(id), Priority: task.PriorityLow}
}

func TestMemoryStore_PushIsIdempotent(t *testing.T) {
	ctx := context.Background()
	once := NewMemoryStore()
	twice := NewMemoryStore()

	a := newTask(1, "A")
	if err := once.PushTask(ctx, a); err != nil {
		t.Fatalf("PushTask failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := twice.PushTask(ctx, a); err != nil {
			t.Fatalf("PushTask #%d failed: %v", i, err)
		}
	}

	if diff := cmp.Diff(once.Undeleted(), twice.Undeleted()); diff != "" {
		t.Errorf("double push differs from single push (-once +twice):\n%s", diff)
	}
	if once.Count() != twice.Count() {
		t.Errorf("count %d != %d", once.Count(), twice.Count())
	}
}

func TestMemoryStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	newer := newTask(1, "newer")
	newer.LastModifiedTime = 5000
	older := newTask(1, "older")
	older.LastModifiedTime = 4000

	_ = m.PushTask(ctx, newer)
	_ = m.PushTask(ctx, older)

	got, _ := m.Record(1)
	if got.Content != "newer" {
		t.Errorf("stored content = %q, want newer copy kept", got.Content)
	}
}

func TestMemoryStore_TombstonesCountedButHidden(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Seed(newTask(1, "A"), newTask(2, "B"))

	tomb := newTask(2, "B").Tombstone(time.UnixMilli(9000))
	if err := m.PushBatch(ctx, []task.Task{tomb}); err != nil {
		t.Fatalf("PushBatch failed: %v", err)
	}

	live, err := m.FetchUndeletedTasks(ctx)
	if err != nil {
		t.Fatalf("FetchUndeletedTasks failed: %v", err)
	}
	if len(live) != 1 || live[0].ID != 1 {
		t.Errorf("undeleted = %+v, want only id 1", live)
	}

	count, err := m.FetchTaskCount(ctx)
	if err != nil || count != 2 {
		t.Errorf("count = %d, %v; want 2", count, err)
	}
}

func TestMemoryStore_FailureSwitches(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	m.SetOffline(true)
	err := m.PushTask(ctx, newTask(1, "A"))
	if !IsNetworkError(err) || !errors.Is(err, ErrUnreachable) {
		t.Fatalf("offline PushTask error = %v, want NetworkError", err)
	}
	m.SetOffline(false)

	m.FailOp(OpFetchCount, &ServerError{Op: OpFetchCount, Code: 503})
	_, err = m.FetchTaskCount(ctx)
	if code, ok := ServerCode(err); !ok || code != 503 {
		t.Fatalf("FetchTaskCount error = %v, want ServerError 503", err)
	}
	m.FailOp(OpFetchCount, nil)
	if _, err := m.FetchTaskCount(ctx); err != nil {
		t.Errorf("cleared failure still failing: %v", err)
	}

	if n := len(m.Calls()); n != 3 {
		t.Errorf("call log has %d entries, want 3", n)
	}
}

func TestMemoryStore_Hold(t *testing.T) {
	m := NewMemoryStore()
	release := m.Hold()

	done := make(chan error, 1)
	go func() { done <- m.PushTask(context.Background(), newTask(1, "A")) }()

	select {
	case <-done:
		t.Fatal("PushTask returned while held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	release()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("PushTask failed after release: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("PushTask did not complete after release")
	}
}
