package remote

import (
	"context"
	"sync"

	"github.com/mschirtzinger/planner/internal/task"
)

// Call records one operation received by a MemoryStore.
type Call struct {
	Op  Op
	IDs []int
}

// MemoryStore is an in-memory remote store. It backs the reference Server
// and doubles as a Client fake in tests, with switches for going offline,
// failing individual operations and holding calls until released.
type MemoryStore struct {
	mu      sync.Mutex
	records map[int]task.Task
	calls   []Call

	offline bool
	fail    map[Op]error
	gate    chan struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int]task.Task),
		fail:    make(map[Op]error),
	}
}

// SetOffline makes every operation fail with a *NetworkError while on.
func (m *MemoryStore) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

// FailOp makes op fail with err until cleared with FailOp(op, nil).
func (m *MemoryStore) FailOp(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

// Hold blocks every subsequent operation until the returned release function
// is called. Calling release more than once is safe.
func (m *MemoryStore) Hold() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.gate = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.gate == gate {
				m.gate = nil
			}
			m.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns a copy of the operation log.
func (m *MemoryStore) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Record returns the stored state of id, including tombstones.
func (m *MemoryStore) Record(id int) (task.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.records[id]
	return t, ok
}

// Seed stores tasks directly, bypassing the call log and failure switches.
func (m *MemoryStore) Seed(tasks ...task.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		m.records[t.ID] = t
	}
}

// enter logs the call, waits on any gate and applies failure switches.
func (m *MemoryStore) enter(ctx context.Context, op Op, ids []int) error {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Op: op, IDs: ids})
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return &NetworkError{Op: op, Err: ctx.Err()}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return &NetworkError{Op: op, Err: ErrUnreachable}
	}
	if err, ok := m.fail[op]; ok {
		return err
	}
	return nil
}

// FetchUndeletedTasks implements Client. Results are ordered by id.
func (m *MemoryStore) FetchUndeletedTasks(ctx context.Context) ([]task.Task, error) {
	if err := m.enter(ctx, OpFetchUndeleted, nil); err != nil {
		return nil, err
	}
	return m.Undeleted(), nil
}

// Undeleted returns the live records ordered by id.
func (m *MemoryStore) Undeleted() []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]task.Task, 0, len(m.records))
	for _, t := range m.records {
		if !t.Deleted {
			out = append(out, t)
		}
	}
	task.SortByID(out)
	return out
}

// FetchTaskCount implements Client. Tombstones are counted so that
// count+1 never reuses the id of a deleted task.
func (m *MemoryStore) FetchTaskCount(ctx context.Context) (int, error) {
	if err := m.enter(ctx, OpFetchCount, nil); err != nil {
		return 0, err
	}
	return m.Count(), nil
}

// Count returns the number of stored records including tombstones.
func (m *MemoryStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// PushTask implements Client.
func (m *MemoryStore) PushTask(ctx context.Context, t task.Task) error {
	if err := m.enter(ctx, OpPushTask, []int{t.ID}); err != nil {
		return err
	}
	m.Upsert(t)
	return nil
}

// PushBatch implements Client.
func (m *MemoryStore) PushBatch(ctx context.Context, tasks []task.Task) error {
	ids := make([]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	if err := m.enter(ctx, OpPushBatch, ids); err != nil {
		return err
	}
	for _, t := range tasks {
		m.Upsert(t)
	}
	return nil
}

// Upsert stores t unless the stored record is strictly newer. Equal versions
// overwrite, so pushing the same state twice is a no-op in effect.
func (m *MemoryStore) Upsert(t task.Task) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.records[t.ID]; ok && cur.Version() > t.Version() {
		return false
	}
	m.records[t.ID] = t
	return true
}
