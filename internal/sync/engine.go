package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/mschirtzinger/planner/internal/connectivity"
	"github.com/mschirtzinger/planner/internal/remote"
	"github.com/mschirtzinger/planner/internal/repository"
	"github.com/mschirtzinger/planner/internal/task"
)

var (
	// ErrNotStarted is returned by operations called before Start.
	ErrNotStarted = errors.New("sync engine not started")
	// ErrClosed is returned by operations called after Close.
	ErrClosed = errors.New("sync engine closed")
	// ErrOffline is returned by Reconcile when there is no connectivity.
	ErrOffline = errors.New("offline")
)

// Phase is the engine lifecycle state.
type Phase int

const (
	PhaseBootstrapping Phase = iota
	PhaseReady
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseBootstrapping:
		return "bootstrapping"
	case PhaseReady:
		return "ready"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Cache is the local persistence the engine needs. *cache.Adapter satisfies it.
type Cache interface {
	Available() bool
	LoadTasks() ([]task.Task, bool)
	SaveTasks([]task.Task)
	LoadCounter() (int, bool)
	SaveCounter(int)
	LoadPendingDeletions() []task.Task
	AppendPendingDeletion(task.Task)
	TrimPendingDeletions(n int)
}

// Network reports reachability. *connectivity.Monitor satisfies it.
type Network interface {
	Status() connectivity.Status
	Subscribe() (<-chan connectivity.Status, func())
}

// Config holds engine settings.
type Config struct {
	// RequestTimeout bounds each remote call.
	RequestTimeout time.Duration

	// Logger for engine activity.
	Logger *log.Logger

	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RequestTimeout: 10 * time.Second,
		Logger:         log.New(os.Stderr, "[sync] ", log.LstdFlags),
		Now:            time.Now,
	}
}

// State is a point-in-time copy of the session state.
type State struct {
	Phase            Phase               `json:"phase"`
	Tasks            []task.Task         `json:"tasks"`
	NextID           int                 `json:"nextId"`
	Connectivity     connectivity.Status `json:"connectivity"`
	LastError        *SyncError          `json:"lastError,omitempty"`
	PendingDeletions int                 `json:"pendingDeletions"`
	CacheAvailable   bool                `json:"cacheAvailable"`
	Reconciling      bool                `json:"reconciling"`
	Reconciliations  int                 `json:"reconciliations"`
}

// Engine owns the session state and keeps the cache and the remote store in
// step with it.
//
// All state lives on a single goroutine. Public methods and remote
// completions are closures run on that goroutine in arrival order, so no
// two of them ever interleave. Remote calls run on their own goroutines and
// post their effect back; completions that arrive after Close are dropped.
type Engine struct {
	cache   Cache
	client  remote.Client
	network Network
	config  *Config

	ops     chan func()
	stopped chan struct{}
	started atomic.Bool
	calls   stdsync.WaitGroup
	unsub   func()

	// Owned by the loop goroutine.
	phase          Phase
	repo           *repository.Repository
	online         bool
	lastError      *SyncError
	cacheAvailable bool
	sessionPending []task.Task
	tombstones     map[int]int
	observers      []Observer
	inflight       int
	idleWaiters    []chan struct{}
	recon          reconcileState
}

// New creates an engine. Call Start to bootstrap it.
func New(cache Cache, client remote.Client, network Network, config *Config) (*Engine, error) {
	if cache == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	if client == nil {
		return nil, fmt.Errorf("remote client cannot be nil")
	}
	if network == nil {
		return nil, fmt.Errorf("network cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard, "", 0)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}

	return &Engine{
		cache:   cache,
		client:  client,
		network: network,
		config:  config,
		ops:     make(chan func()),
		stopped: make(chan struct{}),
		phase:   PhaseBootstrapping,
		repo:    repository.New(config.Now),

		tombstones: make(map[int]int),
	}, nil
}

// AddObserver registers o for engine events. It may be called before Start.
func (e *Engine) AddObserver(o Observer) {
	if !e.started.Load() {
		e.observers = append(e.observers, o)
		return
	}
	_ = e.call(func() { e.observers = append(e.observers, o) })
}

// Start bootstraps the working set and starts the engine goroutine.
//
// The cache is the bootstrap source when available. Otherwise, when online,
// the working set is hydrated from the remote before Start returns, so no
// mutation is ever applied to an unhydrated set. ctx bounds the hydration.
func (e *Engine) Start(ctx context.Context) error {
	if e.started.Load() {
		return fmt.Errorf("sync engine already started")
	}

	// Subscribe before sampling so no transition falls in between.
	events, unsub := e.network.Subscribe()
	e.unsub = unsub
	e.online = e.network.Status() == connectivity.Online

	e.bootstrap(ctx)
	e.phase = PhaseReady
	e.started.Store(true)

	go e.run()
	go e.forward(events)

	e.config.Logger.Printf("Ready: %d tasks, next id %d, %s", e.repo.Len(), e.repo.NextID(), e.connectivity())
	return nil
}

func (e *Engine) bootstrap(ctx context.Context) {
	e.cacheAvailable = e.cache.Available()

	if e.cacheAvailable {
		tasks, _ := e.cache.LoadTasks()
		next, _ := e.cache.LoadCounter()
		e.repo.Replace(tasks, next)
		e.config.Logger.Printf("Loaded %d tasks from cache", e.repo.Len())
		return
	}

	e.recordError(&SyncError{
		Kind:    ErrorStorageUnavailable,
		Op:      "bootstrap",
		Message: "local cache does not accept writes",
		At:      e.config.Now(),
	})

	if !e.online {
		e.config.Logger.Println("Cache unavailable and offline: starting empty")
		return
	}

	e.config.Logger.Println("Cache unavailable: hydrating from remote")
	ctx, cancel := context.WithTimeout(ctx, e.config.RequestTimeout)
	defer cancel()

	tasks, err := e.client.FetchUndeletedTasks(ctx)
	if err != nil {
		e.recordError(classify(err, e.config.Now()))
		return
	}
	e.repo.Replace(tasks, 0)

	count, err := e.client.FetchTaskCount(ctx)
	if err != nil {
		e.recordError(classify(err, e.config.Now()))
		return
	}
	e.repo.EnsureNextID(count + 1)
}

// run is the single-writer loop.
func (e *Engine) run() {
	defer close(e.stopped)

	for fn := range e.ops {
		fn()
		if e.phase == PhaseClosed {
			return
		}
	}
}

// forward turns connectivity notifications into loop operations.
func (e *Engine) forward(events <-chan connectivity.Status) {
	for {
		select {
		case status, ok := <-events:
			if !ok {
				return
			}
			if !e.post(func() { e.handleConnectivity(status) }) {
				return
			}
		case <-e.stopped:
			return
		}
	}
}

// post queues fn on the loop without waiting for it. It reports false when
// the engine has stopped and fn was dropped.
func (e *Engine) post(fn func()) bool {
	select {
	case e.ops <- fn:
		return true
	case <-e.stopped:
		return false
	}
}

// call runs fn on the loop and waits for it to finish.
func (e *Engine) call(fn func()) error {
	if !e.started.Load() {
		return ErrNotStarted
	}
	done := make(chan struct{})
	if !e.post(func() { fn(); close(done) }) {
		return ErrClosed
	}
	<-done
	return nil
}

// Create adds a task and propagates it.
func (e *Engine) Create(content string) (task.Task, error) {
	var (
		t   task.Task
		err error
	)
	if cerr := e.call(func() {
		t, err = e.repo.Create(content)
		if err != nil {
			return
		}
		e.recon.touch(t.ID)
		e.commit()
		e.pushDelta(t)
		e.notify(Event{Type: EventTaskCreated, Task: &t})
	}); cerr != nil {
		return task.Task{}, cerr
	}
	return t, err
}

// ToggleComplete flips the completion state of id and propagates it.
func (e *Engine) ToggleComplete(id int) (task.Task, error) {
	return e.update(id, e.repo.ToggleComplete)
}

// CyclePriority advances the priority of id and propagates it.
func (e *Engine) CyclePriority(id int) (task.Task, error) {
	return e.update(id, e.repo.CyclePriority)
}

func (e *Engine) update(id int, fn func(int) (task.Task, error)) (task.Task, error) {
	var (
		t   task.Task
		err error
	)
	if cerr := e.call(func() {
		t, err = fn(id)
		if err != nil {
			return
		}
		e.recon.touch(id)
		e.commit()
		e.pushDelta(t)
		e.notify(Event{Type: EventTaskUpdated, Task: &t})
	}); cerr != nil {
		return task.Task{}, cerr
	}
	return t, err
}

// Remove deletes id from the working set and routes a tombstone to the
// remote: pushed immediately when online, queued otherwise. The returned
// task is the tombstone.
func (e *Engine) Remove(id int) (task.Task, error) {
	var (
		tomb task.Task
		err  error
	)
	if cerr := e.call(func() {
		var removed task.Task
		removed, err = e.repo.Remove(id)
		if err != nil {
			return
		}
		tomb = removed.Tombstone(e.config.Now())
		e.recon.forget(id)
		e.commit()
		if e.online {
			e.pushTombstone(tomb)
		} else {
			e.enqueueDeletion(tomb)
		}
		e.notify(Event{Type: EventTaskDeleted, Task: &tomb})
	}); cerr != nil {
		return task.Task{}, cerr
	}
	return tomb, err
}

// Tasks returns a copy of the working set.
func (e *Engine) Tasks() ([]task.Task, error) {
	var out []task.Task
	if err := e.call(func() { out = e.repo.List() }); err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot returns a copy of the session state.
func (e *Engine) Snapshot() (State, error) {
	var s State
	if err := e.call(func() { s = e.snapshot() }); err != nil {
		return State{}, err
	}
	return s, nil
}

func (e *Engine) snapshot() State {
	var lastErr *SyncError
	if e.lastError != nil {
		cp := *e.lastError
		lastErr = &cp
	}
	return State{
		Phase:            e.phase,
		Tasks:            e.repo.List(),
		NextID:           e.repo.NextID(),
		Connectivity:     e.connectivity(),
		LastError:        lastErr,
		PendingDeletions: len(e.pendingSnapshot()),
		CacheAvailable:   e.cacheAvailable,
		Reconciling:      e.recon.active(),
		Reconciliations:  e.recon.runs,
	}
}

// Reconcile starts a Full Reconciliation now. It returns ErrOffline when
// there is no connectivity. A reconciliation already in flight absorbs the
// request and runs once more when it finishes.
func (e *Engine) Reconcile() error {
	var err error
	if cerr := e.call(func() {
		if !e.online {
			err = ErrOffline
			return
		}
		e.triggerReconcile("manual")
	}); cerr != nil {
		return cerr
	}
	return err
}

// Settle blocks until no remote call is outstanding and every completion has
// been applied, or ctx ends.
func (e *Engine) Settle(ctx context.Context) error {
	ch := make(chan struct{})
	if err := e.call(func() {
		if e.inflight == 0 {
			close(ch)
			return
		}
		e.idleWaiters = append(e.idleWaiters, ch)
	}); err != nil {
		return err
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the session: the working set is flushed to the cache and, when
// online, one best-effort Full Reconciliation is fired. Close does not wait
// for it; results arriving afterwards are ignored. Use Drain to give
// outstanding calls a bounded chance to reach the remote.
func (e *Engine) Close() error {
	if !e.started.Load() {
		return ErrNotStarted
	}
	err := e.call(func() {
		e.config.Logger.Println("Closing session")
		e.commit()
		if e.online {
			// A run already in flight holds an older snapshot and its
			// follow-up would never start, so teardown always starts one.
			e.startReconcile("teardown")
		}
		e.phase = PhaseClosed
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	if e.unsub != nil {
		e.unsub()
	}
	return err
}

// Drain waits for remote calls still running after Close, or until ctx ends.
func (e *Engine) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		<-e.stopped
		e.calls.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// commit persists the working set and counter. Cache failures are recorded
// and otherwise ignored.
func (e *Engine) commit() {
	available := e.cache.Available()
	if !available {
		if e.cacheAvailable {
			e.recordError(&SyncError{
				Kind:    ErrorStorageUnavailable,
				Op:      "commit",
				Message: "local cache stopped accepting writes",
				At:      e.config.Now(),
			})
		}
		e.cacheAvailable = false
		return
	}
	e.cacheAvailable = true
	e.cache.SaveTasks(e.repo.List())
	e.cache.SaveCounter(e.repo.NextID())
}

// pushDelta sends one created or updated task when online.
func (e *Engine) pushDelta(t task.Task) {
	if !e.online {
		return
	}
	e.spawn(string(remote.OpPushTask), func() func() {
		ctx, cancel := e.requestContext()
		err := e.client.PushTask(ctx, t)
		cancel()
		return func() {
			if err != nil {
				e.recordError(classify(err, e.config.Now()))
			}
		}
	})
}

// pushTombstone sends a deletion. A network failure moves the tombstone to
// the pending queue so it is retried on the next reconnect.
func (e *Engine) pushTombstone(tomb task.Task) {
	e.tombstones[tomb.ID]++
	e.spawn(string(remote.OpPushTask), func() func() {
		ctx, cancel := e.requestContext()
		err := e.client.PushTask(ctx, tomb)
		cancel()
		return func() {
			if e.tombstones[tomb.ID]--; e.tombstones[tomb.ID] <= 0 {
				delete(e.tombstones, tomb.ID)
			}
			if err == nil {
				e.recon.forget(tomb.ID)
				return
			}
			e.recordError(classify(err, e.config.Now()))
			if remote.IsNetworkError(err) {
				e.enqueueDeletion(tomb)
			}
		}
	})
}

// enqueueDeletion appends a tombstone to the pending queue. Without a cache
// the queue lives in memory for the rest of the session.
func (e *Engine) enqueueDeletion(tomb task.Task) {
	if e.cache.Available() {
		e.cache.AppendPendingDeletion(tomb)
		return
	}
	e.sessionPending = append(e.sessionPending, tomb)
}

// spawn runs work on its own goroutine and applies the effect it returns on
// the loop. work must not touch engine state. Effects posted after Close are
// dropped.
func (e *Engine) spawn(name string, work func() func()) {
	e.inflight++
	e.calls.Add(1)
	go func() {
		defer e.calls.Done()

		effect := work()

		if !e.post(func() {
			effect()
			e.finishCall()
		}) {
			e.config.Logger.Printf("Dropped late %s completion", name)
		}
	}()
}

// requestContext bounds a single remote request. In-flight requests are
// never cancelled by Close.
func (e *Engine) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.config.RequestTimeout)
}

func (e *Engine) finishCall() {
	e.inflight--
	if e.inflight > 0 {
		return
	}
	for _, ch := range e.idleWaiters {
		close(ch)
	}
	e.idleWaiters = nil
}

// handleConnectivity applies a transition. Repeats of the current state are
// ignored; Offline -> Online starts a Full Reconciliation.
func (e *Engine) handleConnectivity(status connectivity.Status) {
	online := status == connectivity.Online
	if online == e.online {
		return
	}
	e.online = online
	e.config.Logger.Printf("Connectivity: %s", status)
	e.notify(Event{Type: EventConnectivity, Connectivity: status})

	if online {
		e.triggerReconcile("reconnect")
	}
}

func (e *Engine) recordError(se *SyncError) {
	e.lastError = se
	e.config.Logger.Printf("Sync error: %v", se)
	e.notify(Event{Type: EventSyncError, Err: se})
}

func (e *Engine) notify(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = e.config.Now()
	}
	for _, o := range e.observers {
		o.OnSyncEvent(ev)
	}
}

func (e *Engine) connectivity() connectivity.Status {
	if e.online {
		return connectivity.Online
	}
	return connectivity.Offline
}
