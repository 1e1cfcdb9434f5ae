package sync

import (
	"github.com/google/uuid"

	"github.com/mschirtzinger/planner/internal/remote"
	"github.com/mschirtzinger/planner/internal/task"
)

// reconcileState tracks Full Reconciliation on the loop goroutine.
//
// Policy: runs are coalesced. While a run is in flight further triggers only
// set rerun, and exactly one follow-up run starts once the current run's
// push/pull and queue flush have both completed.
type reconcileState struct {
	pushPull bool
	flush    bool
	rerun    bool
	runs     int
	runID    string

	// Ids created, edited or removed locally while the push/pull of the
	// current run is in flight. nil when no push/pull is running.
	touched map[int]bool
	removed map[int]bool
}

func (r *reconcileState) active() bool {
	return r.pushPull || r.flush
}

func (r *reconcileState) touch(id int) {
	if r.touched != nil {
		r.touched[id] = true
	}
}

func (r *reconcileState) forget(id int) {
	if r.removed != nil {
		r.removed[id] = true
		delete(r.touched, id)
	}
}

// pullResult is what the push/pull goroutine hands back to the loop.
type pullResult struct {
	pushed   int
	pushErr  error
	tasks    []task.Task
	fetchErr error
	count    int
	countErr error
}

// triggerReconcile starts a run, or marks a follow-up if one is in flight.
func (e *Engine) triggerReconcile(reason string) {
	if e.recon.active() {
		e.recon.rerun = true
		e.config.Logger.Printf("Reconciliation %s in flight; %s trigger coalesced", e.recon.runID, reason)
		return
	}
	e.startReconcile(reason)
}

// startReconcile pushes the working set then pulls a fresh copy, and
// independently flushes the pending deletion queue.
func (e *Engine) startReconcile(reason string) {
	runID := uuid.NewString()
	working := e.repo.List()
	cached, session := e.pendingQueues()

	e.recon.runs++
	e.recon.runID = runID
	e.recon.rerun = false
	e.recon.pushPull = true
	e.recon.touched = make(map[int]bool)
	e.recon.removed = make(map[int]bool)

	e.config.Logger.Printf("Reconciliation %s started (%s): pushing %d tasks, %d pending deletions",
		runID, reason, len(working), len(cached)+len(session))
	e.notify(Event{Type: EventReconcileStarted, RunID: runID, Count: len(working)})

	e.spawn("reconcile", func() func() {
		res := e.pushThenPull(working)
		return func() { e.applyPull(runID, res) }
	})

	if len(cached)+len(session) == 0 {
		return
	}

	batch := make([]task.Task, 0, len(cached)+len(session))
	batch = append(batch, cached...)
	batch = append(batch, session...)
	nCached, nSession := len(cached), len(session)

	e.recon.flush = true
	e.spawn(string(remote.OpPushBatch), func() func() {
		ctx, cancel := e.requestContext()
		err := e.client.PushBatch(ctx, batch)
		cancel()
		return func() { e.applyFlush(runID, batch, nCached, nSession, err) }
	})
}

// pushThenPull runs off the loop. Nothing is fetched unless every task was
// pushed, so a pull can never overwrite local work that did not reach the
// remote.
func (e *Engine) pushThenPull(working []task.Task) pullResult {
	var res pullResult

	for _, t := range working {
		ctx, cancel := e.requestContext()
		err := e.client.PushTask(ctx, t)
		cancel()
		if err != nil {
			res.pushErr = err
			return res
		}
		res.pushed++
	}

	ctx, cancel := e.requestContext()
	res.tasks, res.fetchErr = e.client.FetchUndeletedTasks(ctx)
	cancel()

	ctx, cancel = e.requestContext()
	res.count, res.countErr = e.client.FetchTaskCount(ctx)
	cancel()

	return res
}

// applyPull makes the fetched set the working set. The task list and the
// counter are applied independently: a failed count keeps the fetched tasks.
func (e *Engine) applyPull(runID string, res pullResult) {
	touched, removed := e.recon.touched, e.recon.removed
	e.recon.pushPull = false
	e.recon.touched = nil
	e.recon.removed = nil

	switch {
	case res.pushErr != nil:
		e.recordError(classify(res.pushErr, e.config.Now()))
		e.config.Logger.Printf("Reconciliation %s: push failed after %d tasks; keeping local state", runID, res.pushed)

	case res.fetchErr != nil:
		e.recordError(classify(res.fetchErr, e.config.Now()))
		e.config.Logger.Printf("Reconciliation %s: pushed %d tasks, fetch failed", runID, res.pushed)

	default:
		merged := e.merge(res.tasks, touched, removed)
		e.repo.Replace(merged, e.repo.NextID())
		if res.countErr != nil {
			e.recordError(classify(res.countErr, e.config.Now()))
		} else {
			e.repo.EnsureNextID(res.count + 1)
		}
		e.commit()
		e.config.Logger.Printf("Reconciliation %s: pushed %d, pulled %d tasks, next id %d",
			runID, res.pushed, len(merged), e.repo.NextID())
		e.notify(Event{Type: EventReconcileComplete, RunID: runID, Count: len(merged)})
	}

	e.finishReconcile()
}

// merge builds the new working set from the fetched remote copy. Remote wins,
// except that it cannot resurrect a task whose deletion has not been
// acknowledged yet, and it cannot discard local changes made while the pull
// was in flight.
func (e *Engine) merge(fetched []task.Task, touched, removed map[int]bool) []task.Task {
	hidden := make(map[int]bool)
	for id := range removed {
		hidden[id] = true
	}
	for id := range e.tombstones {
		hidden[id] = true
	}
	cached, session := e.pendingQueues()
	for _, t := range cached {
		hidden[t.ID] = true
	}
	for _, t := range session {
		hidden[t.ID] = true
	}

	local := make(map[int]task.Task, e.repo.Len())
	for _, t := range e.repo.List() {
		local[t.ID] = t
	}

	out := make([]task.Task, 0, len(fetched))
	seen := make(map[int]bool, len(fetched))
	for _, t := range fetched {
		if t.Deleted || hidden[t.ID] || seen[t.ID] {
			continue
		}
		if touched[t.ID] {
			if lt, ok := local[t.ID]; ok {
				t = lt
			}
		}
		out = append(out, t)
		seen[t.ID] = true
	}

	for _, t := range e.repo.List() {
		if touched[t.ID] && !seen[t.ID] {
			out = append(out, t)
			seen[t.ID] = true
		}
	}
	return out
}

// applyFlush acknowledges the pushed tombstones. Entries appended while the
// batch was in flight stay queued.
func (e *Engine) applyFlush(runID string, batch []task.Task, nCached, nSession int, err error) {
	e.recon.flush = false

	if err != nil {
		e.recordError(classify(err, e.config.Now()))
		e.config.Logger.Printf("Reconciliation %s: deletion flush failed; %d kept queued", runID, nCached+nSession)
	} else {
		e.cache.TrimPendingDeletions(nCached)
		// The pull of this run may have fetched these before the batch landed.
		for _, t := range batch {
			e.recon.forget(t.ID)
		}
		if nSession > len(e.sessionPending) {
			nSession = len(e.sessionPending)
		}
		e.sessionPending = e.sessionPending[nSession:]
		e.config.Logger.Printf("Reconciliation %s: flushed %d deletions", runID, nCached+nSession)
		e.notify(Event{Type: EventDeletionsFlushed, RunID: runID, Count: nCached + nSession})
	}

	e.finishReconcile()
}

// finishReconcile starts the coalesced follow-up once the run is fully done.
func (e *Engine) finishReconcile() {
	if e.recon.active() {
		return
	}
	if e.recon.rerun && e.online && e.phase == PhaseReady {
		e.startReconcile("coalesced")
		return
	}
	e.recon.rerun = false
}

// pendingQueues returns the cached queue and the in-memory session queue.
func (e *Engine) pendingQueues() (cached, session []task.Task) {
	cached = e.cache.LoadPendingDeletions()
	session = task.Clone(e.sessionPending)
	return cached, session
}

func (e *Engine) pendingSnapshot() []task.Task {
	cached, session := e.pendingQueues()
	return append(cached, session...)
}
