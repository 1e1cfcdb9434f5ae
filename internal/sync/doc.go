// Package sync keeps the task working set consistent between the local cache
// and the remote store under intermittent connectivity.
//
// An Engine bootstraps from the cache (or, without one, from the remote),
// persists every mutation locally, and pushes deltas opportunistically while
// online. Deletions made offline are queued as tombstones. When connectivity
// returns, a Full Reconciliation pushes the working set, re-hydrates it from
// the remote and flushes the deletion queue in one batch.
//
// Typical use:
//
//	eng, err := sync.New(adapter, client, monitor, cfg)
//	if err != nil {
//		return err
//	}
//	if err := eng.Start(ctx); err != nil {
//		return err
//	}
//	defer eng.Close()
//
//	t, err := eng.Create("water the plants")
package sync
