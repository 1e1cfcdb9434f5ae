// Package remote talks to the authoritative task store.
//
// The store exposes four operations over HTTP with JSON bodies:
//
//	GET  /api/tasks/undeleted  -> []Task
//	GET  /api/tasks/count      -> int
//	POST /api/task             <- Task    (upsert by id)
//	POST /api/tasks            <- []Task  (bulk upsert)
//
// Upserts are idempotent and resolved last-write-wins on lastModifiedTime.
// Deletion is a tombstone upsert (deleted=true), not a separate endpoint.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/mschirtzinger/planner/internal/task"
)

// Op names a remote operation in errors and logs.
type Op string

const (
	OpFetchUndeleted Op = "fetchUndeletedTasks"
	OpFetchCount     Op = "fetchTaskCount"
	OpPushTask       Op = "pushTask"
	OpPushBatch      Op = "pushBatch"
)

// Client is the contract the sync engine needs from the remote store. Every
// method may fail independently with a *NetworkError or a *ServerError.
type Client interface {
	FetchUndeletedTasks(ctx context.Context) ([]task.Task, error)
	FetchTaskCount(ctx context.Context) (int, error)
	PushTask(ctx context.Context, t task.Task) error
	PushBatch(ctx context.Context, tasks []task.Task) error
}

// NetworkError means the remote could not be reached.
type NetworkError struct {
	Op  Op
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError means the remote answered with a non-success status.
type ServerError struct {
	Op   Op
	Code int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server error %d", e.Op, e.Code)
}

// ErrUnreachable is the cause wrapped by NetworkErrors produced by the
// in-memory store when it is switched offline.
var ErrUnreachable = errors.New("remote unreachable")

// IsNetworkError reports whether err is, or wraps, a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// ServerCode returns the status code of a wrapped *ServerError.
func ServerCode(err error) (int, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
