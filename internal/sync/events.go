package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/mschirtzinger/planner/internal/connectivity"
	"github.com/mschirtzinger/planner/internal/remote"
	"github.com/mschirtzinger/planner/internal/task"
)

// ErrorKind classifies a sync failure for the status indicator.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	// ErrorStorageUnavailable means the local cache refused writes.
	ErrorStorageUnavailable
	// ErrorNetwork means the remote could not be reached.
	ErrorNetwork
	// ErrorServer means the remote rejected a request.
	ErrorServer
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorStorageUnavailable:
		return "storage_unavailable"
	case ErrorNetwork:
		return "network"
	case ErrorServer:
		return "server"
	default:
		return "unknown"
	}
}

// SyncError is the most recent propagation failure. It is recorded for
// observability only; nothing is rolled back because of it.
type SyncError struct {
	Kind    ErrorKind `json:"kind"`
	Code    int       `json:"code,omitempty"`
	Op      string    `json:"op,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func (e *SyncError) Error() string {
	if e.Kind == ErrorServer {
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// classify turns a remote error into a SyncError.
func classify(err error, at time.Time) *SyncError {
	se := &SyncError{Kind: ErrorNetwork, Message: err.Error(), At: at}

	var ne *remote.NetworkError
	var srv *remote.ServerError
	switch {
	case errors.As(err, &srv):
		se.Kind = ErrorServer
		se.Code = srv.Code
		se.Op = string(srv.Op)
	case errors.As(err, &ne):
		se.Op = string(ne.Op)
	}
	return se
}

// EventType identifies an engine notification.
type EventType string

const (
	EventTaskCreated       EventType = "task_created"
	EventTaskUpdated       EventType = "task_updated"
	EventTaskDeleted       EventType = "task_deleted"
	EventConnectivity      EventType = "connectivity"
	EventReconcileStarted  EventType = "reconcile_started"
	EventReconcileComplete EventType = "reconcile_complete"
	EventDeletionsFlushed  EventType = "deletions_flushed"
	EventSyncError         EventType = "sync_error"
)

// Event is delivered to observers on the engine goroutine. Only the fields
// relevant to Type are set.
type Event struct {
	Type         EventType
	Time         time.Time
	Task         *task.Task
	Connectivity connectivity.Status
	RunID        string
	Count        int
	Err          *SyncError
}

// Observer receives engine events. Implementations must not block and must
// not call back into the engine synchronously.
type Observer interface {
	OnSyncEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnSyncEvent implements Observer.
func (f ObserverFunc) OnSyncEvent(ev Event) { f(ev) }
