package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	tasksync "github.com/mschirtzinger/planner/internal/sync"
	"github.com/mschirtzinger/planner/internal/task"
)

// TaskUpdateData contains task change information
type TaskUpdateData struct {
	Action string    `json:"action"` // created, updated, deleted
	Task   task.Task `json:"task"`
}

// ConnectivityData contains the new connectivity status
type ConnectivityData struct {
	Status string `json:"status"`
}

// SyncData describes one reconciliation step
type SyncData struct {
	RunID string `json:"run_id"`
	Count int    `json:"count"`
}

// SyncErrorData is the "(offline)" indicator payload
type SyncErrorData struct {
	Kind    string `json:"kind"`
	Code    int    `json:"code,omitempty"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

// StatsData counts engine events since the handler was created
type StatsData struct {
	Created         int    `json:"created"`
	Updated         int    `json:"updated"`
	Deleted         int    `json:"deleted"`
	Reconciliations int    `json:"reconciliations"`
	Flushed         int    `json:"flushed"`
	Errors          int    `json:"errors"`
	Connectivity    string `json:"connectivity,omitempty"`
}

// Handler bridges sync engine events to the WebSocket server. It implements
// sync.Observer.
type Handler struct {
	server *Server
	logger *log.Logger

	mu    sync.Mutex
	stats StatsData
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// OnSyncEvent implements sync.Observer. It runs on the engine goroutine and
// only queues messages.
func (h *Handler) OnSyncEvent(ev tasksync.Event) {
	msgType, data, ok := h.translate(ev)
	if !ok {
		return
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", msgType, err)
		return
	}
	h.server.Broadcast(Message{Type: msgType, Timestamp: ev.Time, Data: dataJSON})
	h.broadcastStats()
}

// translate updates the counters and picks the message for ev.
func (h *Handler) translate(ev tasksync.Event) (MessageType, interface{}, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch ev.Type {
	case tasksync.EventTaskCreated, tasksync.EventTaskUpdated, tasksync.EventTaskDeleted:
		if ev.Task == nil {
			return "", nil, false
		}
		action := "updated"
		switch ev.Type {
		case tasksync.EventTaskCreated:
			action = "created"
			h.stats.Created++
		case tasksync.EventTaskDeleted:
			action = "deleted"
			h.stats.Deleted++
		default:
			h.stats.Updated++
		}
		return MessageTypeTaskUpdate, TaskUpdateData{Action: action, Task: *ev.Task}, true

	case tasksync.EventConnectivity:
		h.stats.Connectivity = ev.Connectivity.String()
		h.logger.Printf("Connectivity: %s", ev.Connectivity)
		return MessageTypeConnectivity, ConnectivityData{Status: ev.Connectivity.String()}, true

	case tasksync.EventReconcileStarted:
		h.stats.Reconciliations++
		return MessageTypeSyncStarted, SyncData{RunID: ev.RunID, Count: ev.Count}, true

	case tasksync.EventReconcileComplete:
		h.logger.Printf("Sync complete: %d tasks (run %s)", ev.Count, ev.RunID)
		return MessageTypeSyncComplete, SyncData{RunID: ev.RunID, Count: ev.Count}, true

	case tasksync.EventDeletionsFlushed:
		h.stats.Flushed += ev.Count
		return MessageTypeDeletionsFlushed, SyncData{RunID: ev.RunID, Count: ev.Count}, true

	case tasksync.EventSyncError:
		if ev.Err == nil {
			return "", nil, false
		}
		h.stats.Errors++
		return MessageTypeSyncError, SyncErrorData{
			Kind:    ev.Err.Kind.String(),
			Code:    ev.Err.Code,
			Op:      ev.Err.Op,
			Message: ev.Err.Message,
		}, true
	}
	return "", nil, false
}

// broadcastStats sends current statistics to all clients
func (h *Handler) broadcastStats() {
	stats := h.GetStats()
	dataJSON, err := json.Marshal(stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// GetStats returns the current statistics
func (h *Handler) GetStats() StatsData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}
