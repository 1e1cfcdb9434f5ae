// Package connectivity tracks whether the remote store is reachable.
//
// The Monitor is a pure observer: it never polls. Host adapters such as
// FileSource call Set when the environment reports a network change, and
// subscribers receive each real transition exactly once, in order.
package connectivity

import (
	"sync"
	"sync/atomic"
)

// Status is the reachability of the remote store.
type Status int32

const (
	// Offline means remote calls should not be attempted.
	Offline Status = iota
	// Online means the remote is believed reachable.
	Online
)

// String returns "online" or "offline".
func (s Status) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// ParseStatus maps "online"/"offline" (as written by WriteStatusFile) to a Status.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "online", "up", "1":
		return Online, true
	case "offline", "down", "0":
		return Offline, true
	}
	return Offline, false
}

// subscriberBuffer is how many transitions may queue before Set blocks on a
// slow subscriber.
const subscriberBuffer = 16

type subscriber struct {
	ch   chan Status
	done chan struct{}
	once sync.Once
}

// Monitor holds the current status and fans transitions out to subscribers.
type Monitor struct {
	status atomic.Int32

	// mu serializes Set so that every subscriber sees transitions in the
	// order they happened.
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

// NewMonitor returns a Monitor starting at initial.
func NewMonitor(initial Status) *Monitor {
	m := &Monitor{subs: make(map[int]*subscriber)}
	m.status.Store(int32(initial))
	return m
}

// Status returns the current reachability.
func (m *Monitor) Status() Status {
	return Status(m.status.Load())
}

// Set records a host notification. It returns false, and delivers nothing,
// when status equals the current one.
func (m *Monitor) Set(status Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if Status(m.status.Load()) == status {
		return false
	}
	m.status.Store(int32(status))

	for _, sub := range m.subs {
		select {
		case sub.ch <- status:
		case <-sub.done:
		}
	}
	return true
}

// Subscribe returns a channel of transitions and a cancel function. The
// channel is closed after cancel; cancel may be called more than once.
func (m *Monitor) Subscribe() (<-chan Status, func()) {
	sub := &subscriber{
		ch:   make(chan Status, subscriberBuffer),
		done: make(chan struct{}),
	}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = sub
	m.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			// Unblock a Set that is waiting on this subscriber before
			// taking the lock it holds.
			close(sub.done)
			m.mu.Lock()
			delete(m.subs, id)
			close(sub.ch)
			m.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (m *Monitor) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}
