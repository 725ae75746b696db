// Package shutdown coordinates graceful termination between the accept loop
// and the active connection sessions.
//
// The coordinator separates "stop admitting" from "stop serving": the accept
// loop observes the terminate broadcast and stops taking connections, while
// each session checks its own receiver only after finishing a full
// request/response cycle, so no response is ever truncated mid-write.
package shutdown

import (
	"sync"
	"sync/atomic"
)

// Message is the broadcast payload observed by subscribers.
type Message int

const (
	// ServerRunning indicates normal operation.
	ServerRunning Message = iota
	// Terminate requests that the receiver finish its current work and stop.
	Terminate
)

// String returns the message name for logs.
func (m Message) String() string {
	switch m {
	case ServerRunning:
		return "server_running"
	case Terminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Coordinator fans the terminate signal out to every subscriber. The
// running → terminating transition is one-way and happens at most once;
// further SignalTerminate calls are no-ops.
//
// Subscribers each get an independent buffered channel, so a slow session
// cannot delay delivery to the others. A subscriber that joins after the
// transition still observes Terminate.
type Coordinator struct {
	mu          sync.Mutex
	subscribers map[chan Message]struct{}
	terminating atomic.Bool
}

// Subscription is one receiver's registration. C delivers at most one
// Terminate. Close must be called when the receiver is done (sessions defer
// it), so the coordinator does not accumulate a channel per connection ever
// served.
type Subscription struct {
	// C receives the terminate broadcast.
	C <-chan Message

	coord *Coordinator
	ch    chan Message
}

// Close removes the subscription from the coordinator. Safe to call more
// than once, and after the broadcast.
func (s *Subscription) Close() {
	s.coord.mu.Lock()
	defer s.coord.mu.Unlock()
	delete(s.coord.subscribers, s.ch)
}

// NewCoordinator creates a Coordinator in the running state.
func NewCoordinator() *Coordinator {
	return &Coordinator{subscribers: make(map[chan Message]struct{})}
}

// Subscribe registers a new receiver. Each session and the accept loop
// subscribe once and Close when they are done; receivers do not share
// cursor state.
func (c *Coordinator) Subscribe() *Subscription {
	ch := make(chan Message, 1)
	sub := &Subscription{C: ch, coord: c, ch: ch}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminating.Load() {
		ch <- Terminate
		return sub
	}
	c.subscribers[ch] = struct{}{}
	return sub
}

// SignalTerminate broadcasts Terminate to all current subscribers and marks
// the coordinator terminating. Only the first call has any effect.
func (c *Coordinator) SignalTerminate() {
	if !c.terminating.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for ch := range c.subscribers {
		// Buffered with capacity 1 and written at most once, so this
		// never blocks.
		ch <- Terminate
	}
	clear(c.subscribers)
}

// IsTerminating reports whether SignalTerminate has been called. Sessions
// poll this at their loop boundary instead of blocking on the receiver.
func (c *Coordinator) IsTerminating() bool {
	return c.terminating.Load()
}
