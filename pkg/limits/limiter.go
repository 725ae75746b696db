// Package limits provides the admission gate that bounds the number of
// concurrently served connections.
package limits

import (
	"context"
	"fmt"
	"sync/atomic"
)

// DefaultMaxConnections is the limiter capacity used when none is configured.
const DefaultMaxConnections = 5

// Limiter is a counting semaphore over connection slots.
//
// Acquire blocks until a slot is free, so the number of outstanding tokens
// never exceeds the capacity. No fairness between waiters is guaranteed; any
// free slot may be granted to any waiter.
//
// # Thread Safety
//
// Limiter is safe for concurrent use. The slot count is carried by a buffered
// channel, which also provides the blocking behavior.
type Limiter struct {
	slots chan struct{}
}

// Token is one unit of admission capacity. It must be released exactly once;
// Release enforces this and panics on a second call, since a double release
// would silently raise the effective capacity.
type Token struct {
	limiter  *Limiter
	released atomic.Bool
}

// NewLimiter creates a limiter with the given capacity.
func NewLimiter(capacity int) *Limiter {
	if capacity <= 0 {
		capacity = DefaultMaxConnections
	}
	return &Limiter{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or ctx is done. On success the caller
// owns the returned token and must release it when the connection ends,
// whatever the exit path.
func (l *Limiter) Acquire(ctx context.Context) (*Token, error) {
	select {
	case l.slots <- struct{}{}:
		return &Token{limiter: l}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("limits: acquire aborted: %w", ctx.Err())
	}
}

// TryAcquire acquires a slot without blocking. It returns nil when the
// limiter is at capacity.
func (l *Limiter) TryAcquire() *Token {
	select {
	case l.slots <- struct{}{}:
		return &Token{limiter: l}
	default:
		return nil
	}
}

// Release returns the token's slot to the limiter.
func (t *Token) Release() {
	if !t.released.CompareAndSwap(false, true) {
		panic("limits: token released twice")
	}
	<-t.limiter.slots
}

// Active returns the number of outstanding tokens.
func (l *Limiter) Active() int {
	return len(l.slots)
}

// Capacity returns the configured slot count.
func (l *Limiter) Capacity() int {
	return cap(l.slots)
}

// Remaining returns the number of free slots.
func (l *Limiter) Remaining() int {
	return cap(l.slots) - len(l.slots)
}
