// Package backoff implements the retry delay policy used by the accept loop.
//
// The policy is deliberately simple: start at a fixed initial wait, double on
// every consecutive failure, and give up entirely once the next wait would
// exceed a fixed ceiling. No jitter is applied. A single success resets the
// policy to its initial state.
package backoff

import (
	"errors"
	"time"
)

// ErrRetriesExhausted is returned by Next when the wait would exceed the
// ceiling. Callers treat this as fatal rather than retrying further.
var ErrRetriesExhausted = errors.New("backoff: retries exhausted")

const (
	// DefaultInitial is the wait before the first retry.
	DefaultInitial = 200 * time.Millisecond

	// DefaultCeiling bounds the total retry time. A computed wait strictly
	// greater than the ceiling terminates the policy.
	DefaultCeiling = 6000 * time.Millisecond
)

// Policy produces the sequence of waits between retried accept attempts.
// The zero value is not usable; construct with New.
//
// Policy is not safe for concurrent use. Each accept loop owns its own.
type Policy struct {
	initial time.Duration
	ceiling time.Duration
	wait    time.Duration
}

// New returns a Policy with the given initial wait and ceiling.
// Non-positive arguments fall back to the defaults.
func New(initial, ceiling time.Duration) *Policy {
	if initial <= 0 {
		initial = DefaultInitial
	}
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Policy{initial: initial, ceiling: ceiling, wait: initial}
}

// Next returns the wait to apply for the current failure and advances the
// policy. The sequence for the defaults is 200ms, 400ms, 800ms, 1600ms,
// 3200ms, 6400ms... except that any wait exceeding the ceiling is never
// returned: Next reports ErrRetriesExhausted instead.
func (p *Policy) Next() (time.Duration, error) {
	if p.wait > p.ceiling {
		return 0, ErrRetriesExhausted
	}
	wait := p.wait
	p.wait *= 2
	return wait, nil
}

// Reset restores the initial wait. Called on the first successful accept
// after a failure streak.
func (p *Policy) Reset() {
	p.wait = p.initial
}

// Current reports the wait the next call to Next would return, without
// advancing the policy.
func (p *Policy) Current() time.Duration {
	return p.wait
}
