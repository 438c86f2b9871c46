package services

import (
	"context"
	"time"
)

// Retry policy for outbound provider calls. Delays cap at the final entry;
// authentication and rate-limit errors abort immediately.
const MaxAttempts = 3

var retryDelays = []time.Duration{500 * time.Millisecond, 2 * time.Second, 8 * time.Second}

type retryState int

const (
	statePending retryState = iota
	stateExecuting
	stateRetryWait
	stateSucceeded
	stateFailed
)

// Retrier drives a bounded retry loop as an explicit state machine. The
// attempt counter and next delay are carried as state so the progression is
// inspectable rather than buried in nested callbacks.
type Retrier struct {
	attempt int
	state   retryState
	sleep   func(context.Context, time.Duration) error
}

// NewRetrier returns a Retrier with the default sleep behavior.
func NewRetrier() *Retrier {
	return &Retrier{sleep: SleepWithContext}
}

// Attempts returns the number of executions performed so far.
func (r *Retrier) Attempts() int {
	return r.attempt
}

// Do executes fn until it succeeds, exhausts MaxAttempts, or hits a
// non-retriable error. The last error is returned on failure.
func (r *Retrier) Do(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	r.state = statePending
	for {
		switch r.state {
		case statePending, stateRetryWait:
			if r.state == stateRetryWait {
				if err := r.sleep(ctx, r.nextDelay()); err != nil {
					r.state = stateFailed
					return err
				}
			}
			r.state = stateExecuting
		case stateExecuting:
			r.attempt++
			lastErr = fn(ctx)
			if lastErr == nil {
				r.state = stateSucceeded
				return nil
			}
			if !IsRetriable(lastErr) || r.attempt >= MaxAttempts {
				r.state = stateFailed
				return lastErr
			}
			r.state = stateRetryWait
		}
	}
}

func (r *Retrier) nextDelay() time.Duration {
	idx := r.attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(retryDelays) {
		idx = len(retryDelays) - 1
	}
	return retryDelays[idx]
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
