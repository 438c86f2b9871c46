package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ludex/internal/config"
	"ludex/internal/logging"
	"ludex/internal/services"
)

// Options configures the coordinator's dispatch floors.
type Options struct {
	// GlobalFloor is the minimum gap between any two dispatches.
	GlobalFloor time.Duration
	// ServiceIntervals are per-service minimum gaps, keyed by service tag.
	ServiceIntervals map[string]time.Duration
	// MaxInFlight bounds concurrently executing requests above the floors.
	MaxInFlight int
}

// OptionsFromConfig converts millisecond config values.
func OptionsFromConfig(cfg *config.Config) Options {
	intervals := make(map[string]time.Duration, len(cfg.RateLimit.ServiceIntervalsMS))
	for service, ms := range cfg.RateLimit.ServiceIntervalsMS {
		intervals[service] = time.Duration(ms) * time.Millisecond
	}
	return Options{
		GlobalFloor:      time.Duration(cfg.RateLimit.GlobalFloorMS) * time.Millisecond,
		ServiceIntervals: intervals,
		MaxInFlight:      cfg.RateLimit.MaxInFlight,
	}
}

type outcome struct {
	value any
	err   error
}

type request struct {
	service string
	ctx     context.Context
	execute func(context.Context) (any, error)
	reply   chan outcome
}

// Coordinator is the single process-wide admission queue for outbound
// catalog calls. Producers enqueue; exactly one dispatch loop pops,
// enforces timing floors, and owns the last-dispatch timestamps, so no
// locking is needed around them.
type Coordinator struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*request
	running bool
	stopped bool

	// Owned by the dispatch loop.
	lastGlobal  time.Time
	lastService map[string]time.Time

	sem chan struct{}
}

// New creates a Coordinator. The dispatch loop starts lazily on the first
// enqueued request.
func New(opts Options, logger *slog.Logger) *Coordinator {
	if opts.MaxInFlight < 1 {
		opts.MaxInFlight = 1
	}
	c := &Coordinator{
		opts:        opts,
		logger:      logging.NewComponentLogger(logger, "ratelimit"),
		lastService: make(map[string]time.Time),
		sem:         make(chan struct{}, opts.MaxInFlight),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Do enqueues fn under the given service tag and blocks until it has been
// dispatched and completed, or the caller's context ends first. Queued work
// whose context has already ended is rejected without dispatch.
func (c *Coordinator) Do(ctx context.Context, service string, fn func(context.Context) (any, error)) (any, error) {
	req := &request{
		service: service,
		ctx:     ctx,
		execute: fn,
		reply:   make(chan outcome, 1),
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil, services.Wrap(services.ErrQueueCancelled, "ratelimit", service, "coordinator stopped", nil)
	}
	c.queue = append(c.queue, req)
	c.startLocked()
	c.cond.Signal()
	c.mu.Unlock()

	select {
	case result := <-req.reply:
		return result.value, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startLocked launches the dispatch loop if it is not already running.
// Calling it while processing is a no-op.
func (c *Coordinator) startLocked() {
	if c.running || c.stopped {
		return
	}
	c.running = true
	go c.dispatchLoop()
}

// Clear rejects every pending request with a cancellation error. In-flight
// requests are not interrupted.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, req := range pending {
		req.reply <- outcome{err: services.Wrap(services.ErrQueueCancelled, "ratelimit", req.service, "request cancelled", nil)}
	}
	if len(pending) > 0 {
		c.logger.Debug("cleared pending requests", logging.Int("count", len(pending)))
	}
}

// Stop clears the queue and shuts the dispatch loop down. Subsequent Do
// calls fail immediately.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.cond.Broadcast()
	c.mu.Unlock()
	c.Clear()
}

func (c *Coordinator) dispatchLoop() {
	for {
		c.mu.Lock()
		for len(c.queue) == 0 && !c.stopped {
			c.cond.Wait()
		}
		if c.stopped {
			c.running = false
			c.mu.Unlock()
			return
		}
		// Peek without popping: the head stays clearable while the loop
		// sleeps off the timing floor.
		req := c.queue[0]
		c.mu.Unlock()

		if wait := c.floorRemaining(req.service); wait > 0 {
			time.Sleep(wait)
		}

		c.mu.Lock()
		if c.stopped {
			c.running = false
			c.mu.Unlock()
			return
		}
		if len(c.queue) == 0 || c.queue[0] != req {
			// Cleared while sleeping.
			c.mu.Unlock()
			continue
		}
		c.queue = c.queue[1:]
		c.mu.Unlock()

		if req.ctx.Err() != nil {
			req.reply <- outcome{err: req.ctx.Err()}
			continue
		}

		now := time.Now()
		c.lastGlobal = now
		c.lastService[req.service] = now

		c.sem <- struct{}{}
		go func(req *request) {
			defer func() { <-c.sem }()
			value, err := req.execute(req.ctx)
			req.reply <- outcome{value: value, err: err}
		}(req)
	}
}

// floorRemaining computes the larger of the global and per-service waits.
func (c *Coordinator) floorRemaining(service string) time.Duration {
	now := time.Now()
	var wait time.Duration
	if !c.lastGlobal.IsZero() {
		if remaining := c.opts.GlobalFloor - now.Sub(c.lastGlobal); remaining > wait {
			wait = remaining
		}
	}
	if last, ok := c.lastService[service]; ok {
		interval := c.opts.ServiceIntervals[service]
		if remaining := interval - now.Sub(last); remaining > wait {
			wait = remaining
		}
	}
	return wait
}
