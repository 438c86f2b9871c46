package ratelimit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ludex/internal/logging"
	"ludex/internal/ratelimit"
	"ludex/internal/services"
)

func newCoordinator(service string, interval time.Duration) *ratelimit.Coordinator {
	return ratelimit.New(ratelimit.Options{
		GlobalFloor:      time.Millisecond,
		ServiceIntervals: map[string]time.Duration{service: interval},
		MaxInFlight:      2,
	}, logging.NewNop())
}

func TestServiceIntervalEnforced(t *testing.T) {
	const interval = 40 * time.Millisecond
	c := newCoordinator("rawg", interval)
	defer c.Stop()

	var mu sync.Mutex
	var dispatches []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Do(context.Background(), "rawg", func(context.Context) (any, error) {
				mu.Lock()
				dispatches = append(dispatches, time.Now())
				mu.Unlock()
				return nil, nil
			})
			if err != nil {
				t.Errorf("Do returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(dispatches) != 4 {
		t.Fatalf("expected 4 dispatches, got %d", len(dispatches))
	}
	for i := 1; i < len(dispatches); i++ {
		gap := dispatches[i].Sub(dispatches[i-1])
		// Allow scheduler slop below the floor, but not a collapsed gap.
		if gap < interval-5*time.Millisecond {
			t.Fatalf("gap %d was %v, below the %v floor", i, gap, interval)
		}
	}
}

func TestGlobalFloorAppliesAcrossServices(t *testing.T) {
	c := ratelimit.New(ratelimit.Options{
		GlobalFloor: 30 * time.Millisecond,
		MaxInFlight: 2,
	}, logging.NewNop())
	defer c.Stop()

	var mu sync.Mutex
	var dispatches []time.Time
	record := func(context.Context) (any, error) {
		mu.Lock()
		dispatches = append(dispatches, time.Now())
		mu.Unlock()
		return nil, nil
	}

	var wg sync.WaitGroup
	for _, service := range []string{"rawg", "igdb", "steamgrid"} {
		wg.Add(1)
		go func(service string) {
			defer wg.Done()
			if _, err := c.Do(context.Background(), service, record); err != nil {
				t.Errorf("Do returned error: %v", err)
			}
		}(service)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(dispatches); i++ {
		if gap := dispatches[i].Sub(dispatches[i-1]); gap < 25*time.Millisecond {
			t.Fatalf("cross-service gap %v below global floor", gap)
		}
	}
}

func TestDoReturnsExecutionResult(t *testing.T) {
	c := newCoordinator("rawg", time.Millisecond)
	defer c.Stop()

	value, err := c.Do(context.Background(), "rawg", func(context.Context) (any, error) {
		return "payload", nil
	})
	if err != nil || value != "payload" {
		t.Fatalf("Do = (%v, %v), want payload", value, err)
	}

	wantErr := errors.New("upstream broke")
	if _, err := c.Do(context.Background(), "rawg", func(context.Context) (any, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("expected execution error, got %v", err)
	}
}

func TestClearRejectsPendingOnly(t *testing.T) {
	c := newCoordinator("slow", 500*time.Millisecond)
	defer c.Stop()

	started := make(chan struct{})
	release := make(chan struct{})

	var inFlightErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, inFlightErr = c.Do(context.Background(), "slow", func(context.Context) (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	// This one sits behind the service interval and never dispatches.
	pendingErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Do(context.Background(), "slow", func(context.Context) (any, error) {
			return nil, nil
		})
		pendingErr <- err
	}()

	// Give the second request time to join the queue before clearing.
	time.Sleep(20 * time.Millisecond)
	c.Clear()

	if err := <-pendingErr; !errors.Is(err, services.ErrQueueCancelled) {
		t.Fatalf("expected pending request cancelled, got %v", err)
	}

	close(release)
	wg.Wait()
	if inFlightErr != nil {
		t.Fatalf("in-flight request should complete, got %v", inFlightErr)
	}
}

func TestStopFailsSubsequentRequests(t *testing.T) {
	c := newCoordinator("rawg", time.Millisecond)
	c.Stop()

	if _, err := c.Do(context.Background(), "rawg", func(context.Context) (any, error) {
		return nil, nil
	}); !errors.Is(err, services.ErrQueueCancelled) {
		t.Fatalf("expected cancellation after stop, got %v", err)
	}
}

func TestExpiredContextSkipsDispatch(t *testing.T) {
	c := newCoordinator("rawg", time.Millisecond)
	defer c.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executed := false
	_, err := c.Do(ctx, "rawg", func(context.Context) (any, error) {
		executed = true
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	// The loop may not have seen the request yet; give it a beat.
	time.Sleep(10 * time.Millisecond)
	if executed {
		t.Fatal("cancelled request must not execute")
	}
}
