package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// PeriodicTask manages a background task that runs at regular intervals.
// The task's context is cancelled by Stop.
type PeriodicTask struct {
	interval  time.Duration
	task      func(ctx context.Context)
	clock     clock.Clock
	immediate bool

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// Option configures a PeriodicTask
type Option func(*PeriodicTask)

// WithClock replaces the wall clock, for tests
func WithClock(clk clock.Clock) Option {
	return func(pt *PeriodicTask) { pt.clock = clk }
}

// WithImmediateRun runs the task once right after Start
func WithImmediateRun() Option {
	return func(pt *PeriodicTask) { pt.immediate = true }
}

// New creates a new PeriodicTask instance
func New(interval time.Duration, task func(ctx context.Context), opts ...Option) *PeriodicTask {
	pt := &PeriodicTask{
		interval: interval,
		task:     task,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(pt)
	}
	return pt
}

// Start begins executing the task at the specified interval
func (pt *PeriodicTask) Start() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	pt.cancel = cancel
	pt.running = true

	ticker := pt.clock.Ticker(pt.interval)

	pt.wg.Add(1)
	go func() {
		defer pt.wg.Done()
		defer ticker.Stop()

		if pt.immediate {
			pt.task(ctx)
		}

		for {
			select {
			case <-ticker.C:
				pt.task(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the periodic task execution and waits for a running task to return
func (pt *PeriodicTask) Stop() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if !pt.running {
		return
	}

	pt.cancel()
	pt.wg.Wait()
	pt.running = false
}

// IsRunning returns true if the task is currently running
func (pt *PeriodicTask) IsRunning() bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.running
}
