package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestPeriodicTask_RunsOnEveryTick(t *testing.T) {
	clk := clock.NewMock()
	var runs int32
	task := New(time.Minute, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	}, WithClock(clk))

	task.Start()
	defer task.Stop()

	clk.Add(time.Minute)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)

	clk.Add(time.Minute)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 2 }, time.Second, 5*time.Millisecond)
}

func TestPeriodicTask_ImmediateRun(t *testing.T) {
	clk := clock.NewMock()
	var runs int32
	task := New(time.Hour, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	}, WithClock(clk), WithImmediateRun())

	task.Start()
	defer task.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)
}

func TestPeriodicTask_StartStop(t *testing.T) {
	task := New(time.Hour, func(ctx context.Context) {}, WithClock(clock.NewMock()))

	assert.False(t, task.IsRunning())

	task.Start()
	task.Start()
	assert.True(t, task.IsRunning())

	task.Stop()
	assert.False(t, task.IsRunning())

	// stopping twice is a no-op
	task.Stop()
	assert.False(t, task.IsRunning())
}

func TestPeriodicTask_StopCancelsRunningTask(t *testing.T) {
	started := make(chan struct{})
	var cancelled int32
	task := New(time.Hour, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		atomic.StoreInt32(&cancelled, 1)
	}, WithClock(clock.NewMock()), WithImmediateRun())

	task.Start()
	<-started
	task.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))
}
