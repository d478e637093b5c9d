package trading

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	calls    atomic.Int32
	inflight atomic.Int32
	overlap  atomic.Bool
}

func (c *countingRunner) RunCycle(ctx context.Context) (CycleReport, error) {
	if c.inflight.Add(1) > 1 {
		c.overlap.Store(true)
	}
	defer c.inflight.Add(-1)
	c.calls.Add(1)
	time.Sleep(5 * time.Millisecond)
	return CycleReport{}, ctx.Err()
}

func TestSchedulerSkipsWhenPaused(t *testing.T) {
	runner := &countingRunner{}
	state := NewRunState(false)
	s := NewScheduler(runner, state, time.Hour)

	assert.False(t, s.Tick(context.Background()))
	assert.Equal(t, int32(0), runner.calls.Load())

	state.Start()
	assert.True(t, s.Tick(context.Background()))
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestSchedulerRunsSeriallyUntilCancelled(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, NewRunState(true), time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Run(ctx))

	assert.GreaterOrEqual(t, runner.calls.Load(), int32(2))
	assert.False(t, runner.overlap.Load())
}

func TestSchedulerCycleIgnoresCancellation(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, NewRunState(true), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, s.Tick(ctx))
	assert.Equal(t, int32(1), runner.calls.Load())
}
