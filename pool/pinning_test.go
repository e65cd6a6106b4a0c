package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotPinning_JobsCompleteAndTimeOut(t *testing.T) {
	p := newTestPool[int](t, WithMaxWorkers(2), WithQueueDepth(10), WithSlotPinning(true))

	futures := make([]*Future[int], 10)
	for i := range futures {
		futures[i] = p.Submit(sleepWork(time.Millisecond, i), time.Second)
	}
	for i, f := range futures {
		o := f.Outcome()
		require.Equal(t, Completed, o.Kind, "job %d: %v", i, o.Err)
		assert.Equal(t, i, o.Value)
	}

	start := time.Now()
	o := p.Submit(sleepWork(time.Second, 1), 30*time.Millisecond).Outcome()
	assert.Equal(t, TimedOut, o.Kind)
	assert.ErrorIs(t, o.Err, ErrExecutionTimeout)
	assert.Less(t, time.Since(start), 300*time.Millisecond)

	stubborn := p.Submit(stubbornWork(60*time.Millisecond, 2), 10*time.Millisecond).Outcome()
	assert.Equal(t, TimedOut, stubborn.Kind)

	waitIdle(t, p)
	s := p.Stats()
	assert.Equal(t, uint64(10), s.Completed)
	assert.Equal(t, uint64(2), s.TimedOut)
}
