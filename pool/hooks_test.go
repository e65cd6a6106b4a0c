package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcomeRecorder struct {
	mu    sync.Mutex
	infos []OutcomeInfo
}

func (r *outcomeRecorder) record(info OutcomeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, info)
}

func (r *outcomeRecorder) snapshot() []OutcomeInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OutcomeInfo(nil), r.infos...)
}

func (r *outcomeRecorder) count(kind OutcomeKind) int {
	n := 0
	for _, info := range r.snapshot() {
		if info.Kind == kind {
			n++
		}
	}
	return n
}

func TestOnOutcome_CalledOncePerJob(t *testing.T) {
	rec := &outcomeRecorder{}
	p := newTestPool[int](t, WithMaxWorkers(2), WithQueueDepth(1), WithOnOutcome(rec.record))

	for i := range 5 {
		p.Submit(sleepWork(20*time.Millisecond, i), time.Second)
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 5 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, 3, rec.count(Completed))
	assert.Equal(t, 2, rec.count(Rejected))

	for _, info := range rec.snapshot() {
		assert.NotEmpty(t, info.JobID)
		if info.Kind == Completed {
			assert.Positive(t, info.Execution)
		}
	}
}

func TestOnOutcome_TimedOutReportedOnce(t *testing.T) {
	rec := &outcomeRecorder{}
	p := newTestPool[int](t, WithMaxWorkers(1), WithOnOutcome(rec.record))

	o := p.Submit(stubbornWork(60*time.Millisecond, 1), 10*time.Millisecond).Outcome()
	require.Equal(t, TimedOut, o.Kind)
	waitIdle(t, p)

	infos := rec.snapshot()
	require.Len(t, infos, 1)
	assert.Equal(t, TimedOut, infos[0].Kind)
	assert.Equal(t, o.JobID, infos[0].JobID)
	assert.ErrorIs(t, infos[0].Err, ErrExecutionTimeout)
}

func TestOnOutcome_PanicRecovered(t *testing.T) {
	var calls sync.WaitGroup
	calls.Add(2)
	p := newTestPool[int](t, WithMaxWorkers(1), WithQueueDepth(1), WithOnOutcome(func(OutcomeInfo) {
		defer calls.Done()
		panic("hook exploded")
	}))

	first := p.Submit(sleepWork(0, 1), time.Second)
	second := p.Submit(func(context.Context) (int, error) { return 2, nil }, time.Second)

	assert.Equal(t, 1, first.Outcome().Value)
	assert.Equal(t, 2, second.Outcome().Value)
	calls.Wait()
}
