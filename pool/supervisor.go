package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/utkarsh5026/jobpool/internal/cpu"
)

type result[T any] struct {
	value T
	err   error
}

// execute runs t on w's slot under its deadline and resolves its future.
//
// The deadline starts here, not at submission. When it fires first the
// TimedOut outcome is delivered at once; the slot is released only after the
// abandoned work returns, so the number of goroutines running work never
// exceeds the number of slots.
func (p *Pool[T]) execute(w *worker[T], t *task[T]) {
	job := t.job
	started := time.Now()

	outcome := func(kind OutcomeKind, v T, err error) Outcome[T] {
		return Outcome[T]{
			Kind:     kind,
			Value:    v,
			Err:      err,
			JobID:    job.ID,
			Enqueued: t.enqueued,
			Started:  started,
			Finished: time.Now(),
		}
	}
	var zero T

	if p.abortCtx.Err() != nil {
		p.finish(t, outcome(Failed, zero, ErrPoolShuttingDown))
		return
	}
	if err := job.Ctx.Err(); err != nil {
		p.finish(t, outcome(Failed, zero, err))
		return
	}

	p.cfg.metrics.observeQueueWait(started.Sub(t.enqueued))

	ctx, cancel := context.WithCancelCause(job.Ctx)
	defer cancel(nil)
	stopAbort := context.AfterFunc(p.abortCtx, func() { cancel(ErrPoolShuttingDown) })
	defer stopAbort()

	done := make(chan result[T], 1)
	go p.invoke(ctx, w.slot, job.Work, done)

	timer := time.NewTimer(job.Timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, ErrWorkerPanic) {
				p.log.Error("job panicked", zap.String("job_id", job.ID), zap.Error(r.err))
			}
			p.finish(t, outcome(Failed, zero, r.err))
		} else {
			p.finish(t, outcome(Completed, r.value, nil))
		}
		return

	case <-timer.C:
		cancel(ErrExecutionTimeout)
		p.finish(t, outcome(TimedOut, zero, fmt.Errorf("%w after %s", ErrExecutionTimeout, job.Timeout)))
		p.log.Warn("job timed out", zap.String("job_id", job.ID), zap.Duration("timeout", job.Timeout))

	case <-p.abortCtx.Done():
		cancel(ErrPoolShuttingDown)
		p.finish(t, outcome(Failed, zero, ErrPoolShuttingDown))
		// an aborting pool does not wait for work that ignores cancellation
		return
	}

	select {
	case <-done:
	case <-p.abortCtx.Done():
	}
}

// invoke runs work and always sends exactly one result on done, converting
// panics to errors wrapping ErrWorkerPanic.
func (p *Pool[T]) invoke(ctx context.Context, slot int, work Work[T], done chan<- result[T]) {
	var r result[T]
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			r = result[T]{err: fmt.Errorf("%w: %v\nstack trace:\n%s", ErrWorkerPanic, rec, buf[:n])}
		}
		done <- r
	}()

	if p.cfg.pinSlots {
		if err := cpu.Pin(slot); err != nil {
			p.log.Debug("cpu pinning failed", zap.Int("slot", slot), zap.Error(err))
		}
	}

	r.value, r.err = work(ctx)
}
