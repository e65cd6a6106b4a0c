// Package pool provides a bounded, generic job pool with timeout-guarded
// submission.
//
// The primary type is Pool[T], a fixed number of execution slots in front of
// a bounded FIFO waiting queue. Jobs produce values of type T. Every
// submission returns a Future that resolves exactly once, to one of four
// outcomes: Completed, Failed, TimedOut or Rejected.
//
// # Basic Usage
//
//	p, err := pool.New[string](
//	    pool.WithMaxWorkers(2),
//	    pool.WithQueueDepth(2),
//	)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	f := p.Submit(func(ctx context.Context) (string, error) {
//	    return render(ctx, doc)
//	}, time.Second)
//
//	switch o := f.Outcome(); o.Kind {
//	case pool.Completed:
//	    use(o.Value)
//	case pool.Rejected:
//	    // pool at capacity, try later
//	default:
//	    log.Printf("job %s: %v", o.JobID, o.Err)
//	}
//
// # Admission
//
// Submit never blocks. A job goes straight to a free slot, or to the tail of
// the queue when every slot is busy. When the queue is full as well the job
// is rejected at once with ErrRejected and nothing else changes. With a
// queue depth of zero, the default, a job is accepted only if a slot is free.
//
// WithAdmissionRate adds a token bucket in front of the pool; submissions
// over the rate are rejected with ErrRateLimited. Both rejections satisfy
// IsTransient. Rejections after Shutdown carry ErrPoolShuttingDown and do
// not.
//
// # Timeouts
//
// A job's timeout is measured from the moment it starts executing, never
// from submission. When it expires the future resolves as TimedOut right
// away and the work's context is cancelled with ErrExecutionTimeout as its
// cause. Work that ignores cancellation keeps its slot until it returns;
// whatever it returns is discarded.
//
//	f := p.Submit(func(ctx context.Context) (int, error) {
//	    select {
//	    case <-time.After(time.Minute):
//	        return 1, nil
//	    case <-ctx.Done():
//	        return 0, context.Cause(ctx) // ErrExecutionTimeout
//	    }
//	}, 50*time.Millisecond)
//
// # Batches
//
// MapConcurrently runs a function over a slice on an existing pool and
// returns one outcome per input, in input order. Elements fail
// independently. ProcessBatch does the same on a pool it creates and sizes
// so that no element is rejected:
//
//	outcomes, err := pool.ProcessBatch(ctx, urls, fetch,
//	    pool.WithMaxWorkers(8),
//	    pool.WithDefaultTimeout(2*time.Second),
//	)
//
// MapKeyed is the map counterpart of MapConcurrently.
//
// # Retry
//
// The pool never retries. SubmitWithRetry retries on the caller's side, and
// only for transient rejections:
//
//	o, err := pool.SubmitWithRetry(ctx, p, pool.Job[int]{Work: work}, pool.DefaultRetryPolicy())
//
// # Shutdown
//
// Shutdown stops admission and waits for queued and running jobs. If its
// context ends first, running jobs are cancelled, and they and any queued
// jobs resolve as Failed with ErrPoolShuttingDown. Shutdown is idempotent.
//
// # Observability
//
//   - WithLogger(l): zap logger for rejections, timeouts, panics and lifecycle
//   - WithMetrics(m): Prometheus collectors created by NewMetrics
//   - WithOnOutcome(fn): hook called once per submitted job
//   - Stats(): point-in-time load and lifetime counters
//
// # Error Handling
//
// Errors returned by work are carried unchanged in Failed outcomes. A panic
// in work is recovered and reported as a Failed outcome whose error wraps
// ErrWorkerPanic and includes the stack trace.
package pool
