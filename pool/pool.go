package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/jobpool/internal/queue"
)

// Pool runs jobs on a fixed number of execution slots with a bounded FIFO
// waiting queue. Submissions that find no free slot and a full queue are
// rejected immediately instead of blocking.
//
// Type parameters:
//   - T: the result type produced by the pool's jobs
//
// A Pool is created with New and released with Shutdown or Close.
type Pool[T any] struct {
	cfg *config
	log *zap.Logger

	// mu guards everything below up to closed. Admission check-and-reserve,
	// dequeue and slot release all happen under it.
	mu     sync.Mutex
	queue  *queue.Ring[*task[T]]
	idle   []*worker[T]
	active int
	closed bool

	counters counters

	abortCtx context.Context
	abort    context.CancelCauseFunc

	workers      errgroup.Group
	done         chan struct{}
	shutdownOnce sync.Once
}

type task[T any] struct {
	job      Job[T]
	future   *Future[T]
	enqueued time.Time
}

type counters struct {
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	timedOut  atomic.Uint64
	rejected  atomic.Uint64
}

// New creates a pool and starts its workers.
//
// Default configuration:
//   - max workers: runtime.GOMAXPROCS(0)
//   - queue depth: 0 (accept only when a slot is free)
//   - default timeout: DefaultTimeout
//
// Example:
//
//	p, err := pool.New[[]byte](
//	    pool.WithMaxWorkers(2),
//	    pool.WithQueueDepth(2),
//	)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	f := p.Submit(renderDiagram, time.Second)
//	png, err := f.Get()
func New[T any](opts ...Option) (*Pool[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	abortCtx, abort := context.WithCancelCause(context.Background())
	p := &Pool[T]{
		cfg:      cfg,
		log:      cfg.logger,
		queue:    queue.NewRing[*task[T]](cfg.queueDepth),
		idle:     make([]*worker[T], 0, cfg.maxWorkers),
		abortCtx: abortCtx,
		abort:    abort,
		done:     make(chan struct{}),
	}

	for slot := range cfg.maxWorkers {
		w := &worker[T]{slot: slot, inbox: make(chan *task[T], 1)}
		p.idle = append(p.idle, w)
		p.workers.Go(func() error {
			w.run(p)
			return nil
		})
	}

	go func() {
		_ = p.workers.Wait()
		abort(nil)
		close(p.done)
	}()

	p.cfg.metrics.setLoad(0, 0)
	p.log.Debug("pool started",
		zap.Int("max_workers", cfg.maxWorkers),
		zap.Int("queue_depth", cfg.queueDepth),
		zap.Duration("default_timeout", cfg.defaultTimeout))

	return p, nil
}

// Submit hands work to the pool with the given execution budget and returns
// its future. A non-positive timeout uses the pool default.
//
// Submit never blocks. When the job cannot be admitted the returned future
// is already resolved with a Rejected outcome.
func (p *Pool[T]) Submit(work Work[T], timeout time.Duration) *Future[T] {
	return p.SubmitJob(Job[T]{Work: work, Timeout: timeout})
}

// SubmitJob is Submit for a fully specified Job.
func (p *Pool[T]) SubmitJob(job Job[T]) *Future[T] {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Ctx == nil {
		job.Ctx = context.Background()
	}
	if job.Timeout <= 0 {
		job.Timeout = p.cfg.defaultTimeout
	}

	t := &task[T]{job: job, future: newFuture[T](job.ID), enqueued: time.Now()}
	p.counters.submitted.Add(1)
	p.cfg.metrics.observeSubmitted()

	if job.Work == nil {
		p.reject(t, ErrInvalidJob)
		return t.future
	}
	if err := p.admit(t); err != nil {
		p.reject(t, err)
	}
	return t.future
}

// Shutdown stops admission and waits for queued and running jobs to finish.
// It is idempotent and safe to call concurrently.
//
// If ctx ends first, the pool aborts: running jobs are cancelled and resolve
// as Failed with ErrPoolShuttingDown, as do jobs still queued, and Shutdown
// returns an error wrapping ErrShutdownTimeout. Every accepted job still
// receives exactly one outcome.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	if err := p.Shutdown(ctx); err != nil {
//	    log.Printf("shutdown: %v", err)
//	}
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(p.stopAdmission)

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.abortInFlight()
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

// Close is Shutdown without a deadline.
func (p *Pool[T]) Close() {
	_ = p.Shutdown(context.Background())
}

// Done returns a channel closed once every worker has exited after Shutdown.
func (p *Pool[T]) Done() <-chan struct{} { return p.done }

// Stats returns a snapshot of the pool's load and lifetime counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	s := Stats{
		MaxWorkers:    p.cfg.maxWorkers,
		QueueDepth:    p.cfg.queueDepth,
		ActiveWorkers: p.active,
		QueuedJobs:    p.queue.Len(),
		Closed:        p.closed,
	}
	p.mu.Unlock()

	s.Submitted = p.counters.submitted.Load()
	s.Completed = p.counters.completed.Load()
	s.Failed = p.counters.failed.Load()
	s.TimedOut = p.counters.timedOut.Load()
	s.Rejected = p.counters.rejected.Load()
	return s
}

// stopAdmission closes the pool to new work and retires idle workers. Busy
// workers retire themselves once the queue is empty.
func (p *Pool[T]) stopAdmission() {
	p.mu.Lock()
	p.closed = true
	for _, w := range p.idle {
		close(w.inbox)
	}
	p.idle = nil
	active, queued := p.active, p.queue.Len()
	p.mu.Unlock()

	p.log.Info("pool shutting down", zap.Int("active", active), zap.Int("queued", queued))
}

// abortInFlight cancels running jobs and fails queued ones. Safe to call
// more than once.
func (p *Pool[T]) abortInFlight() {
	p.abort(ErrPoolShuttingDown)

	p.mu.Lock()
	abandoned := p.queue.Drain()
	active := p.active
	p.cfg.metrics.setLoad(active, 0)
	p.mu.Unlock()

	if len(abandoned) > 0 || active > 0 {
		p.log.Warn("pool shutdown deadline reached, aborting in-flight jobs",
			zap.Int("running", active), zap.Int("queued", len(abandoned)))
	}

	now := time.Now()
	for _, t := range abandoned {
		p.finish(t, Outcome[T]{
			Kind:     Failed,
			Err:      ErrPoolShuttingDown,
			JobID:    t.job.ID,
			Enqueued: t.enqueued,
			Finished: now,
		})
	}
}

// finish resolves t's future with o. Counters, metrics and the outcome hook
// see only the outcome that won the resolution.
func (p *Pool[T]) finish(t *task[T], o Outcome[T]) {
	if !t.future.resolve(o) {
		return
	}

	switch o.Kind {
	case Completed:
		p.counters.completed.Add(1)
	case Failed:
		p.counters.failed.Add(1)
	case TimedOut:
		p.counters.timedOut.Add(1)
	case Rejected:
		p.counters.rejected.Add(1)
	}
	p.cfg.metrics.observeOutcome(o.info())
	p.notify(o.info())
}

func (p *Pool[T]) notify(info OutcomeInfo) {
	if p.cfg.onOutcome == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("outcome hook panicked", zap.String("job_id", info.JobID), zap.Any("panic", r))
		}
	}()
	p.cfg.onOutcome(info)
}
