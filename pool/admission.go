package pool

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// admit decides, in one step under the pool lock, whether t is accepted.
//
// Order of checks:
//  1. a closed pool rejects with ErrPoolShuttingDown
//  2. with no idle slot and a full queue, rejects with ErrRejected
//  3. the optional rate limit rejects with ErrRateLimited
//  4. otherwise t goes straight to an idle slot, or to the queue tail
//
// A rejection leaves the pool state untouched and never blocks.
func (p *Pool[T]) admit(t *task[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolShuttingDown
	}

	hasSlot := len(p.idle) > 0
	if !hasSlot && p.queue.Full() {
		return fmt.Errorf("%w (%d running, %d queued)", ErrRejected, p.active, p.queue.Len())
	}

	if p.cfg.limiter != nil && !p.cfg.limiter.Allow() {
		return ErrRateLimited
	}

	if hasSlot {
		w := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		p.active++
		w.inbox <- t // idle inboxes are empty, never blocks
	} else {
		p.queue.Push(t)
	}

	p.cfg.metrics.setLoad(p.active, p.queue.Len())
	return nil
}

func (p *Pool[T]) reject(t *task[T], reason error) {
	p.log.Warn("job rejected",
		zap.String("job_id", t.job.ID),
		zap.Error(reason))

	p.finish(t, Outcome[T]{
		Kind:     Rejected,
		Err:      reason,
		JobID:    t.job.ID,
		Enqueued: t.enqueued,
		Finished: time.Now(),
	})
}
