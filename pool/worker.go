package pool

// worker owns one execution slot. While idle it parks on its inbox; while
// busy it keeps pulling from the shared queue until the queue is empty.
type worker[T any] struct {
	slot  int
	inbox chan *task[T]
}

func (w *worker[T]) run(p *Pool[T]) {
	for t := range w.inbox {
		for t != nil {
			p.execute(w, t)
			t = p.next(w)
		}
	}
}

// next returns the oldest queued task for w, or nil after releasing w's
// slot. A released worker either goes back to the idle set or, once the pool
// is closed, retires by closing its own inbox.
func (p *Pool[T]) next(w *worker[T]) *task[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.queue.Pop(); ok {
		p.cfg.metrics.setLoad(p.active, p.queue.Len())
		return t
	}

	p.active--
	if p.closed {
		close(w.inbox)
	} else {
		p.idle = append(p.idle, w)
	}
	p.cfg.metrics.setLoad(p.active, 0)
	return nil
}
