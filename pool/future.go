package pool

import (
	"context"
	"sync"
	"time"
)

// Future is the handle returned by Submit. It resolves exactly once, to one
// of the four outcome kinds.
type Future[T any] struct {
	id   string
	done chan struct{}
	once sync.Once
	out  Outcome[T]
}

func newFuture[T any](id string) *Future[T] {
	return &Future[T]{id: id, done: make(chan struct{})}
}

// resolve stores o unless the future already resolved. It reports whether o
// was the value stored.
func (f *Future[T]) resolve(o Outcome[T]) (stored bool) {
	f.once.Do(func() {
		f.out = o
		close(f.done)
		stored = true
	})
	return stored
}

// ID returns the job id the future belongs to.
func (f *Future[T]) ID() string { return f.id }

// Done returns a channel closed once the outcome is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// IsReady reports whether the outcome is available without blocking.
func (f *Future[T]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Outcome blocks until the job's outcome is available.
//
// An accepted job resolves no later than its timeout after it starts
// executing; time spent queued is not bounded. Use Await to bound the wait.
func (f *Future[T]) Outcome() Outcome[T] {
	<-f.done
	return f.out
}

// Await waits for the outcome or for ctx to end, whichever comes first.
// Giving up on the wait does not cancel the job; the outcome returned then
// is not terminal and carries ctx's error.
func (f *Future[T]) Await(ctx context.Context) (Outcome[T], error) {
	select {
	case <-f.done:
		return f.out, nil
	case <-ctx.Done():
		return Outcome[T]{JobID: f.id, Err: ctx.Err()}, ctx.Err()
	}
}

// Get blocks for the outcome and returns it as a (value, error) pair.
func (f *Future[T]) Get() (T, error) {
	return f.Outcome().Result()
}

// GetWithTimeout is Get bounded by d.
func (f *Future[T]) GetWithTimeout(d time.Duration) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	o, err := f.Await(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return o.Result()
}
