package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestPool builds a pool that is closed when the test ends.
func newTestPool[T any](t *testing.T, opts ...Option) *Pool[T] {
	t.Helper()
	p, err := New[T](opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})
	return p
}

// waitIdle waits until no slot is busy; a future resolves slightly before its
// slot is released.
func waitIdle[T any](t *testing.T, p *Pool[T]) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := p.Stats()
		return s.ActiveWorkers == 0 && s.QueuedJobs == 0
	}, 2*time.Second, time.Millisecond)
}

// sleepWork returns v after d, or the context error if cancelled first.
func sleepWork[T any](d time.Duration, v T) Work[T] {
	return func(ctx context.Context) (T, error) {
		select {
		case <-time.After(d):
			return v, nil
		case <-ctx.Done():
			var zero T
			return zero, context.Cause(ctx)
		}
	}
}

// stubbornWork ignores cancellation and returns v after d.
func stubbornWork[T any](d time.Duration, v T) Work[T] {
	return func(context.Context) (T, error) {
		time.Sleep(d)
		return v, nil
	}
}

// gateWork blocks until release is closed.
func gateWork(release <-chan struct{}) Work[int] {
	return func(ctx context.Context) (int, error) {
		select {
		case <-release:
			return 1, nil
		case <-ctx.Done():
			return 0, context.Cause(ctx)
		}
	}
}

// concurrencyProbe records the highest number of simultaneously running works.
type concurrencyProbe struct {
	running atomic.Int32
	peak    atomic.Int32
}

func (c *concurrencyProbe) wrap(w Work[int]) Work[int] {
	return func(ctx context.Context) (int, error) {
		n := c.running.Add(1)
		for {
			old := c.peak.Load()
			if n <= old || c.peak.CompareAndSwap(old, n) {
				break
			}
		}
		defer c.running.Add(-1)
		return w(ctx)
	}
}
