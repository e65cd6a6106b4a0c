package pool

import (
	"context"
	"fmt"
	"runtime"
)

// MapFunc transforms one batch input.
type MapFunc[I, O any] func(ctx context.Context, in I) (O, error)

// MapConcurrently runs fn over every input on p and returns one outcome per
// input, index i of the result belonging to inputs[i]. It waits for every
// outcome before returning.
//
// Elements fail independently: a Failed, TimedOut or Rejected element does
// not cancel or affect its siblings. Rejections happen when the batch is
// larger than p's free slots plus free queue space; size the pool
// accordingly or use ProcessBatch.
//
// An empty input returns an empty slice without touching p.
//
// Example:
//
//	outcomes := pool.MapConcurrently(p, urls, fetch, pool.WithJobTimeout(2*time.Second))
//	for i, o := range outcomes {
//	    if !o.OK() {
//	        log.Printf("%s: %v", urls[i], o.Err)
//	    }
//	}
func MapConcurrently[I, O any](p *Pool[O], inputs []I, fn MapFunc[I, O], opts ...JobOption) []Outcome[O] {
	if len(inputs) == 0 {
		return []Outcome[O]{}
	}

	s := applyJobOptions(opts)
	futures := make([]*Future[O], len(inputs))
	for i, in := range inputs {
		futures[i] = p.SubmitJob(batchJob(s, i, bind(fn, in)))
	}

	outcomes := make([]Outcome[O], len(inputs))
	for i, f := range futures {
		outcomes[i] = f.Outcome()
	}
	return outcomes
}

// MapKeyed is MapConcurrently for keyed inputs; each outcome is stored
// under its input's key.
func MapKeyed[K comparable, I, O any](p *Pool[O], inputs map[K]I, fn MapFunc[I, O], opts ...JobOption) map[K]Outcome[O] {
	outcomes := make(map[K]Outcome[O], len(inputs))
	if len(inputs) == 0 {
		return outcomes
	}

	s := applyJobOptions(opts)
	futures := make(map[K]*Future[O], len(inputs))
	i := 0
	for k, in := range inputs {
		futures[k] = p.SubmitJob(batchJob(s, i, bind(fn, in)))
		i++
	}

	for k, f := range futures {
		outcomes[k] = f.Outcome()
	}
	return outcomes
}

// ProcessBatch runs fn over inputs on a pool it owns, sized so that no input
// is rejected. Pool options such as WithMaxWorkers, WithDefaultTimeout or
// WithLogger apply; any queue depth given is overridden and an admission
// rate is ignored.
//
// ctx is the parent context of every job. The owned pool is shut down in the
// background once all outcomes are in, so work abandoned by a timeout does
// not hold up the caller.
func ProcessBatch[I, O any](ctx context.Context, inputs []I, fn MapFunc[I, O], opts ...Option) ([]Outcome[O], error) {
	if len(inputs) == 0 {
		return []Outcome[O]{}, nil
	}

	all := make([]Option, 0, len(opts)+3)
	all = append(all, WithMaxWorkers(min(runtime.GOMAXPROCS(0), len(inputs))))
	all = append(all, opts...)
	all = append(all, WithQueueDepth(len(inputs)), withoutAdmissionRate())

	p, err := New[O](all...)
	if err != nil {
		return nil, fmt.Errorf("creating batch pool: %w", err)
	}
	defer func() { go p.Close() }()

	return MapConcurrently(p, inputs, fn, WithJobContext(ctx)), nil
}

func bind[I, O any](fn MapFunc[I, O], in I) Work[O] {
	return func(ctx context.Context) (O, error) {
		return fn(ctx, in)
	}
}

func batchJob[O any](s jobSettings, index int, work Work[O]) Job[O] {
	j := Job[O]{Work: work, Timeout: s.timeout, Ctx: s.ctx}
	if s.prefix != "" {
		j.ID = fmt.Sprintf("%s-%d", s.prefix, index)
	}
	return j
}
