package algorithms

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Kind selects how retry delays grow between attempts.
type Kind int

const (
	// Exponential doubles the delay on every attempt (default).
	Exponential Kind = iota
	// Jittered is Exponential with a random ±factor spread applied.
	Jittered
	// Decorrelated draws each delay from [base, 3*previous], capped.
	Decorrelated
)

// shift limit so 1<<attempt cannot overflow a Duration multiplication
const maxShift = 62

// Backoff computes the wait before a retry.
//
// attempt is 0-indexed: 0 is the wait before the first retry.
// Implementations are safe for concurrent use.
type Backoff interface {
	Delay(attempt int) time.Duration
}

// New returns the Backoff for kind. Non-positive base defaults to 100ms and a
// ceiling below base is raised to base.
func New(kind Kind, base, ceiling time.Duration, jitter float64) Backoff {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	ceiling = max(ceiling, base)

	switch kind {
	case Jittered:
		return &jittered{base: base, ceiling: ceiling, factor: clamp(jitter, 0, 1)}
	case Decorrelated:
		return &decorrelated{base: base, ceiling: ceiling, prev: base}
	default:
		return exponential{base: base, ceiling: ceiling}
	}
}

type exponential struct {
	base, ceiling time.Duration
}

func (e exponential) Delay(attempt int) time.Duration {
	return expDelay(attempt, e.base, e.ceiling)
}

// jittered spreads retries of callers that were rejected together so they do
// not come back in lockstep.
type jittered struct {
	base, ceiling time.Duration
	factor        float64

	mu  sync.Mutex
	rng *rand.Rand
}

func (j *jittered) Delay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}
	d := expDelay(attempt, j.base, j.ceiling)

	j.mu.Lock()
	if j.rng == nil {
		j.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) // #nosec G404 -- jitter only
	}
	mult := 1 + (j.rng.Float64()*2-1)*j.factor
	j.mu.Unlock()

	return clamp(time.Duration(float64(d)*mult), 0, j.ceiling)
}

// decorrelated implements "decorrelated jitter": sleep = min(ceiling,
// random(base, prev*3)). The delay depends on the previous one, not just on
// the attempt number.
type decorrelated struct {
	base, ceiling time.Duration

	mu   sync.Mutex
	prev time.Duration
	rng  *rand.Rand
}

func (d *decorrelated) Delay(attempt int) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if attempt <= 0 {
		d.prev = d.base
		return d.base
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) // #nosec G404 -- jitter only
	}

	upper := min(d.prev*3, d.ceiling)
	span := upper - d.base
	if span <= 0 {
		d.prev = d.base
		return d.base
	}

	d.prev = d.base + time.Duration(d.rng.Int64N(int64(span)))
	return d.prev
}

func expDelay(attempt int, base, ceiling time.Duration) time.Duration {
	if attempt < 0 {
		return 0
	}
	if attempt >= maxShift {
		return ceiling
	}

	d := time.Duration(int64(1)<<uint(attempt)) * base
	if d > ceiling || d < 0 {
		return ceiling
	}
	return d
}

func clamp[T ~int64 | ~float64](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
