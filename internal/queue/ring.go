package queue

// Ring is a fixed-capacity FIFO backed by a circular buffer.
// It performs no locking; callers serialize access.
//
// A Ring of capacity zero accepts nothing, which is how a pool without a
// waiting queue is represented.
type Ring[T any] struct {
	buf  []T
	head int // index of the oldest element
	size int
}

// NewRing returns an empty Ring holding at most capacity elements.
// Negative capacities are treated as zero.
func NewRing[T any](capacity int) *Ring[T] {
	return &Ring[T]{buf: make([]T, max(capacity, 0))}
}

// Push appends v at the tail. It reports false without modifying the ring
// when the ring is full.
func (r *Ring[T]) Push(v T) bool {
	if r.size == len(r.buf) {
		return false
	}
	r.buf[(r.head+r.size)%len(r.buf)] = v
	r.size++
	return true
}

// Pop removes and returns the oldest element.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero // drop the reference for the GC
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return v, true
}

// Drain removes every element in FIFO order.
func (r *Ring[T]) Drain() []T {
	out := make([]T, 0, r.size)
	for {
		v, ok := r.Pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func (r *Ring[T]) Len() int    { return r.size }
func (r *Ring[T]) Cap() int    { return len(r.buf) }
func (r *Ring[T]) Full() bool  { return r.size == len(r.buf) }
func (r *Ring[T]) Empty() bool { return r.size == 0 }
