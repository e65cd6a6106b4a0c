package pool

import (
	"context"
	"time"
)

// Work is the unit of computation executed by the pool.
//
// ctx is cancelled when the job times out (cause ErrExecutionTimeout), when
// the submitter's context ends, or when the pool aborts. Honoring it is
// cooperative: work that ignores ctx keeps running after its outcome has
// been delivered and its result is discarded.
type Work[T any] func(ctx context.Context) (T, error)

// Job is a Work plus its execution budget. A Job is immutable once
// submitted.
type Job[T any] struct {
	// ID identifies the job in outcomes, logs and hooks. A random UUID is
	// assigned when empty.
	ID string

	Work Work[T]

	// Timeout bounds execution time, measured from the moment a worker
	// starts the job. Non-positive values use the pool default.
	Timeout time.Duration

	// Ctx is the parent of the context passed to Work. Defaults to
	// context.Background().
	Ctx context.Context
}

// OutcomeKind classifies how a job ended.
type OutcomeKind uint8

// The zero value is pending: an outcome that is not (yet) terminal, such as
// the one returned when Await gives up.
const (
	pending OutcomeKind = iota
	Completed
	Failed
	TimedOut
	Rejected
)

func (k OutcomeKind) String() string {
	switch k {
	case pending:
		return "pending"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of a submitted job.
//
// Fields:
//   - Value: the work's result (only meaningful when Kind is Completed)
//   - Err: the work's own error for Failed, an error wrapping
//     ErrExecutionTimeout for TimedOut, and the admission reason for Rejected
//   - Enqueued/Started/Finished: Started is zero when the job never ran
type Outcome[T any] struct {
	Kind     OutcomeKind
	Value    T
	Err      error
	JobID    string
	Enqueued time.Time
	Started  time.Time
	Finished time.Time
}

// Result collapses the outcome into the usual (value, error) pair. Only a
// Completed outcome yields a nil error.
func (o Outcome[T]) Result() (T, error) {
	if o.Kind == Completed {
		return o.Value, nil
	}
	var zero T
	if o.Err == nil {
		return zero, ErrNoOutcome
	}
	return zero, o.Err
}

func (o Outcome[T]) OK() bool { return o.Kind == Completed }

// QueueWait is the time spent between admission and the start of execution.
func (o Outcome[T]) QueueWait() time.Duration {
	if o.Started.IsZero() {
		return 0
	}
	return o.Started.Sub(o.Enqueued)
}

// Execution is the time between the start of execution and the delivery of
// the outcome. For TimedOut outcomes this is the timeout, not the lifetime
// of the abandoned work.
func (o Outcome[T]) Execution() time.Duration {
	if o.Started.IsZero() {
		return 0
	}
	return o.Finished.Sub(o.Started)
}

// OutcomeInfo is the type-erased view of an outcome handed to hooks.
type OutcomeInfo struct {
	JobID     string
	Kind      OutcomeKind
	Err       error
	QueueWait time.Duration
	Execution time.Duration
}

func (o Outcome[T]) info() OutcomeInfo {
	return OutcomeInfo{
		JobID:     o.JobID,
		Kind:      o.Kind,
		Err:       o.Err,
		QueueWait: o.QueueWait(),
		Execution: o.Execution(),
	}
}

// Stats is a point-in-time snapshot of a pool.
type Stats struct {
	MaxWorkers    int
	QueueDepth    int
	ActiveWorkers int
	QueuedJobs    int
	Closed        bool

	Submitted uint64
	Completed uint64
	Failed    uint64
	TimedOut  uint64
	Rejected  uint64
}
