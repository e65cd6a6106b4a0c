package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected is returned when admission control turns a job away because
	// every slot is busy and the waiting queue is full. It is transient; the
	// caller may retry later.
	ErrRejected = errors.New("job rejected: pool at capacity")

	// ErrRateLimited is returned when the admission rate limit is exceeded.
	// It matches ErrRejected under errors.Is.
	ErrRateLimited = fmt.Errorf("%w: admission rate exceeded", ErrRejected)

	// ErrPoolShuttingDown is returned for submissions after Shutdown and for
	// queued or running jobs abandoned by an aborted shutdown.
	ErrPoolShuttingDown = errors.New("pool is shutting down")

	// ErrExecutionTimeout is the error carried by TimedOut outcomes and the
	// cancellation cause seen by work that overran its budget.
	ErrExecutionTimeout = errors.New("job execution timed out")

	// ErrWorkerPanic wraps a panic recovered from a job's work.
	ErrWorkerPanic = errors.New("worker panic")

	ErrInvalidJob    = errors.New("invalid job: nil work")
	ErrInvalidConfig = errors.New("invalid pool configuration")

	// ErrNoOutcome is reported by Outcome.Result for an outcome that is not
	// terminal, such as the one returned when Await gives up waiting.
	ErrNoOutcome = errors.New("job outcome not available")

	ErrShutdownTimeout = errors.New("error in shutting down: timeout reached")
)

// IsTransient reports whether err marks a rejection that may succeed if the
// caller submits again later.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRejected) && !errors.Is(err, ErrPoolShuttingDown)
}
