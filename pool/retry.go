package pool

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/utkarsh5026/jobpool/internal/algorithms"
)

// BackoffType selects the delay growth used by SubmitWithRetry.
type BackoffType = algorithms.Kind

const (
	BackoffExponential  = algorithms.Exponential
	BackoffJittered     = algorithms.Jittered
	BackoffDecorrelated = algorithms.Decorrelated
)

// RetryPolicy controls SubmitWithRetry.
type RetryPolicy struct {
	// MaxAttempts is the total number of submissions, the first included.
	// Values below 1 mean a single attempt.
	MaxAttempts int

	Backoff      BackoffType
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// JitterFactor applies to BackoffJittered only, in [0, 1].
	JitterFactor float64
}

// DefaultRetryPolicy retries a rejected submission up to 3 times with
// jittered exponential backoff starting at 100ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  4,
		Backoff:      BackoffJittered,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		JitterFactor: 0.2,
	}
}

// SubmitWithRetry submits job and waits for its outcome, submitting again
// after a backoff delay while the pool rejects it for a transient reason
// (capacity or admission rate). Timeouts, failures and shutdown rejections
// are returned as they are; the pool itself never retries.
//
// The returned error is non-nil only when ctx ends first, in which case the
// job may still be running and the outcome is either the last rejection or a
// non-terminal one; neither reads as Completed.
func SubmitWithRetry[T any](ctx context.Context, p *Pool[T], job Job[T], policy RetryPolicy) (Outcome[T], error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	attempts := max(policy.MaxAttempts, 1)
	backoff := algorithms.New(policy.Backoff, policy.InitialDelay, policy.MaxDelay, policy.JitterFactor)

	for attempt := 0; ; attempt++ {
		o, err := p.SubmitJob(job).Await(ctx)
		if err != nil {
			return o, err
		}
		if o.Kind != Rejected || !IsTransient(o.Err) || attempt == attempts-1 {
			return o, nil
		}

		p.log.Debug("retrying rejected job", zap.String("job_id", job.ID), zap.Int("attempt", attempt+1))
		timer := time.NewTimer(backoff.Delay(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return o, ctx.Err()
		}
	}
}
