package pool

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the execution budget of jobs submitted without one.
const DefaultTimeout = 5 * time.Second

// Option configures a Pool at construction.
type Option func(*config)

type config struct {
	maxWorkers     int
	queueDepth     int
	defaultTimeout time.Duration
	limiter        *rate.Limiter
	logger         *zap.Logger
	metrics        *Metrics
	onOutcome      func(OutcomeInfo)
	pinSlots       bool

	invalid []string
}

func defaultConfig() *config {
	return &config{
		maxWorkers:     runtime.GOMAXPROCS(0),
		queueDepth:     0,
		defaultTimeout: DefaultTimeout,
		logger:         zap.NewNop(),
	}
}

func (c *config) validate() error {
	if len(c.invalid) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, c.invalid)
}

// WithMaxWorkers sets the number of execution slots. n must be at least 1.
// Defaults to runtime.GOMAXPROCS(0).
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n < 1 {
			c.invalid = append(c.invalid, fmt.Sprintf("max workers %d < 1", n))
			return
		}
		c.maxWorkers = n
	}
}

// WithQueueDepth sets how many accepted jobs may wait for a slot. Zero, the
// default, accepts a job only when a slot is free at submission.
func WithQueueDepth(q int) Option {
	return func(c *config) {
		if q < 0 {
			c.invalid = append(c.invalid, fmt.Sprintf("queue depth %d < 0", q))
			return
		}
		c.queueDepth = q
	}
}

// WithDefaultTimeout sets the execution budget for jobs submitted without
// one. Defaults to DefaultTimeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *config) {
		if d <= 0 {
			c.invalid = append(c.invalid, fmt.Sprintf("default timeout %s <= 0", d))
			return
		}
		c.defaultTimeout = d
	}
}

// WithAdmissionRate caps the rate of accepted submissions with a token
// bucket. Submissions over the rate are rejected with ErrRateLimited rather
// than delayed.
//
// Example:
//
//	WithAdmissionRate(10, 5) // 10 jobs/sec, bursts of 5
func WithAdmissionRate(perSecond float64, burst int) Option {
	return func(c *config) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func withoutAdmissionRate() Option {
	return func(c *config) { c.limiter = nil }
}

// WithLogger sets the logger used for rejections, timeouts, panics and
// lifecycle events. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics publishes pool activity to m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithOnOutcome registers a hook called once per submitted job, rejected
// ones included, after its outcome is available. Hooks run on the
// goroutine that resolved the job and must not block; panics are recovered.
func WithOnOutcome(fn func(OutcomeInfo)) Option {
	return func(c *config) { c.onOutcome = fn }
}

// WithSlotPinning pins each running job to the CPU of its execution slot.
// Only effective on Linux.
func WithSlotPinning(enabled bool) Option {
	return func(c *config) { c.pinSlots = enabled }
}

// JobOption adjusts jobs created by the batch helpers.
type JobOption func(*jobSettings)

type jobSettings struct {
	timeout time.Duration
	ctx     context.Context
	prefix  string
}

// WithJobTimeout sets the execution budget of each batch job.
func WithJobTimeout(d time.Duration) JobOption {
	return func(s *jobSettings) { s.timeout = d }
}

// WithJobContext sets the parent context of each batch job.
func WithJobContext(ctx context.Context) JobOption {
	return func(s *jobSettings) { s.ctx = ctx }
}

// WithJobIDPrefix names batch jobs "<prefix>-<index>" instead of random ids.
func WithJobIDPrefix(prefix string) JobOption {
	return func(s *jobSettings) { s.prefix = prefix }
}

func applyJobOptions(opts []JobOption) jobSettings {
	var s jobSettings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
