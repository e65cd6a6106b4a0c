package pool

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "jobpool"

// Metrics publishes pool activity to Prometheus. One Metrics belongs to one
// pool; the pool name is attached as a constant label. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	submitted prometheus.Counter
	outcomes  *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	active    prometheus.Gauge
	queued    prometheus.Gauge
	execution prometheus.Histogram
	queueWait prometheus.Histogram
}

// NewMetrics creates the pool collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, poolName string) (*Metrics, error) {
	labels := prometheus.Labels{"pool": poolName}
	buckets := []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

	m := &Metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "jobs_submitted_total",
			Help:        "Jobs handed to the pool, accepted or not.",
			ConstLabels: labels,
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "jobs_outcomes_total",
			Help:        "Terminal job outcomes by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "jobs_rejected_total",
			Help:        "Rejected submissions by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "active_workers",
			Help:        "Execution slots currently running a job.",
			ConstLabels: labels,
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "queued_jobs",
			Help:        "Accepted jobs waiting for a slot.",
			ConstLabels: labels,
		}),
		execution: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   metricsNamespace,
			Name:        "job_execution_seconds",
			Help:        "Time from start of execution to outcome delivery.",
			ConstLabels: labels,
			Buckets:     buckets,
		}),
		queueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   metricsNamespace,
			Name:        "job_queue_wait_seconds",
			Help:        "Time accepted jobs spent waiting for a slot.",
			ConstLabels: labels,
			Buckets:     buckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.submitted, m.outcomes, m.rejected, m.active, m.queued, m.execution, m.queueWait} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeSubmitted() {
	if m == nil {
		return
	}
	m.submitted.Inc()
}

func (m *Metrics) observeOutcome(o OutcomeInfo) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(o.Kind.String()).Inc()
	if o.Kind == Rejected {
		m.rejected.WithLabelValues(rejectReason(o.Err)).Inc()
		return
	}
	if o.Execution > 0 {
		m.execution.Observe(o.Execution.Seconds())
	}
}

func (m *Metrics) observeQueueWait(d time.Duration) {
	if m == nil {
		return
	}
	m.queueWait.Observe(d.Seconds())
}

func (m *Metrics) setLoad(active, queued int) {
	if m == nil {
		return
	}
	m.active.Set(float64(active))
	m.queued.Set(float64(queued))
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrRejected):
		return "capacity"
	case errors.Is(err, ErrPoolShuttingDown):
		return "shutting_down"
	case errors.Is(err, ErrInvalidJob):
		return "invalid"
	default:
		return "other"
	}
}
