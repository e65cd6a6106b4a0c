package pool

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promclient "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherFamilies(t *testing.T, reg *prometheus.Registry) map[string]*promclient.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]*promclient.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

// metricWithLabel returns the series of mf carrying name=value, or nil.
func metricWithLabel(mf *promclient.MetricFamily, name, value string) *promclient.Metric {
	if mf == nil {
		return nil
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == name && lp.GetValue() == value {
				return m
			}
		}
	}
	return nil
}

func TestMetrics_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, "render")
	require.NoError(t, err)

	p := newTestPool[int](t, WithMaxWorkers(1), WithMetrics(m))

	assert.Equal(t, Completed, p.Submit(sleepWork(5*time.Millisecond, 1), time.Second).Outcome().Kind)
	waitIdle(t, p)
	assert.Equal(t, Failed, p.Submit(func(context.Context) (int, error) { return 0, errors.New("nope") }, time.Second).Outcome().Kind)
	waitIdle(t, p)

	release := make(chan struct{})
	blocker := p.Submit(gateWork(release), time.Second)
	assert.Equal(t, Rejected, p.Submit(sleepWork(0, 1), time.Second).Outcome().Kind)
	close(release)
	blocker.Outcome()
	waitIdle(t, p)

	mfs := gatherFamilies(t, reg)

	submitted := mfs["jobpool_jobs_submitted_total"]
	require.NotNil(t, submitted)
	assert.Equal(t, 4.0, submitted.GetMetric()[0].GetCounter().GetValue())
	assert.NotNil(t, metricWithLabel(submitted, "pool", "render"))

	outcomes := mfs["jobpool_jobs_outcomes_total"]
	for kind, want := range map[string]float64{"completed": 2, "failed": 1, "rejected": 1} {
		series := metricWithLabel(outcomes, "kind", kind)
		require.NotNil(t, series, kind)
		assert.Equal(t, want, series.GetCounter().GetValue(), kind)
	}

	capacity := metricWithLabel(mfs["jobpool_jobs_rejected_total"], "reason", "capacity")
	require.NotNil(t, capacity)
	assert.Equal(t, 1.0, capacity.GetCounter().GetValue())

	execution := mfs["jobpool_job_execution_seconds"]
	require.NotNil(t, execution)
	assert.Equal(t, uint64(3), execution.GetMetric()[0].GetHistogram().GetSampleCount())

	queueWait := mfs["jobpool_job_queue_wait_seconds"]
	require.NotNil(t, queueWait)
	assert.Equal(t, uint64(3), queueWait.GetMetric()[0].GetHistogram().GetSampleCount())

	assert.Zero(t, mfs["jobpool_active_workers"].GetMetric()[0].GetGauge().GetValue())
	assert.Zero(t, mfs["jobpool_queued_jobs"].GetMetric()[0].GetGauge().GetValue())
}

func TestMetrics_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewMetrics(reg, "a")
	require.NoError(t, err)

	_, err = NewMetrics(reg, "b")
	assert.NoError(t, err, "pools with different names share a registry")

	_, err = NewMetrics(reg, "a")
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &already)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeSubmitted()
		m.observeOutcome(OutcomeInfo{Kind: Completed, Execution: time.Second})
		m.observeQueueWait(time.Second)
		m.setLoad(1, 2)
	})
}

func TestRejectReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrRateLimited, "rate_limited"},
		{fmt.Errorf("%w (1 running, 0 queued)", ErrRejected), "capacity"},
		{ErrPoolShuttingDown, "shutting_down"},
		{ErrInvalidJob, "invalid"},
		{errors.New("other"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, rejectReason(tt.err))
		})
	}
}
