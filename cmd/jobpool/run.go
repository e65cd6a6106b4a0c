package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/utkarsh5026/jobpool/pool"
)

// runEnv is what every command needs besides its own settings.
type runEnv struct {
	cfg Config
	log *zap.Logger
	reg *prometheus.Registry // nil unless --metrics
}

func newRunEnv(cfg Config) (*runEnv, error) {
	log, err := cfg.logger()
	if err != nil {
		return nil, err
	}
	env := &runEnv{cfg: cfg, log: log}
	if cfg.Metrics {
		env.reg = prometheus.NewRegistry()
	}
	return env, nil
}

// poolOptions turns the shared pool settings into options for a pool called
// name. extra options are applied last.
func (e *runEnv) poolOptions(name string, extra ...pool.Option) ([]pool.Option, error) {
	opts := []pool.Option{
		pool.WithMaxWorkers(e.cfg.Workers),
		pool.WithQueueDepth(e.cfg.Queue),
		pool.WithDefaultTimeout(e.cfg.Timeout),
		pool.WithLogger(e.log.Named(name)),
		pool.WithSlotPinning(e.cfg.Pin),
	}
	if e.reg != nil {
		m, err := pool.NewMetrics(e.reg, name)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		opts = append(opts, pool.WithMetrics(m))
	}
	return append(opts, extra...), nil
}

// shutdown gives running jobs one timeout period to finish before aborting
// them.
func (e *runEnv) shutdown(p *pool.Pool[int]) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Timeout+time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		e.log.Warn("pool did not drain in time", zap.Error(err))
	}
}

func (e *runEnv) close() {
	_ = e.log.Sync()
}

// sleepOrDone waits for d or until ctx ends, returning ctx's cause in the
// latter case.
func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
