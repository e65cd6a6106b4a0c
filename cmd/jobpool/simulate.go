package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/jobpool/pool"
)

var errInjected = errors.New("injected failure")

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Submit a stream of identical sleeping jobs",
		Example: `  # 2 slots, queue of 2, five 100ms jobs: the fifth is rejected
  jobpool simulate --workers 2 --queue 2 --jobs 5 --sleep 100ms

  # jobs overrunning a 50ms budget time out
  jobpool simulate --jobs 3 --sleep 500ms --timeout 50ms`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := cmd.Flags()
	addPoolFlags(f)
	f.Int("jobs", 10, "number of jobs to submit")
	f.Duration("sleep", 100*time.Millisecond, "how long each job works")
	f.Duration("spacing", 0, "pause between submissions")
	f.Int("fail-every", 0, "make every n-th job fail (0 disables)")
	f.Bool("retry", false, "retry submissions rejected at capacity with backoff")
	return cmd
}

// simulatedWork sleeps for d, honoring cancellation, and fails when fail is
// set.
func simulatedWork(index int, d time.Duration, fail bool) pool.Work[int] {
	return func(ctx context.Context) (int, error) {
		if err := sleepOrDone(ctx, d); err != nil {
			return 0, err
		}
		if fail {
			return 0, fmt.Errorf("job %d: %w", index, errInjected)
		}
		return index, nil
	}
}

func runSimulate(ctx context.Context, out io.Writer, cfg Config) error {
	env, err := newRunEnv(cfg)
	if err != nil {
		return err
	}
	defer env.close()

	// with --retry one job may be submitted several times
	var attempts atomic.Int64
	opts, err := env.poolOptions("simulate", pool.WithOnOutcome(func(pool.OutcomeInfo) {
		attempts.Add(1)
	}))
	if err != nil {
		return err
	}
	p, err := pool.New[int](opts...)
	if err != nil {
		return err
	}

	bar := newProgressBar(cfg.Jobs, "simulating")
	outcomes := make([]pool.Outcome[int], cfg.Jobs)
	var g errgroup.Group
	start := time.Now()

	for i := range cfg.Jobs {
		fail := cfg.FailEvery > 0 && (i+1)%cfg.FailEvery == 0
		job := pool.Job[int]{
			ID:      fmt.Sprintf("job-%d", i),
			Work:    simulatedWork(i, cfg.Sleep, fail),
			Timeout: cfg.Timeout,
			Ctx:     ctx,
		}

		if cfg.Retry {
			g.Go(func() error {
				o, err := pool.SubmitWithRetry(ctx, p, job, pool.DefaultRetryPolicy())
				outcomes[i] = o
				_ = bar.Add(1)
				return err
			})
		} else {
			f := p.SubmitJob(job)
			g.Go(func() error {
				o, err := f.Await(ctx)
				outcomes[i] = o
				_ = bar.Add(1)
				return err
			})
		}

		if i < cfg.Jobs-1 {
			if err := sleepOrDone(ctx, cfg.Spacing); err != nil {
				break
			}
		}
	}

	waitErr := g.Wait()
	elapsed := time.Since(start)
	_ = bar.Finish()
	env.shutdown(p)

	if waitErr != nil {
		return fmt.Errorf("simulation interrupted: %w", waitErr)
	}

	printSectionHeader(out, "JOB OUTCOMES")
	if err := renderOutcomes(out, outcomes); err != nil {
		return fmt.Errorf("rendering outcomes: %w", err)
	}
	renderSummary(out, outcomes, p.Stats(), elapsed)
	if cfg.Retry {
		_, _ = fmt.Fprintf(out, "  admission attempts %d\n", attempts.Load())
	}

	if env.reg != nil {
		return dumpMetrics(out, env.reg)
	}
	return nil
}
