package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/jobpool/pool"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Map a function over a batch of items with random durations",
		Example: `  # 20 items on 4 slots; items slower than 200ms time out
  jobpool batch --workers 4 --queue 16 --items 20 --max-sleep 400ms --timeout 200ms`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := cmd.Flags()
	addPoolFlags(f)
	f.Int("items", 20, "number of batch items")
	f.Duration("max-sleep", 200*time.Millisecond, "upper bound of each item's random duration")
	f.Float64("fail-rate", 0, "probability that an item fails, in [0, 1]")
	f.Uint64("seed", 1, "seed for item durations and failures")
	return cmd
}

// batchItem is the precomputed behavior of one batch element.
type batchItem struct {
	index int
	sleep time.Duration
	fail  bool
}

func planBatch(cfg Config) []batchItem {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	items := make([]batchItem, cfg.Items)
	for i := range items {
		items[i] = batchItem{index: i, fail: rng.Float64() < cfg.FailRate}
		if cfg.MaxSleep > 0 {
			items[i].sleep = time.Duration(rng.Int64N(int64(cfg.MaxSleep)))
		}
	}
	return items
}

func processItem(ctx context.Context, it batchItem) (int, error) {
	if err := sleepOrDone(ctx, it.sleep); err != nil {
		return 0, err
	}
	if it.fail {
		return 0, fmt.Errorf("item %d: %w", it.index, errInjected)
	}
	return int(it.sleep / time.Millisecond), nil
}

func runBatch(ctx context.Context, out io.Writer, cfg Config) error {
	env, err := newRunEnv(cfg)
	if err != nil {
		return err
	}
	defer env.close()

	items := planBatch(cfg)
	bar := newProgressBar(len(items), "processing batch")

	opts, err := env.poolOptions("batch", pool.WithOnOutcome(func(pool.OutcomeInfo) {
		_ = bar.Add(1)
	}))
	if err != nil {
		return err
	}
	p, err := pool.New[int](opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	outcomes := pool.MapConcurrently(p, items, processItem,
		pool.WithJobContext(ctx),
		pool.WithJobIDPrefix("item"),
	)
	elapsed := time.Since(start)
	_ = bar.Finish()
	env.shutdown(p)

	printSectionHeader(out, "BATCH OUTCOMES (input order)")
	if err := renderOutcomes(out, outcomes); err != nil {
		return fmt.Errorf("rendering outcomes: %w", err)
	}
	renderSummary(out, outcomes, p.Stats(), elapsed)

	if env.reg != nil {
		return dumpMetrics(out, env.reg)
	}
	return nil
}
