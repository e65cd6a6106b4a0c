package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/utkarsh5026/jobpool/pool"
)

// poolConfig names one pool shape under benchmark.
type poolConfig struct {
	name string
	opts []pool.Option
}

// poolShapes returns pool shapes with the given number of slots and
// increasingly deep waiting queues.
func poolShapes(workers, tasks int) []poolConfig {
	return []poolConfig{
		{
			name: "QueueOneRound",
			opts: []pool.Option{pool.WithMaxWorkers(workers), pool.WithQueueDepth(workers)},
		},
		{
			name: "QueueHalf",
			opts: []pool.Option{pool.WithMaxWorkers(workers), pool.WithQueueDepth(tasks / 2)},
		},
		{
			name: "QueueAll",
			opts: []pool.Option{pool.WithMaxWorkers(workers), pool.WithQueueDepth(tasks)},
		},
	}
}

// cpuBoundWork simulates a CPU-intensive operation
func cpuBoundWork(iterations int) pool.MapFunc[int, int] {
	return func(ctx context.Context, task int) (int, error) {
		result := 0
		for i := range iterations {
			result += i * task
		}
		return result, nil
	}
}

// ioBoundWork simulates an I/O operation with a delay
func ioBoundWork(delay time.Duration) pool.MapFunc[int, int] {
	return func(ctx context.Context, task int) (int, error) {
		select {
		case <-time.After(delay):
			return task * 2, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// mixedWork sleeps 0-9ms depending on the task, then computes.
func mixedWork() pool.MapFunc[int, int] {
	return func(ctx context.Context, task int) (int, error) {
		time.Sleep(time.Duration(task%10) * time.Millisecond)

		result := 0
		for i := range 1000 {
			result += i
		}
		return result + task, nil
	}
}

func makeTasks(n int) []int {
	tasks := make([]int, n)
	for i := range tasks {
		tasks[i] = i
	}
	return tasks
}

func newBenchPool(b *testing.B, opts ...pool.Option) *pool.Pool[int] {
	b.Helper()
	p, err := pool.New[int](opts...)
	if err != nil {
		b.Fatalf("creating pool: %v", err)
	}
	b.Cleanup(p.Close)
	return p
}

// reportOutcomes attaches the share of each outcome kind to the benchmark.
func reportOutcomes(b *testing.B, outcomes []pool.Outcome[int]) {
	b.Helper()
	if len(outcomes) == 0 {
		return
	}
	counts := make(map[pool.OutcomeKind]int, 4)
	for _, o := range outcomes {
		counts[o.Kind]++
	}
	total := float64(len(outcomes))
	b.ReportMetric(float64(counts[pool.Completed])/total, "completed/op")
	b.ReportMetric(float64(counts[pool.Rejected])/total, "rejected/op")
}
