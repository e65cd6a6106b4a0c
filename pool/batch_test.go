package pool

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapConcurrently_PreservesOrder(t *testing.T) {
	p := newTestPool[int](t, WithMaxWorkers(3), WithQueueDepth(10))

	inputs := make([]int, 10)
	for i := range inputs {
		inputs[i] = i
	}
	// later inputs finish first
	double := func(ctx context.Context, in int) (int, error) {
		time.Sleep(time.Duration(10-in) * 2 * time.Millisecond)
		return in * 2, nil
	}

	outcomes := MapConcurrently(p, inputs, double)
	require.Len(t, outcomes, len(inputs))
	for i, o := range outcomes {
		assert.Equal(t, Completed, o.Kind)
		assert.Equal(t, inputs[i]*2, o.Value)
	}
}

func TestMapConcurrently_IsolatesFailures(t *testing.T) {
	p := newTestPool[string](t, WithMaxWorkers(2), WithQueueDepth(6))
	errOdd := errors.New("odd input")

	fn := func(ctx context.Context, in int) (string, error) {
		switch {
		case in == 3:
			time.Sleep(300 * time.Millisecond)
			return "late", nil
		case in%2 == 1:
			return "", errOdd
		default:
			return fmt.Sprint(in), nil
		}
	}

	outcomes := MapConcurrently(p, []int{0, 1, 2, 3, 4, 5}, fn, WithJobTimeout(50*time.Millisecond))
	require.Len(t, outcomes, 6)

	want := []OutcomeKind{Completed, Failed, Completed, TimedOut, Completed, Failed}
	for i, o := range outcomes {
		assert.Equal(t, want[i], o.Kind, "input %d", i)
	}
	assert.Equal(t, "0", outcomes[0].Value)
	assert.Equal(t, "4", outcomes[4].Value)
	assert.ErrorIs(t, outcomes[1].Err, errOdd)
	assert.ErrorIs(t, outcomes[3].Err, ErrExecutionTimeout)
}

func TestMapConcurrently_Empty(t *testing.T) {
	p := newTestPool[int](t, WithMaxWorkers(1))

	outcomes := MapConcurrently(p, []int{}, func(context.Context, int) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})
	assert.NotNil(t, outcomes)
	assert.Empty(t, outcomes)

	assert.Empty(t, MapConcurrently[int, int](p, nil, nil))
	assert.Zero(t, p.Stats().Submitted)
}

func TestMapConcurrently_OverCapacityRejectsTail(t *testing.T) {
	p := newTestPool[int](t, WithMaxWorkers(1), WithQueueDepth(1))

	fn := func(ctx context.Context, in int) (int, error) {
		time.Sleep(50 * time.Millisecond)
		return in, nil
	}
	outcomes := MapConcurrently(p, []int{0, 1, 2, 3}, fn)

	assert.Equal(t, Completed, outcomes[0].Kind)
	assert.Equal(t, Completed, outcomes[1].Kind)
	for _, o := range outcomes[2:] {
		assert.Equal(t, Rejected, o.Kind)
		assert.ErrorIs(t, o.Err, ErrRejected)
	}
}

func TestMapConcurrently_JobIDPrefix(t *testing.T) {
	p := newTestPool[int](t, WithMaxWorkers(2), WithQueueDepth(2))

	outcomes := MapConcurrently(p, []int{7, 8, 9},
		func(_ context.Context, in int) (int, error) { return in, nil },
		WithJobIDPrefix("resize"))

	for i, o := range outcomes {
		assert.Equal(t, fmt.Sprintf("resize-%d", i), o.JobID)
	}
}

func TestMapKeyed(t *testing.T) {
	p := newTestPool[int](t, WithMaxWorkers(2), WithQueueDepth(4))

	inputs := map[string]string{"a": "x", "bb": "yy", "ccc": ""}
	outcomes := MapKeyed(p, inputs, func(_ context.Context, s string) (int, error) {
		if s == "" {
			return 0, errors.New("empty")
		}
		return len(s), nil
	})

	require.Len(t, outcomes, 3)
	assert.Equal(t, 1, outcomes["a"].Value)
	assert.Equal(t, 2, outcomes["bb"].Value)
	assert.Equal(t, Failed, outcomes["ccc"].Kind)

	assert.Empty(t, MapKeyed(p, map[string]string{}, func(context.Context, string) (int, error) { return 0, nil }))
}

func TestProcessBatch(t *testing.T) {
	inputs := make([]int, 50)
	for i := range inputs {
		inputs[i] = i
	}

	outcomes, err := ProcessBatch(context.Background(), inputs, func(_ context.Context, in int) (int, error) {
		return in * in, nil
	}, WithMaxWorkers(4))
	require.NoError(t, err)
	require.Len(t, outcomes, len(inputs))
	for i, o := range outcomes {
		assert.Equal(t, Completed, o.Kind)
		assert.Equal(t, i*i, o.Value)
	}
}

func TestProcessBatch_IgnoresAdmissionRate(t *testing.T) {
	inputs := make([]int, 10)
	for i := range inputs {
		inputs[i] = i
	}

	outcomes, err := ProcessBatch(context.Background(), inputs, func(_ context.Context, in int) (int, error) {
		return in, nil
	}, WithMaxWorkers(2), WithAdmissionRate(1, 1))
	require.NoError(t, err)
	for i, o := range outcomes {
		assert.Equal(t, Completed, o.Kind, "input %d: %v", i, o.Err)
	}
}

func TestProcessBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := ProcessBatch(ctx, []int{1, 2, 3}, func(_ context.Context, in int) (int, error) {
		return in, nil
	}, WithMaxWorkers(1))
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.Equal(t, Failed, o.Kind)
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestProcessBatch_InvalidOptions(t *testing.T) {
	_, err := ProcessBatch(context.Background(), []int{1}, func(_ context.Context, in int) (int, error) {
		return in, nil
	}, WithDefaultTimeout(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	outcomes, err := ProcessBatch(context.Background(), nil, func(_ context.Context, in int) (int, error) {
		return in, nil
	})
	assert.NoError(t, err)
	assert.Empty(t, outcomes)
}
