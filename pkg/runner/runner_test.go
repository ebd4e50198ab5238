package runner

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloud-bulldozer/threadbench/pkg/config"
	"github.com/cloud-bulldozer/threadbench/pkg/workload"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func sleepy(d time.Duration) workload.Workload {
	return workload.Func("sleepy", func(workload.Args) error {
		time.Sleep(d)
		return nil
	})
}

func counting(calls *int64) workload.Workload {
	return workload.Func("counting", func(workload.Args) error {
		atomic.AddInt64(calls, 1)
		return nil
	})
}

func TestRunReportsRequestedTrials(t *testing.T) {
	var calls int64
	for _, cfg := range config.DefaultConfigs {
		d, err := Run(counting(&calls), workload.Args{1}, cfg, 4)
		require.NoError(t, err)
		require.Equal(t, 4, d.Samples)
		require.Equal(t, cfg, d.Config)
		require.False(t, math.IsNaN(d.Mean) || math.IsInf(d.Mean, 0))
		require.GreaterOrEqual(t, d.Mean, 0.0)
		require.GreaterOrEqual(t, d.Variance, 0.0)
	}
	require.Equal(t, int64(4*16*len(config.DefaultConfigs)), atomic.LoadInt64(&calls))
}

func TestRunSingleTrialZeroVariance(t *testing.T) {
	var calls int64
	d, err := Run(counting(&calls), nil, config.Config{Threads: 2, Repeats: 2}, 1)
	require.NoError(t, err)
	require.Equal(t, 0.0, d.Variance)
}

// One thread sleeping twice takes about twice as long as one sleep.
func TestRunSequentialSleeps(t *testing.T) {
	d, err := Run(sleepy(100*time.Millisecond), nil, config.Config{Threads: 1, Repeats: 2}, 3)
	require.NoError(t, err)
	require.GreaterOrEqual(t, d.Mean, 0.2)
	require.Less(t, d.Mean, 0.35)
}

// Two threads sleeping once each overlap.
func TestRunConcurrentSleeps(t *testing.T) {
	d, err := Run(sleepy(100*time.Millisecond), nil, config.Config{Threads: 2, Repeats: 1}, 3)
	require.NoError(t, err)
	require.GreaterOrEqual(t, d.Mean, 0.1)
	require.Less(t, d.Mean, 0.19)
}

func TestRunRejectsInvalidConfiguration(t *testing.T) {
	cases := []struct {
		name   string
		cfg    config.Config
		trials int
	}{
		{"zero threads", config.Config{Threads: 0, Repeats: 1}, 1},
		{"zero repeats", config.Config{Threads: 1, Repeats: 0}, 1},
		{"zero trials", config.Config{Threads: 1, Repeats: 1}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var calls int64
			_, err := Run(counting(&calls), nil, c.cfg, c.trials)
			require.True(t, errors.Is(err, config.ErrInvalidConfiguration))
			require.Zero(t, atomic.LoadInt64(&calls))
		})
	}
}

func TestRunWorkloadFailure(t *testing.T) {
	w, err := workload.New("fail")
	require.NoError(t, err)
	_, err = Run(w, nil, config.Config{Threads: 2, Repeats: 3}, 3)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrWorkloadFailure))
	require.True(t, errors.Is(err, workload.ErrAlwaysFails))
	var we *WorkloadError
	require.True(t, errors.As(err, &we))
	require.Equal(t, "fail", we.Workload)
	require.Equal(t, 0, we.Trial)
}

func TestRunFailureInLaterTrial(t *testing.T) {
	var calls int64
	boom := errors.New("boom")
	w := workload.Func("late", func(workload.Args) error {
		if atomic.AddInt64(&calls, 1) > 2 {
			return boom
		}
		return nil
	})
	_, err := Run(w, nil, config.Config{Threads: 1, Repeats: 2}, 3)
	var we *WorkloadError
	require.True(t, errors.As(err, &we))
	require.Equal(t, 1, we.Trial)
	require.True(t, errors.Is(err, boom))
}

// A failing unit does not stop its siblings; the join waits for all.
func TestSiblingsRunToCompletion(t *testing.T) {
	var calls int64
	w := workload.Func("one-bad", func(args workload.Args) error {
		atomic.AddInt64(&calls, 1)
		if args[0] == 0 {
			return errors.New("bad")
		}
		return nil
	})
	var unit int64
	wrapped := workload.Func("one-bad", func(workload.Args) error {
		// The first unit to call in fails, everyone else succeeds.
		if atomic.CompareAndSwapInt64(&unit, 0, 1) {
			return w.Run(workload.Args{0})
		}
		time.Sleep(10 * time.Millisecond)
		return w.Run(workload.Args{1})
	})
	_, err := trial(wrapped, nil, 4, 1)
	require.Error(t, err)
	require.Equal(t, int64(4), atomic.LoadInt64(&calls))
}

func TestUnitsGetTheirOwnArgs(t *testing.T) {
	args := workload.Args{5}
	var bad int64
	w := workload.Func("mutating", func(a workload.Args) error {
		if a[0] != 5 {
			atomic.AddInt64(&bad, 1)
		}
		a[0] = 5
		time.Sleep(time.Millisecond)
		a[0]++
		time.Sleep(time.Millisecond)
		a[0] = 5
		return nil
	})
	_, err := Run(w, args, config.Config{Threads: 8, Repeats: 4}, 2)
	require.NoError(t, err)
	require.Equal(t, workload.Args{5}, args)
	require.Zero(t, atomic.LoadInt64(&bad))
}
