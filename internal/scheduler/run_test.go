package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/store"
)

func prepareUnits(t *testing.T, s *store.Store, task *store.SyncTask, units ...string) {
	t.Helper()
	ctx := context.Background()
	_, err := Prepare(ctx, s, task, TaskConfig{Units: units})
	require.NoError(t, err)
}

func TestRunMovesCompletedUnitsToHistoryAndLedger(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)
	prepareUnits(t, s, task, "orders", "customers")

	summary, err := Run(ctx, s, task, RunOptions{SourceID: task.SourceID, ThreadCount: 2}, func(ctx context.Context, unitName, pattern string) (UnitResult, error) {
		return UnitResult{}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Completed)
	require.Equal(t, 0, summary.Failed)
	require.Equal(t, 0, summary.Paused)

	runtimes, err := s.ListRuntimes(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, runtimes, 0)

	history, err := s.ListHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	for _, name := range []string{"orders", "customers"} {
		synced, err := s.IsSynced(ctx, task.SourceID, name)
		require.NoError(t, err)
		require.True(t, synced)
	}
}

func TestRunMarksFailedUnitsAndContinuesUnderSkipStrategy(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)
	prepareUnits(t, s, task, "orders", "customers")

	summary, err := Run(ctx, s, task, RunOptions{SourceID: task.SourceID, ThreadCount: 1, ErrorStrategy: store.ErrorStrategySkip},
		func(ctx context.Context, unitName, pattern string) (UnitResult, error) {
			if unitName == "orders" {
				return UnitResult{}, fmt.Errorf("boom")
			}
			return UnitResult{}, nil
		})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Completed)
	require.Equal(t, 1, summary.Failed)

	runtime, err := s.LoadRuntime(ctx, task.ID, "orders")
	require.NoError(t, err)
	require.Equal(t, store.UnitFailed, runtime.Status)
	require.Contains(t, runtime.ErrorMessage, "boom")
}

func TestRunStopsClaimingNewUnitsUnderPauseStrategyAfterFirstFailure(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)
	prepareUnits(t, s, task, "a", "b")

	summary, err := Run(ctx, s, task, RunOptions{SourceID: task.SourceID, ThreadCount: 1, ErrorStrategy: store.ErrorStrategyPause},
		func(ctx context.Context, unitName, pattern string) (UnitResult, error) {
			return UnitResult{}, fmt.Errorf("boom")
		})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 0, summary.Completed)

	a, err := s.LoadRuntime(ctx, task.ID, "a")
	require.NoError(t, err)
	require.Equal(t, store.UnitFailed, a.Status)

	b, err := s.LoadRuntime(ctx, task.ID, "b")
	require.NoError(t, err)
	require.Equal(t, store.UnitPending, b.Status) // never claimed: pause-on-error tripped first
}

func TestRunReturnsCancelledUnitsToPending(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)
	prepareUnits(t, s, task, "orders")

	summary, err := Run(ctx, s, task, RunOptions{SourceID: task.SourceID, ThreadCount: 1},
		func(ctx context.Context, unitName, pattern string) (UnitResult, error) {
			return UnitResult{Cancelled: true}, nil
		})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Paused)

	runtime, err := s.LoadRuntime(ctx, task.ID, "orders")
	require.NoError(t, err)
	require.Equal(t, store.UnitPending, runtime.Status)
}

func TestRunRespectsShouldPauseBeforeClaimingNewUnits(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)
	prepareUnits(t, s, task, "a", "b", "c")

	var pause int32
	var ran int32
	summary, err := Run(ctx, s, task, RunOptions{
		SourceID:    task.SourceID,
		ThreadCount: 1,
		ShouldPause: func() bool { return atomic.LoadInt32(&pause) == 1 },
	}, func(ctx context.Context, unitName, pattern string) (UnitResult, error) {
		atomic.AddInt32(&ran, 1)
		atomic.StoreInt32(&pause, 1) // pause after the first unit claims
		return UnitResult{}, nil
	})
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&ran))
	require.Equal(t, 1, summary.Completed)
}

func TestRunBoundsConcurrencyToThreadCount(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)
	units := make([]string, 8)
	for i := range units {
		units[i] = fmt.Sprintf("u%d", i)
	}
	prepareUnits(t, s, task, units...)

	var mu sync.Mutex
	var current, maxSeen int

	summary, err := Run(ctx, s, task, RunOptions{SourceID: task.SourceID, ThreadCount: 3},
		func(ctx context.Context, unitName, pattern string) (UnitResult, error) {
			mu.Lock()
			current++
			if current > maxSeen {
				maxSeen = current
			}
			mu.Unlock()

			mu.Lock()
			current--
			mu.Unlock()
			return UnitResult{}, nil
		})
	require.NoError(t, err)
	require.Equal(t, 8, summary.Completed)
	require.LessOrEqual(t, maxSeen, 3)
}
