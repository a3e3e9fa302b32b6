package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTask(t *testing.T, s *Store) *SyncTask {
	t.Helper()
	ctx := context.Background()
	src := &Datasource{Name: "src", Kind: KindRelational, Host: "localhost", Port: 3306}
	tgt := &Datasource{Name: "tgt", Kind: KindSearch, Host: "localhost", Port: 9200}
	require.NoError(t, s.UpsertDatasource(ctx, src))
	require.NoError(t, s.UpsertDatasource(ctx, tgt))

	task := &SyncTask{
		Name: "t1", SourceID: src.ID, TargetID: tgt.ID,
		SourceKind: KindRelational, TargetKind: KindSearch, ConfigJSON: `{}`,
	}
	require.NoError(t, s.UpsertTask(ctx, task))
	return task
}

func TestUpdateTaskRunStartedPersistsAndReloads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)
	require.True(t, task.RunStartedAt.IsZero())

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.UpdateTaskRunStarted(ctx, task.ID, start))

	reloaded, err := s.LoadTask(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, reloaded.RunStartedAt.Equal(start))
}

func TestReplaceUnitConfigsIsAtomicReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)

	require.NoError(t, s.ReplaceUnitConfigs(ctx, task.ID, []TaskUnitConfig{
		{TaskID: task.ID, UnitName: "a", UnitType: UnitTable},
		{TaskID: task.ID, UnitName: "b", UnitType: UnitTable},
	}))
	units, err := s.ListUnitConfigs(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, units, 2)

	require.NoError(t, s.ReplaceUnitConfigs(ctx, task.ID, []TaskUnitConfig{
		{TaskID: task.ID, UnitName: "c", UnitType: UnitTable},
	}))
	units, err = s.ListUnitConfigs(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.Equal(t, "c", units[0].UnitName)
}

func TestInitRuntimesClosure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)

	require.NoError(t, s.ReplaceUnitConfigs(ctx, task.ID, []TaskUnitConfig{
		{TaskID: task.ID, UnitName: "a", UnitType: UnitTable},
		{TaskID: task.ID, UnitName: "b", UnitType: UnitTable},
	}))
	require.NoError(t, s.InitRuntimes(ctx, task.ID))

	runtimes, err := s.ListRuntimes(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, runtimes, 2)
	for _, r := range runtimes {
		require.Equal(t, UnitPending, r.Status)
	}

	// Simulate a crash mid-run: one unit stuck at running.
	won, err := s.TryStartUnit(ctx, task.ID, "a")
	require.NoError(t, err)
	require.True(t, won)

	// Reconfigure: drop "b", add "c". init_runtimes must reset the
	// crashed "a" to pending, drop the orphaned "b" runtime, and add "c".
	require.NoError(t, s.ReplaceUnitConfigs(ctx, task.ID, []TaskUnitConfig{
		{TaskID: task.ID, UnitName: "a", UnitType: UnitTable},
		{TaskID: task.ID, UnitName: "c", UnitType: UnitTable},
	}))
	require.NoError(t, s.InitRuntimes(ctx, task.ID))

	runtimes, err = s.ListRuntimes(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, runtimes, 2)
	byName := map[string]TaskUnitRuntime{}
	for _, r := range runtimes {
		byName[r.UnitName] = r
	}
	require.Equal(t, UnitPending, byName["a"].Status, "crashed running unit must reconcile to pending")
	require.Equal(t, UnitPending, byName["c"].Status)
	_, hasB := byName["b"]
	require.False(t, hasB, "runtime for a dropped config row must be pruned")
}

func TestTryStartUnitIsCAS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)
	require.NoError(t, s.ReplaceUnitConfigs(ctx, task.ID, []TaskUnitConfig{{TaskID: task.ID, UnitName: "a", UnitType: UnitTable}}))
	require.NoError(t, s.InitRuntimes(ctx, task.ID))

	won1, err := s.TryStartUnit(ctx, task.ID, "a")
	require.NoError(t, err)
	require.True(t, won1)

	won2, err := s.TryStartUnit(ctx, task.ID, "a")
	require.NoError(t, err)
	require.False(t, won2, "a second runner must not be able to claim an already-running unit")
}

func TestMoveRuntimeToHistoryIsDisjoint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)
	require.NoError(t, s.ReplaceUnitConfigs(ctx, task.ID, []TaskUnitConfig{{TaskID: task.ID, UnitName: "a", UnitType: UnitTable}}))
	require.NoError(t, s.InitRuntimes(ctx, task.ID))
	require.NoError(t, s.UpdateRuntimeProgress(ctx, task.ID, "a", 10, 10))

	require.NoError(t, s.MoveRuntimeToHistory(ctx, task.ID, "a", "", 123))

	_, err := s.LoadRuntime(ctx, task.ID, "a")
	require.ErrorIs(t, err, ErrNotFound, "runtime row must be gone after moving to history")

	hist, err := s.ListHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, int64(10), hist[0].TotalRecords)
}

func TestLedgerMonotonicity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)

	require.NoError(t, s.MarkSynced(ctx, task.SourceID, "a", task.ID))
	entries, err := s.ListSynced(ctx, task.SourceID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.EqualValues(t, 1, entries[0].SyncCount)
	firstSync := entries[0].LastSyncedAt

	require.NoError(t, s.MarkSynced(ctx, task.SourceID, "a", task.ID))
	entries, err = s.ListSynced(ctx, task.SourceID)
	require.NoError(t, err)
	require.EqualValues(t, 2, entries[0].SyncCount)
	require.False(t, entries[0].LastSyncedAt.Before(firstSync))

	synced, err := s.IsSynced(ctx, task.SourceID, "a")
	require.NoError(t, err)
	require.True(t, synced)
}

func TestDeleteTaskCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)
	require.NoError(t, s.ReplaceUnitConfigs(ctx, task.ID, []TaskUnitConfig{{TaskID: task.ID, UnitName: "a", UnitType: UnitTable}}))
	require.NoError(t, s.InitRuntimes(ctx, task.ID))

	require.NoError(t, s.DeleteTask(ctx, task.ID))

	units, err := s.ListUnitConfigs(ctx, task.ID)
	require.NoError(t, err)
	require.Empty(t, units)

	runtimes, err := s.ListRuntimes(ctx, task.ID)
	require.NoError(t, err)
	require.Empty(t, runtimes)
}

func TestResetFailedUnits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)
	require.NoError(t, s.ReplaceUnitConfigs(ctx, task.ID, []TaskUnitConfig{{TaskID: task.ID, UnitName: "a", UnitType: UnitTable}}))
	require.NoError(t, s.InitRuntimes(ctx, task.ID))
	won, err := s.TryStartUnit(ctx, task.ID, "a")
	require.NoError(t, err)
	require.True(t, won)
	require.NoError(t, s.SetUnitFailed(ctx, task.ID, "a", "boom"))

	n, err := s.ResetFailedUnits(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	r, err := s.LoadRuntime(ctx, task.ID, "a")
	require.NoError(t, err)
	require.Equal(t, UnitPending, r.Status)
	require.Empty(t, r.ErrorMessage)
	require.Equal(t, 1, r.RetryCount)
}
