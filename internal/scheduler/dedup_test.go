package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/store"
)

func newSchedulerTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSchedulerTask(t *testing.T, s *store.Store) *store.SyncTask {
	t.Helper()
	ctx := context.Background()
	src := &store.Datasource{Name: "src", Kind: store.KindRelational, Host: "localhost", Port: 3306}
	tgt := &store.Datasource{Name: "tgt", Kind: store.KindSearch, Host: "localhost", Port: 9200}
	require.NoError(t, s.UpsertDatasource(ctx, src))
	require.NoError(t, s.UpsertDatasource(ctx, tgt))

	task := &store.SyncTask{
		Name: "t1", SourceID: src.ID, TargetID: tgt.ID,
		SourceKind: store.KindRelational, TargetKind: store.KindSearch, ConfigJSON: `{}`,
	}
	require.NoError(t, s.UpsertTask(ctx, task))
	return task
}

func TestCrossTaskDedupDropsAlreadySyncedWhenSkipSyncedTrue(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)
	require.NoError(t, s.MarkSynced(ctx, task.SourceID, "orders", task.ID))

	in := []Candidate{{UnitName: "orders"}, {UnitName: "customers"}}
	out, err := CrossTaskDedup(ctx, s, task.SourceID, in, true)
	require.NoError(t, err)
	require.Equal(t, []Candidate{{UnitName: "customers"}}, out)
}

func TestCrossTaskDedupKeepsAllWhenSkipSyncedFalse(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)
	require.NoError(t, s.MarkSynced(ctx, task.SourceID, "orders", task.ID))

	in := []Candidate{{UnitName: "orders"}, {UnitName: "customers"}}
	out, err := CrossTaskDedup(ctx, s, task.SourceID, in, false)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestCompletionFilterDropsUnitsAlreadyInHistory(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)
	require.NoError(t, s.ReplaceUnitConfigs(ctx, task.ID, []store.TaskUnitConfig{
		{TaskID: task.ID, UnitName: "orders", UnitType: store.UnitTable},
	}))
	require.NoError(t, s.InitRuntimes(ctx, task.ID))
	require.NoError(t, s.MoveRuntimeToHistory(ctx, task.ID, "orders", "", 0))

	in := []Candidate{{UnitName: "orders"}, {UnitName: "customers"}}
	out, err := CompletionFilter(ctx, s, task.ID, in)
	require.NoError(t, err)
	require.Equal(t, []Candidate{{UnitName: "customers"}}, out)
}

func TestCompletionFilterIsNoOpWhenHistoryEmpty(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)

	in := []Candidate{{UnitName: "orders"}, {UnitName: "customers"}}
	out, err := CompletionFilter(ctx, s, task.ID, in)
	require.NoError(t, err)
	require.Equal(t, in, out)
}
