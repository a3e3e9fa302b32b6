package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/store"
)

func TestBuildAggregatesHistoryAndRuntime(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	src := &store.Datasource{Name: "src", Kind: store.KindRelational, Host: "h", Port: 1}
	tgt := &store.Datasource{Name: "tgt", Kind: store.KindSearch, Host: "h", Port: 2}
	require.NoError(t, s.UpsertDatasource(ctx, src))
	require.NoError(t, s.UpsertDatasource(ctx, tgt))
	task := &store.SyncTask{
		Name: "t1", SourceID: src.ID, TargetID: tgt.ID,
		SourceKind: store.KindRelational, TargetKind: store.KindSearch, ConfigJSON: "{}",
		Status: store.TaskRunning,
	}
	require.NoError(t, s.UpsertTask(ctx, task))

	require.NoError(t, s.ReplaceUnitConfigs(ctx, task.ID, []store.TaskUnitConfig{
		{TaskID: task.ID, UnitName: "a", UnitType: store.UnitTable},
		{TaskID: task.ID, UnitName: "b", UnitType: store.UnitTable},
	}))
	require.NoError(t, s.InitRuntimes(ctx, task.ID))
	require.NoError(t, s.UpdateRuntimeProgress(ctx, task.ID, "a", 100, 40))
	require.NoError(t, s.MoveRuntimeToHistory(ctx, task.ID, "b", "", 500))

	snap, err := Build(ctx, s, task, time.Now().Add(-time.Second), "a")
	require.NoError(t, err)
	require.Equal(t, 2, snap.TotalUnits)
	require.Equal(t, 1, snap.CompletedUnits)
	require.Equal(t, int64(40), snap.ProcessedRecords)
	require.Equal(t, "a", snap.CurrentUnit)
}
