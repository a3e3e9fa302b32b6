package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/store"
)

func TestPrepareExpandsDedupsAndPersists(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)

	cfg := TaskConfig{Units: []string{"orders", "customers", "orders"}}
	candidates, err := Prepare(ctx, s, task, cfg)
	require.NoError(t, err)
	require.Equal(t, []Candidate{{UnitName: "orders"}, {UnitName: "customers"}}, candidates)

	configs, err := s.ListUnitConfigs(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	for _, c := range configs {
		require.Equal(t, store.UnitTable, c.UnitType) // seedSchedulerTask's source datasource is KindRelational
	}

	runtimes, err := s.ListRuntimes(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, runtimes, 2)
	for _, r := range runtimes {
		require.Equal(t, store.UnitPending, r.Status)
	}
}

func TestPrepareSkipsAlreadySyncedUnitsWhenConfigured(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)
	require.NoError(t, s.MarkSynced(ctx, task.SourceID, "orders", task.ID))

	cfg := TaskConfig{Units: []string{"orders", "customers"}, SkipSynced: true}
	candidates, err := Prepare(ctx, s, task, cfg)
	require.NoError(t, err)
	require.Equal(t, []Candidate{{UnitName: "customers"}}, candidates)
}

func TestPrepareIsIdempotentAcrossReruns(t *testing.T) {
	s := newSchedulerTestStore(t)
	ctx := context.Background()
	task := seedSchedulerTask(t, s)

	cfg := TaskConfig{Units: []string{"orders", "customers"}}
	_, err := Prepare(ctx, s, task, cfg)
	require.NoError(t, err)
	require.NoError(t, s.MoveRuntimeToHistory(ctx, task.ID, "orders", "", 0))

	candidates, err := Prepare(ctx, s, task, cfg)
	require.NoError(t, err)
	require.Equal(t, []Candidate{{UnitName: "customers"}}, candidates)
}
