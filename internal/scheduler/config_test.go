package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/model"
	"github.com/replicator/replicator/internal/store"
)

func TestParseTaskConfigFillsDefaults(t *testing.T) {
	cfg, err := ParseTaskConfig(`{"units":["a","b"]}`)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, cfg.Units)
	require.Equal(t, 1, cfg.ThreadCount)
	require.Equal(t, 500, cfg.BatchSize)
	require.Equal(t, store.ErrorStrategySkip, cfg.ErrorStrategy)
	require.Equal(t, model.TargetDrop, cfg.TargetExists)
}

func TestParseTaskConfigPreservesExplicitValues(t *testing.T) {
	cfg, err := ParseTaskConfig(`{
		"units": ["a"],
		"thread_count": 4,
		"batch_size": 1000,
		"error_strategy": "pause",
		"target_exists": "truncate",
		"skip_synced": true
	}`)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.ThreadCount)
	require.Equal(t, 1000, cfg.BatchSize)
	require.Equal(t, store.ErrorStrategyPause, cfg.ErrorStrategy)
	require.Equal(t, model.TargetTruncate, cfg.TargetExists)
	require.True(t, cfg.SkipSynced)
}

func TestParseTaskConfigEmptyBlobYieldsDefaults(t *testing.T) {
	cfg, err := ParseTaskConfig("")
	require.NoError(t, err)
	require.Equal(t, 1, cfg.ThreadCount)
	require.Equal(t, 500, cfg.BatchSize)
}

func TestParseTaskConfigRejectsInvalidJSON(t *testing.T) {
	_, err := ParseTaskConfig(`{not json`)
	require.Error(t, err)
}
