package scheduler

import (
	"context"

	"github.com/replicator/replicator/internal/store"
)

// Prepare runs the full expand -> dedup -> persist pipeline for task
// and returns the surviving candidates (spec §4.E). It is idempotent:
// re-running a task with the same config converges to the same
// surviving unit set plus whatever the ledger/history have accumulated
// since the prior run.
func Prepare(ctx context.Context, s *store.Store, task *store.SyncTask, cfg TaskConfig) ([]Candidate, error) {
	candidates := Expand(cfg)
	candidates = DedupWithinTask(candidates)

	candidates, err := CrossTaskDedup(ctx, s, task.SourceID, candidates, cfg.SkipSynced)
	if err != nil {
		return nil, err
	}
	candidates, err = CompletionFilter(ctx, s, task.ID, candidates)
	if err != nil {
		return nil, err
	}

	configs := make([]store.TaskUnitConfig, len(candidates))
	for i, c := range candidates {
		configs[i] = store.TaskUnitConfig{
			TaskID:        task.ID,
			UnitName:      c.UnitName,
			UnitType:      unitType(task.SourceKind),
			SearchPattern: c.SearchPattern,
		}
	}
	if err := s.ReplaceUnitConfigs(ctx, task.ID, configs); err != nil {
		return nil, err
	}
	if err := s.InitRuntimes(ctx, task.ID); err != nil {
		return nil, err
	}

	return candidates, nil
}
