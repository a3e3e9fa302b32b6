package scheduler

import (
	"context"

	"github.com/replicator/replicator/internal/store"
)

// CrossTaskDedup drops candidates already present in the ledger for
// sourceID, when skipSynced is true (spec §4.E). When false, every
// candidate is kept.
func CrossTaskDedup(ctx context.Context, s *store.Store, sourceID string, candidates []Candidate, skipSynced bool) ([]Candidate, error) {
	if !skipSynced {
		return candidates, nil
	}

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		synced, err := s.IsSynced(ctx, sourceID, c.UnitName)
		if err != nil {
			return nil, err
		}
		if !synced {
			out = append(out, c)
		}
	}
	return out, nil
}

// CompletionFilter drops any candidate whose unit_name already has a
// TaskUnitHistory row for taskID, making a re-run idempotent with
// respect to already-completed units (spec §4.E).
func CompletionFilter(ctx context.Context, s *store.Store, taskID string, candidates []Candidate) ([]Candidate, error) {
	completed, err := s.CompletedUnitNames(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if len(completed) == 0 {
		return candidates, nil
	}

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !completed[c.UnitName] {
			out = append(out, c)
		}
	}
	return out, nil
}
