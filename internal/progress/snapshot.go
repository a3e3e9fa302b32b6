package progress

import (
	"context"
	"time"

	"github.com/replicator/replicator/internal/store"
)

// Build computes a Snapshot from the latest in-memory/durable view of a
// task's units (spec §4.F: "computed from the latest in-memory view of
// unit rows on every status or progress change").
func Build(ctx context.Context, s *store.Store, task *store.SyncTask, startTime time.Time, currentUnit string) (Snapshot, error) {
	runtimes, err := s.ListRuntimes(ctx, task.ID)
	if err != nil {
		return Snapshot{}, err
	}
	history, err := s.ListHistory(ctx, task.ID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		TaskID:      task.ID,
		Status:      task.Status,
		StartTime:   startTime,
		CurrentUnit: currentUnit,
	}

	for _, h := range history {
		snap.CompletedUnits++
		snap.TotalRecords += h.TotalRecords
		snap.ProcessedRecords += h.TotalRecords
		snap.Units = append(snap.Units, UnitSnapshot{
			UnitName:         h.UnitName,
			Status:           store.UnitCompleted,
			TotalRecords:     h.TotalRecords,
			ProcessedRecords: h.TotalRecords,
		})
	}

	for _, rt := range runtimes {
		if rt.Status == store.UnitFailed {
			snap.FailedUnits++
		}
		snap.TotalRecords += rt.TotalRecords
		snap.ProcessedRecords += rt.ProcessedRecords
		snap.Units = append(snap.Units, UnitSnapshot{
			UnitName:         rt.UnitName,
			Status:           rt.Status,
			TotalRecords:     rt.TotalRecords,
			ProcessedRecords: rt.ProcessedRecords,
			ErrorMessage:     rt.ErrorMessage,
		})
	}

	snap.TotalUnits = len(history) + len(runtimes)
	if snap.TotalRecords > 0 {
		snap.Percentage = 100 * float64(snap.ProcessedRecords) / float64(snap.TotalRecords)
	}

	elapsed := time.Since(startTime).Seconds()
	if elapsed > 0 {
		snap.Speed = float64(snap.ProcessedRecords) / elapsed
	}
	if snap.Speed > 0 && snap.TotalRecords > snap.ProcessedRecords {
		snap.EstimatedRemainingSeconds = float64(snap.TotalRecords-snap.ProcessedRecords) / snap.Speed
	}

	return snap, nil
}
