package engine

import (
	"context"

	"github.com/replicator/replicator/internal/store"
)

// ListTasks returns every configured sync task.
func (e *Engine) ListTasks(ctx context.Context) ([]*store.SyncTask, error) {
	return e.Store.ListTasks(ctx)
}

// GetTask returns one sync task by ID.
func (e *Engine) GetTask(ctx context.Context, id string) (*store.SyncTask, error) {
	return e.Store.LoadTask(ctx, id)
}

// CreateTask persists a new task. Unit selection is deferred to the
// first start_sync call (spec §4.E), not performed here.
func (e *Engine) CreateTask(ctx context.Context, t *store.SyncTask) (*store.SyncTask, error) {
	t.ID = ""
	t.Status = store.TaskIdle
	if err := e.Store.UpsertTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTask persists changes to an existing task (name, description,
// config_json). Status is not settable here — it only moves through
// StartByID/Pause/Resume.
func (e *Engine) UpdateTask(ctx context.Context, t *store.SyncTask) error {
	existing, err := e.Store.LoadTask(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Status = existing.Status
	t.CreatedAt = existing.CreatedAt
	return e.Store.UpsertTask(ctx, t)
}

// DeleteTask removes a task and its unit state.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	e.Rings.Delete(id)
	return e.Store.DeleteTask(ctx, id)
}

// GetTaskUnits returns a task's configured units together with their
// current runtime status, for spec §6's get_task_units.
func (e *Engine) GetTaskUnits(ctx context.Context, taskID string) ([]store.TaskUnitRuntime, error) {
	return e.Store.ListRuntimes(ctx, taskID)
}

// ResetFailedUnits transitions every failed unit of taskID back to
// pending so a subsequent start_sync retries them (spec §6,§7).
func (e *Engine) ResetFailedUnits(ctx context.Context, taskID string) (int, error) {
	return e.Store.ResetFailedUnits(ctx, taskID)
}

// ListSynced returns the cross-task ledger entries for a source
// datasource (spec §6 list_synced).
func (e *Engine) ListSynced(ctx context.Context, sourceID string) ([]store.SyncedIndex, error) {
	return e.Store.ListSynced(ctx, sourceID)
}

// ClearSynced drops one ledger entry when unitName is non-empty, or
// every entry for sourceID when it is empty (spec §6 clear_synced).
func (e *Engine) ClearSynced(ctx context.Context, sourceID, unitName string) (int, error) {
	if unitName != "" {
		if err := e.Store.ClearLedgerEntry(ctx, sourceID, unitName); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return e.Store.ClearLedgerAll(ctx, sourceID)
}
