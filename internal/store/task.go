package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// UpsertTask inserts or replaces a sync task by ID. If ID is empty a
// new UUID is assigned and Status defaults to idle.
func (s *Store) UpsertTask(ctx context.Context, t *SyncTask) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskIdle
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sync_tasks (id, name, description, source_id, target_id, source_kind, target_kind, config_json, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				source_id = excluded.source_id,
				target_id = excluded.target_id,
				source_kind = excluded.source_kind,
				target_kind = excluded.target_kind,
				config_json = excluded.config_json,
				status = excluded.status,
				updated_at = excluded.updated_at
		`, t.ID, t.Name, t.Description, t.SourceID, t.TargetID, string(t.SourceKind), string(t.TargetKind),
			t.ConfigJSON, string(t.Status), t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339))
		return wrapDBError("upsert task", err)
	})
}

// LoadTask returns the task by ID, or ErrNotFound.
func (s *Store) LoadTask(ctx context.Context, id string) (*SyncTask, error) {
	row := s.db.QueryRowContext(ctx, taskSelectSQL+` WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasks returns all tasks, newest first.
func (s *Store) ListTasks(ctx context.Context) ([]*SyncTask, error) {
	rows, err := s.db.QueryContext(ctx, taskSelectSQL+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapDBError("list tasks", err)
	}
	defer rows.Close()

	var out []*SyncTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, wrapDBError("list tasks", rows.Err())
}

// UpdateTaskStatus sets a task's status, durably, before any observer
// is notified (spec §4.G: "each lifecycle transition durably updates
// the task status before notifying observers").
func (s *Store) UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE sync_tasks SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), time.Now().UTC().Format(time.RFC3339), taskID)
		if err != nil {
			return wrapDBError("update task status", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("update task status", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UpdateTaskRunStarted records when the current run began, so
// progress.Build can compute speed/ETA against the run's actual start
// instead of the task's last-updated timestamp.
func (s *Store) UpdateTaskRunStarted(ctx context.Context, taskID string, startedAt time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE sync_tasks SET run_started_at = ? WHERE id = ?`,
			startedAt.UTC().Format(time.RFC3339), taskID)
		if err != nil {
			return wrapDBError("update task run started", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("update task run started", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteTask removes a task and cascades to its unit config, runtime,
// and history rows in one transaction.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sync_tasks WHERE id = ?`, id)
		if err != nil {
			return wrapDBError("delete task", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("delete task", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		// ON DELETE CASCADE handles task_unit_config/runtime/history when
		// foreign_keys pragma is enabled; delete explicitly too so the
		// cascade holds even if a caller opened the DB without that pragma.
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_unit_config WHERE task_id = ?`, id); err != nil {
			return wrapDBError("delete task", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_unit_runtime WHERE task_id = ?`, id); err != nil {
			return wrapDBError("delete task", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_unit_history WHERE task_id = ?`, id); err != nil {
			return wrapDBError("delete task", err)
		}
		return nil
	})
}

const taskSelectSQL = `
	SELECT id, name, description, source_id, target_id, source_kind, target_kind, config_json, status, created_at, updated_at, run_started_at
	FROM sync_tasks`

func scanTask(row rowScanner) (*SyncTask, error) {
	var t SyncTask
	var sourceKind, targetKind, status, createdAt, updatedAt string
	var runStartedAt sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.SourceID, &t.TargetID, &sourceKind, &targetKind,
		&t.ConfigJSON, &status, &createdAt, &updatedAt, &runStartedAt); err != nil {
		return nil, wrapDBError("scan task", err)
	}
	t.SourceKind = EndpointKind(sourceKind)
	t.TargetKind = EndpointKind(targetKind)
	t.Status = TaskStatus(status)
	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, err
	}
	if runStartedAt.Valid && runStartedAt.String != "" {
		if t.RunStartedAt, err = time.Parse(time.RFC3339, runStartedAt.String); err != nil {
			return nil, err
		}
	}
	return &t, nil
}
