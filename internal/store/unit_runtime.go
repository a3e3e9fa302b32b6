package store

import (
	"context"
	"database/sql"
	"time"
)

// InitRuntimes reconciles task_unit_runtime against task_unit_config
// (spec §4.A): for each config row, preserve an existing
// {pending,failed} runtime, rewrite running->pending (treated as
// crashed mid-run), create pending for any config row with no
// runtime, and delete runtime rows whose unit is no longer configured.
// This makes Config⇒runtime closure (Testable Property 3) hold after
// every call.
func (s *Store) InitRuntimes(ctx context.Context, taskID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().UnixMilli()

		if _, err := tx.ExecContext(ctx, `
			UPDATE task_unit_runtime SET status = 'pending', updated_at = ?
			WHERE task_id = ? AND status = 'running'`, now, taskID); err != nil {
			return wrapDBError("init runtimes: reset running", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO task_unit_runtime (task_id, unit_name, status, total_records, processed_records, updated_at)
			SELECT c.task_id, c.unit_name, 'pending', 0, 0, ?
			FROM task_unit_config c
			LEFT JOIN task_unit_runtime r ON r.task_id = c.task_id AND r.unit_name = c.unit_name
			WHERE c.task_id = ? AND r.task_id IS NULL`, now, taskID); err != nil {
			return wrapDBError("init runtimes: create missing", err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM task_unit_runtime
			WHERE task_id = ? AND unit_name NOT IN (
				SELECT unit_name FROM task_unit_config WHERE task_id = ?
			)`, taskID, taskID); err != nil {
			return wrapDBError("init runtimes: prune orphans", err)
		}
		return nil
	})
}

// ListRuntimes returns all runtime rows for a task.
func (s *Store) ListRuntimes(ctx context.Context, taskID string) ([]TaskUnitRuntime, error) {
	rows, err := s.db.QueryContext(ctx, runtimeSelectSQL+` WHERE task_id = ?`, taskID)
	if err != nil {
		return nil, wrapDBError("list runtimes", err)
	}
	defer rows.Close()
	return scanRuntimes(rows)
}

// LoadRuntime returns one unit's runtime row, or ErrNotFound.
func (s *Store) LoadRuntime(ctx context.Context, taskID, unitName string) (*TaskUnitRuntime, error) {
	rows, err := s.db.QueryContext(ctx, runtimeSelectSQL+` WHERE task_id = ? AND unit_name = ?`, taskID, unitName)
	if err != nil {
		return nil, wrapDBError("load runtime", err)
	}
	defer rows.Close()
	all, err := scanRuntimes(rows)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNotFound
	}
	return &all[0], nil
}

// TryStartUnit performs the pending|failed -> running CAS transition.
// It returns (true, nil) if this caller won the race, (false, nil) if
// another runner already holds the unit or it is not eligible, and a
// non-nil error only on a store failure. This is the sole place that
// enforces at-most-one runner per (task_id, unit_name).
func (s *Store) TryStartUnit(ctx context.Context, taskID, unitName string) (bool, error) {
	var won bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx, `
			UPDATE task_unit_runtime
			SET status = 'running', started_at = ?, error_message = '', updated_at = ?
			WHERE task_id = ? AND unit_name = ? AND status IN ('pending', 'failed')`,
			now.UnixMilli(), now.UnixMilli(), taskID, unitName)
		if err != nil {
			return wrapDBError("try start unit", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("try start unit", err)
		}
		won = n == 1
		return nil
	})
	return won, err
}

// UpdateRuntimeProgress sets total/processed record counters.
func (s *Store) UpdateRuntimeProgress(ctx context.Context, taskID, unitName string, total, processed int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE task_unit_runtime SET total_records = ?, processed_records = ?, updated_at = ?
			WHERE task_id = ? AND unit_name = ?`,
			total, processed, time.Now().UTC().UnixMilli(), taskID, unitName)
		return wrapDBError("update runtime progress", err)
	})
}

// UpdateRuntimeBatchCursor records the last fully-written batch index
// in last_processed_batch. The engine does not call it, and no reader
// resumes from it: a paused unit starts again from its first record.
func (s *Store) UpdateRuntimeBatchCursor(ctx context.Context, taskID, unitName string, batchIndex int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE task_unit_runtime SET last_processed_batch = ?, updated_at = ?
			WHERE task_id = ? AND unit_name = ?`,
			batchIndex, time.Now().UTC().UnixMilli(), taskID, unitName)
		return wrapDBError("update runtime batch cursor", err)
	})
}

// SetUnitPaused transitions running -> pending while preserving
// progress (spec §4.E cancellation outcome).
func (s *Store) SetUnitPaused(ctx context.Context, taskID, unitName string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE task_unit_runtime SET status = 'pending', updated_at = ?
			WHERE task_id = ? AND unit_name = ?`,
			time.Now().UTC().UnixMilli(), taskID, unitName)
		return wrapDBError("set unit paused", err)
	})
}

// SetUnitFailed transitions running -> failed with a trimmed error
// message. It leaves retry_count unchanged; the count is incremented
// on reset, not on failure (see ResetFailedUnits).
func (s *Store) SetUnitFailed(ctx context.Context, taskID, unitName, errMsg string) error {
	const maxErrLen = 2000
	if len(errMsg) > maxErrLen {
		errMsg = errMsg[:maxErrLen]
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE task_unit_runtime SET status = 'failed', error_message = ?, updated_at = ?
			WHERE task_id = ? AND unit_name = ?`,
			errMsg, time.Now().UTC().UnixMilli(), taskID, unitName)
		return wrapDBError("set unit failed", err)
	})
}

// ResetFailedUnits transitions every failed unit of a task back to
// pending, clearing the error message and bumping retry_count, so the
// user can re-run. Returns the number of units reset.
func (s *Store) ResetFailedUnits(ctx context.Context, taskID string) (int, error) {
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE task_unit_runtime
			SET status = 'pending', error_message = '', retry_count = retry_count + 1, updated_at = ?
			WHERE task_id = ? AND status = 'failed'`,
			time.Now().UTC().UnixMilli(), taskID)
		if err != nil {
			return wrapDBError("reset failed units", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("reset failed units", err)
		}
		count = int(n)
		return nil
	})
	return count, err
}

// MoveRuntimeToHistory atomically inserts a history row (carrying the
// runtime's total_records) and deletes the runtime row, so a unit
// never simultaneously has both (Testable Property 2).
func (s *Store) MoveRuntimeToHistory(ctx context.Context, taskID, unitName, searchPattern string, durationMS int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var total int64
		err := tx.QueryRowContext(ctx, `
			SELECT total_records FROM task_unit_runtime WHERE task_id = ? AND unit_name = ?`,
			taskID, unitName).Scan(&total)
		if err != nil {
			return wrapDBError("move runtime to history: read", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO task_unit_history (task_id, unit_name, search_pattern, total_records, completed_at, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			taskID, unitName, searchPattern, total, time.Now().UTC().UnixMilli(), durationMS); err != nil {
			return wrapDBError("move runtime to history: insert", err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM task_unit_runtime WHERE task_id = ? AND unit_name = ?`, taskID, unitName); err != nil {
			return wrapDBError("move runtime to history: delete", err)
		}
		return nil
	})
}

const runtimeSelectSQL = `
	SELECT task_id, unit_name, status, total_records, processed_records, error_message,
	       started_at, last_processed_batch, retry_count, updated_at
	FROM task_unit_runtime`

func scanRuntimes(rows *sql.Rows) ([]TaskUnitRuntime, error) {
	var out []TaskUnitRuntime
	for rows.Next() {
		var r TaskUnitRuntime
		var status string
		var startedAt sql.NullInt64
		var updatedAt int64
		if err := rows.Scan(&r.TaskID, &r.UnitName, &status, &r.TotalRecords, &r.ProcessedRecords,
			&r.ErrorMessage, &startedAt, &r.LastProcessedBatch, &r.RetryCount, &updatedAt); err != nil {
			return nil, wrapDBError("scan runtime", err)
		}
		r.Status = UnitStatus(status)
		r.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		if startedAt.Valid {
			t := time.UnixMilli(startedAt.Int64).UTC()
			r.StartedAt = &t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("scan runtime", err)
	}
	return out, nil
}
