package store

import (
	"context"
	"database/sql"
	"time"
)

// ListHistory returns every completed-unit record for a task.
func (s *Store) ListHistory(ctx context.Context, taskID string) ([]TaskUnitHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, unit_name, search_pattern, total_records, completed_at, duration_ms
		FROM task_unit_history WHERE task_id = ? ORDER BY completed_at`, taskID)
	if err != nil {
		return nil, wrapDBError("list history", err)
	}
	defer rows.Close()

	var out []TaskUnitHistory
	for rows.Next() {
		var h TaskUnitHistory
		var completedAt int64
		if err := rows.Scan(&h.ID, &h.TaskID, &h.UnitName, &h.SearchPattern, &h.TotalRecords, &completedAt, &h.DurationMS); err != nil {
			return nil, wrapDBError("list history", err)
		}
		h.CompletedAt = time.UnixMilli(completedAt).UTC()
		out = append(out, h)
	}
	return out, wrapDBError("list history", rows.Err())
}

// CompletedUnitNames returns the set of unit names that already have a
// history row for this task, used by the scheduler's completion filter
// (spec §4.E) to make re-running a task idempotent.
func (s *Store) CompletedUnitNames(ctx context.Context, taskID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT unit_name FROM task_unit_history WHERE task_id = ?`, taskID)
	if err != nil {
		return nil, wrapDBError("completed unit names", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapDBError("completed unit names", err)
		}
		out[name] = true
	}
	return out, wrapDBError("completed unit names", rows.Err())
}

// ClearHistoryByKeyword deletes history rows for a task whose
// search_pattern matches keyword, so those units are eligible to run
// again on the next scheduling pass. Returns the number of rows removed.
func (s *Store) ClearHistoryByKeyword(ctx context.Context, taskID, keyword string) (int, error) {
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM task_unit_history WHERE task_id = ? AND search_pattern = ?`, taskID, keyword)
		if err != nil {
			return wrapDBError("clear history by keyword", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("clear history by keyword", err)
		}
		count = int(n)
		return nil
	})
	return count, err
}
