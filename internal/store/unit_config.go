package store

import (
	"context"
	"database/sql"
)

// ReplaceUnitConfigs atomically replaces a task's unit config rows:
// inside one transaction, delete the existing rows then insert the
// provided ones, so there is never a window where the task has no
// units (spec §4.A).
func (s *Store) ReplaceUnitConfigs(ctx context.Context, taskID string, units []TaskUnitConfig) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_unit_config WHERE task_id = ?`, taskID); err != nil {
			return wrapDBError("replace unit configs: delete", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO task_unit_config (task_id, unit_name, unit_type, search_pattern)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return wrapDBError("replace unit configs: prepare", err)
		}
		defer stmt.Close()

		for _, u := range units {
			if _, err := stmt.ExecContext(ctx, taskID, u.UnitName, string(u.UnitType), u.SearchPattern); err != nil {
				return wrapDBError("replace unit configs: insert", err)
			}
		}
		return nil
	})
}

// ListUnitConfigs returns the configured units for a task, in the
// order they were inserted (insertion/rowid order, matching the
// traversal order dedup produced them in).
func (s *Store) ListUnitConfigs(ctx context.Context, taskID string) ([]TaskUnitConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, unit_name, unit_type, search_pattern
		FROM task_unit_config WHERE task_id = ? ORDER BY rowid`, taskID)
	if err != nil {
		return nil, wrapDBError("list unit configs", err)
	}
	defer rows.Close()

	var out []TaskUnitConfig
	for rows.Next() {
		var u TaskUnitConfig
		var unitType string
		if err := rows.Scan(&u.TaskID, &u.UnitName, &unitType, &u.SearchPattern); err != nil {
			return nil, wrapDBError("list unit configs", err)
		}
		u.UnitType = UnitType(unitType)
		out = append(out, u)
	}
	return out, wrapDBError("list unit configs", rows.Err())
}
