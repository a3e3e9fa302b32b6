package store

import (
	"context"
	"database/sql"
	"time"
)

// MarkSynced upserts the cross-task ledger row for (source_id,
// unit_name): first write sets first_synced_at, every write bumps
// sync_count and last_synced_at (Testable Property 4: ledger
// monotonicity — neither ever decreases).
func (s *Store) MarkSynced(ctx context.Context, sourceID, unitName, taskID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().UnixMilli()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO synced_indices (source_id, unit_name, first_synced_at, last_synced_at, sync_count, last_task_id)
			VALUES (?, ?, ?, ?, 1, ?)
			ON CONFLICT(source_id, unit_name) DO UPDATE SET
				last_synced_at = excluded.last_synced_at,
				sync_count = sync_count + 1,
				last_task_id = excluded.last_task_id
		`, sourceID, unitName, now, now, taskID)
		return wrapDBError("mark synced", err)
	})
}

// IsSynced reports whether (source_id, unit_name) has ever been
// synced by any task.
func (s *Store) IsSynced(ctx context.Context, sourceID, unitName string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM synced_indices WHERE source_id = ? AND unit_name = ?`, sourceID, unitName).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, wrapDBError("is synced", err)
	}
	return true, nil
}

// ListSynced returns every ledger entry for a source.
func (s *Store) ListSynced(ctx context.Context, sourceID string) ([]SyncedIndex, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, unit_name, first_synced_at, last_synced_at, sync_count, last_task_id
		FROM synced_indices WHERE source_id = ? ORDER BY unit_name`, sourceID)
	if err != nil {
		return nil, wrapDBError("list synced", err)
	}
	defer rows.Close()

	var out []SyncedIndex
	for rows.Next() {
		var e SyncedIndex
		var first, last int64
		if err := rows.Scan(&e.SourceID, &e.UnitName, &first, &last, &e.SyncCount, &e.LastTaskID); err != nil {
			return nil, wrapDBError("list synced", err)
		}
		e.FirstSyncedAt = time.UnixMilli(first).UTC()
		e.LastSyncedAt = time.UnixMilli(last).UTC()
		out = append(out, e)
	}
	return out, wrapDBError("list synced", rows.Err())
}

// ClearLedgerEntry removes one (source_id, unit_name) ledger row,
// making that unit eligible for cross-task dedup skipping again.
func (s *Store) ClearLedgerEntry(ctx context.Context, sourceID, unitName string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM synced_indices WHERE source_id = ? AND unit_name = ?`, sourceID, unitName)
		if err != nil {
			return wrapDBError("clear ledger entry", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("clear ledger entry", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ClearLedgerAll removes every ledger row for a source.
func (s *Store) ClearLedgerAll(ctx context.Context, sourceID string) (int, error) {
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM synced_indices WHERE source_id = ?`, sourceID)
		if err != nil {
			return wrapDBError("clear ledger all", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("clear ledger all", err)
		}
		count = int(n)
		return nil
	})
	return count, err
}
