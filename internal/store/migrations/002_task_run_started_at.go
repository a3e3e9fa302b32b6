package migrations

import "database/sql"

// migrateTaskRunStartedAt adds the column that lets progress.Build
// compute speed/estimated_remaining_seconds against the actual start
// of the current run instead of the task's last-updated timestamp,
// which drifts on every progress update (spec §4.F).
func migrateTaskRunStartedAt(db *sql.DB) error {
	_, err := db.Exec(`ALTER TABLE sync_tasks ADD COLUMN run_started_at TEXT`)
	return err
}
