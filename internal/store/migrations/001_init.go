// Package migrations holds ordered schema-creation functions. Apply
// records each applied migration's name in a schema_migrations table
// and skips names already recorded, so re-running Apply against an
// already-migrated database is a no-op.
// New migrations are added as 00N_description.go files and appended
// to the All slice — never edited in place once shipped.
package migrations

import (
	"database/sql"
	"fmt"
)

// Migration is one forward-only schema step.
type Migration struct {
	Name string
	Run  func(db *sql.DB) error
}

// All is the ordered list of migrations applied by Apply.
var All = []Migration{
	{Name: "001_init", Run: migrateInit},
	{Name: "002_task_run_started_at", Run: migrateTaskRunStartedAt},
}

// Apply runs every migration in order, tracking progress in the
// schema_migrations table: migrations already recorded as applied are
// skipped.
func Apply(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`); err != nil {
		return fmt.Errorf("migrations: create tracking table: %w", err)
	}

	for _, m := range All {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE name = ?`, m.Name).Scan(&exists)
		if err == nil {
			continue // already applied
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("migrations: check %s: %w", m.Name, err)
		}
		if err := m.Run(db); err != nil {
			return fmt.Errorf("migrations: run %s: %w", m.Name, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations (name) VALUES (?)`, m.Name); err != nil {
			return fmt.Errorf("migrations: record %s: %w", m.Name, err)
		}
	}
	return nil
}

func migrateInit(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS datasources (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			host TEXT NOT NULL,
			port INTEGER NOT NULL,
			auth_blob TEXT NOT NULL DEFAULT '',
			default_database TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sync_tasks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			source_id TEXT NOT NULL REFERENCES datasources(id),
			target_id TEXT NOT NULL REFERENCES datasources(id),
			source_kind TEXT NOT NULL,
			target_kind TEXT NOT NULL,
			config_json TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS task_unit_config (
			task_id TEXT NOT NULL REFERENCES sync_tasks(id) ON DELETE CASCADE,
			unit_name TEXT NOT NULL,
			unit_type TEXT NOT NULL,
			search_pattern TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (task_id, unit_name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_unit_config_task ON task_unit_config(task_id)`,
		`CREATE TABLE IF NOT EXISTS task_unit_runtime (
			task_id TEXT NOT NULL REFERENCES sync_tasks(id) ON DELETE CASCADE,
			unit_name TEXT NOT NULL,
			status TEXT NOT NULL,
			total_records INTEGER NOT NULL DEFAULT 0,
			processed_records INTEGER NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT '',
			started_at INTEGER,
			last_processed_batch INTEGER NOT NULL DEFAULT 0,
			retry_count INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (task_id, unit_name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_unit_runtime_task ON task_unit_runtime(task_id)`,
		`CREATE TABLE IF NOT EXISTS task_unit_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL REFERENCES sync_tasks(id) ON DELETE CASCADE,
			unit_name TEXT NOT NULL,
			search_pattern TEXT NOT NULL DEFAULT '',
			total_records INTEGER NOT NULL DEFAULT 0,
			completed_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_unit_history_task ON task_unit_history(task_id)`,
		`CREATE INDEX IF NOT EXISTS idx_task_unit_history_task_unit ON task_unit_history(task_id, unit_name)`,
		`CREATE TABLE IF NOT EXISTS synced_indices (
			source_id TEXT NOT NULL,
			unit_name TEXT NOT NULL,
			first_synced_at INTEGER NOT NULL,
			last_synced_at INTEGER NOT NULL,
			sync_count INTEGER NOT NULL DEFAULT 0,
			last_task_id TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (source_id, unit_name)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}
