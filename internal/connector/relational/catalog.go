package relational

import (
	"context"
)

// systemSchemas are never surfaced to list_databases — they hold
// MySQL's own bookkeeping, never user data.
var systemSchemas = map[string]bool{
	"information_schema": true,
	"mysql":              true,
	"performance_schema": true,
	"sys":                true,
}

// Ping verifies a DSN is reachable and authenticates, without
// selecting any particular database (spec §6 test_connection).
func Ping(ctx context.Context, dsn string) error {
	db, err := dial(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return nil
}

// ListDatabases returns every non-system schema visible to dsn's
// credentials, for spec §6's list_databases.
func ListDatabases(ctx context.Context, dsn string) ([]string, error) {
	db, err := dial(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT schema_name FROM information_schema.schemata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if !systemSchemas[name] {
			out = append(out, name)
		}
	}
	return out, rows.Err()
}

// ListTables returns every base table in database, for spec §6's
// list_tables.
func ListTables(ctx context.Context, dsn, database string) ([]string, error) {
	db, err := dial(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`, database)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
