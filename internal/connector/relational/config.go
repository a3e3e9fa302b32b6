// Package relational implements the Reader/Writer contracts for
// MySQL-family endpoints over github.com/go-sql-driver/mysql. Schema
// discovery queries information_schema directly (spec §4.C), matching
// the explicit-SQL style of the teacher's internal/storage/sqlite
// query layer rather than hiding it behind an ORM.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"

	"github.com/replicator/replicator/internal/rlog"
)

// Config identifies one relational unit (database.table) and the
// connection used to reach it.
type Config struct {
	DSN       string // e.g. "user:pass@tcp(host:3306)/"
	Database  string
	Table     string
	BatchSize int
}

// dial opens a *sql.DB and verifies connectivity with a bounded
// retry/backoff loop, matching the teacher's dolt store's use of
// cenkalti/backoff for connection establishment.
func dial(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("relational: open: %w", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	pingErr := backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, b)
	if pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("relational: connect_failed: %w", pingErr)
	}
	return db, nil
}

func databaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx,
		`SELECT 1 FROM information_schema.schemata WHERE schema_name = ?`, name).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("relational: check database exists: %w", err)
	}
	return true, nil
}

func createDatabaseIfMissing(ctx context.Context, db *sql.DB, name string) error {
	ok, err := databaseExists(ctx, db, name)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4", name))
	if err != nil {
		return fmt.Errorf("relational: create database %s: %w", name, err)
	}
	rlog.Logger.Info().Str("database", name).Msg("relational: created target database")
	return nil
}

func tableExists(ctx context.Context, db *sql.DB, database, table string) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx, `
		SELECT 1 FROM information_schema.tables WHERE table_schema = ? AND table_name = ?`,
		database, table).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("relational: check table exists: %w", err)
	}
	return true, nil
}

func backupSuffix() string {
	return time.Now().UTC().Format("20060102150405")
}
