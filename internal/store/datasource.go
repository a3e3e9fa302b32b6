package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// UpsertDatasource inserts or replaces a datasource by ID. If ID is
// empty a new UUID is assigned.
func (s *Store) UpsertDatasource(ctx context.Context, ds *Datasource) error {
	if ds.ID == "" {
		ds.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO datasources (id, name, kind, host, port, auth_blob, default_database, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				kind = excluded.kind,
				host = excluded.host,
				port = excluded.port,
				auth_blob = excluded.auth_blob,
				default_database = excluded.default_database,
				updated_at = excluded.updated_at
		`, ds.ID, ds.Name, string(ds.Kind), ds.Host, ds.Port, ds.AuthBlob, ds.DefaultDatabase,
			ds.CreatedAt.Format(time.RFC3339), ds.UpdatedAt.Format(time.RFC3339))
		return wrapDBError("upsert datasource", err)
	})
}

// LoadDatasource returns the datasource by ID, or ErrNotFound.
func (s *Store) LoadDatasource(ctx context.Context, id string) (*Datasource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, host, port, auth_blob, default_database, created_at, updated_at
		FROM datasources WHERE id = ?`, id)
	return scanDatasource(row)
}

// ListDatasources returns all datasources, newest first.
func (s *Store) ListDatasources(ctx context.Context) ([]*Datasource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, host, port, auth_blob, default_database, created_at, updated_at
		FROM datasources ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapDBError("list datasources", err)
	}
	defer rows.Close()

	var out []*Datasource
	for rows.Next() {
		ds, err := scanDatasource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, wrapDBError("list datasources", rows.Err())
}

// DeleteDatasource removes a datasource by ID. Fails with ErrNotFound
// if the ID is absent.
func (s *Store) DeleteDatasource(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM datasources WHERE id = ?`, id)
		if err != nil {
			return wrapDBError("delete datasource", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("delete datasource", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDatasource(row rowScanner) (*Datasource, error) {
	var ds Datasource
	var kind, createdAt, updatedAt string
	if err := row.Scan(&ds.ID, &ds.Name, &kind, &ds.Host, &ds.Port, &ds.AuthBlob, &ds.DefaultDatabase, &createdAt, &updatedAt); err != nil {
		return nil, wrapDBError("scan datasource", err)
	}
	ds.Kind = EndpointKind(kind)
	var err error
	if ds.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, err
	}
	if ds.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, err
	}
	return &ds, nil
}
