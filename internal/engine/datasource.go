package engine

import (
	"context"
	"fmt"
	"path"

	"github.com/replicator/replicator/internal/connector/relational"
	"github.com/replicator/replicator/internal/connector/search"
	"github.com/replicator/replicator/internal/progress"
	"github.com/replicator/replicator/internal/store"
)

// ListDatasources returns every configured datasource.
func (e *Engine) ListDatasources(ctx context.Context) ([]*store.Datasource, error) {
	return e.Store.ListDatasources(ctx)
}

// GetDatasource returns one datasource by ID.
func (e *Engine) GetDatasource(ctx context.Context, id string) (*store.Datasource, error) {
	return e.Store.LoadDatasource(ctx, id)
}

// CreateDatasource seals creds into ds.AuthBlob and persists ds,
// assigning a fresh ID.
func (e *Engine) CreateDatasource(ctx context.Context, ds *store.Datasource, creds Credentials) (*store.Datasource, error) {
	ds.ID = ""
	sealed, err := e.sealCredentials(creds)
	if err != nil {
		return nil, err
	}
	ds.AuthBlob = sealed
	if err := e.Store.UpsertDatasource(ctx, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// UpdateDatasource persists ds. When creds is non-nil its contents
// replace the stored credentials; a nil creds leaves AuthBlob as ds
// already carries it (so callers can update non-credential fields
// without re-submitting a password).
func (e *Engine) UpdateDatasource(ctx context.Context, ds *store.Datasource, creds *Credentials) error {
	if creds != nil {
		sealed, err := e.sealCredentials(*creds)
		if err != nil {
			return err
		}
		ds.AuthBlob = sealed
	}
	return e.Store.UpsertDatasource(ctx, ds)
}

// DeleteDatasource removes a datasource by ID.
func (e *Engine) DeleteDatasource(ctx context.Context, id string) error {
	return e.Store.DeleteDatasource(ctx, id)
}

func relationalDSN(ds *store.Datasource, creds Credentials) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/", creds.Username, creds.Password, ds.Host, ds.Port)
}

func (e *Engine) relationalConfig(ctx context.Context, ds *store.Datasource, database, table string, batchSize int) (relational.Config, error) {
	creds, err := e.openCredentials(ds)
	if err != nil {
		return relational.Config{}, err
	}
	return relational.Config{
		DSN:       relationalDSN(ds, creds),
		Database:  database,
		Table:     table,
		BatchSize: batchSize,
	}, nil
}

func (e *Engine) searchConfig(ctx context.Context, ds *store.Datasource, index string, batchSize int) (search.Config, error) {
	creds, err := e.openCredentials(ds)
	if err != nil {
		return search.Config{}, err
	}
	return search.Config{
		Addresses: []string{fmt.Sprintf("http://%s:%d", ds.Host, ds.Port)},
		Username:  creds.Username,
		Password:  creds.Password,
		Index:     index,
		BatchSize: batchSize,
	}, nil
}

// TestConnection dials ds and publishes a connection-test-step event
// per step (spec §6), returning the same steps for a synchronous
// caller that doesn't want to subscribe to the bus.
func (e *Engine) TestConnection(ctx context.Context, ds *store.Datasource) []progress.ConnectionTestStep {
	var steps []progress.ConnectionTestStep
	publish := func(name string, err error) {
		step := progress.ConnectionTestStep{Name: name, OK: err == nil}
		if err != nil {
			step.Message = err.Error()
		}
		steps = append(steps, step)
		if e.Bus != nil {
			e.Bus.Publish(progress.Event{Type: progress.EventConnectionTestStep, Step: &step})
		}
	}

	creds, err := e.openCredentials(ds)
	if err != nil {
		publish("credentials", err)
		return steps
	}

	switch ds.Kind {
	case store.KindRelational:
		err := relational.Ping(ctx, relationalDSN(ds, creds))
		publish("connect_and_auth", err)
	case store.KindSearch:
		cfg, cfgErr := e.searchConfig(ctx, ds, "", 0)
		if cfgErr != nil {
			publish("connect_and_auth", cfgErr)
			return steps
		}
		err := search.Ping(ctx, cfg)
		publish("connect_and_auth", err)
	default:
		publish("connect_and_auth", fmt.Errorf("engine: unknown datasource kind %q", ds.Kind))
	}
	return steps
}

// ListDatabases returns a relational datasource's non-system schemas
// (spec §6 list_databases). Only meaningful for KindRelational.
func (e *Engine) ListDatabases(ctx context.Context, ds *store.Datasource) ([]string, error) {
	creds, err := e.openCredentials(ds)
	if err != nil {
		return nil, err
	}
	return relational.ListDatabases(ctx, relationalDSN(ds, creds))
}

// ListTables returns a relational datasource's base tables within
// database (spec §6 list_tables).
func (e *Engine) ListTables(ctx context.Context, ds *store.Datasource, database string) ([]string, error) {
	creds, err := e.openCredentials(ds)
	if err != nil {
		return nil, err
	}
	return relational.ListTables(ctx, relationalDSN(ds, creds), database)
}

// ListIndices returns a search datasource's indices, optionally
// narrowed by a glob pattern (spec §6: "pattern-match indices (glob
// * ? .)"). An empty pattern returns every index.
func (e *Engine) ListIndices(ctx context.Context, ds *store.Datasource, pattern string) ([]string, error) {
	cfg, err := e.searchConfig(ctx, ds, "", 0)
	if err != nil {
		return nil, err
	}
	all, err := search.ListIndices(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return matchAny(all, pattern)
}

// matchAny narrows names to those matching pattern (stdlib path.Match:
// *, ?, and literal characters including '.' — spec §6's "glob
// * ? ."). An empty pattern matches everything. Split out as a pure
// function so the filtering logic is testable without a live cluster
// to enumerate indices from.
func matchAny(names []string, pattern string) ([]string, error) {
	if pattern == "" {
		return names, nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		matched, err := path.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("engine: invalid glob pattern %q: %w", pattern, err)
		}
		if matched {
			out = append(out, name)
		}
	}
	return out, nil
}
