//go:build integration
// +build integration

package relational

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/replicator/replicator/internal/model"
)

// TestRelationalConnectorAgainstLiveMySQL spins up a real MySQL server
// via testcontainers and exercises schema discovery, keyset paging,
// multi-row insert, and the drop and truncate PrepareTarget
// strategies against it end to end (spec §4.C). Run with
// `go test -tags integration ./internal/connector/relational/...`;
// skipped otherwise since it needs a working Docker daemon.
func TestRelationalConnectorAgainstLiveMySQL(t *testing.T) {
	ctx := context.Background()

	container, err := mysql.Run(ctx, "mysql:8.0.36",
		mysql.WithDatabase("source_db"),
		mysql.WithUsername("repl"),
		mysql.WithPassword("replpass"),
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	}()

	connStr, err := container.ConnectionString(ctx, "parseTime=true", "multiStatements=true")
	require.NoError(t, err)

	sourceCfg := Config{DSN: connStr, Database: "source_db", Table: "widgets", BatchSize: 2}

	setupDB, err := dial(ctx, connStr)
	require.NoError(t, err)
	_, err = setupDB.ExecContext(ctx, `
		CREATE TABLE widgets (
			id INT PRIMARY KEY AUTO_INCREMENT,
			name VARCHAR(64) NOT NULL,
			weight DOUBLE NULL
		)`)
	require.NoError(t, err)
	_, err = setupDB.ExecContext(ctx,
		"INSERT INTO widgets (name, weight) VALUES ('bolt', 1.5), ('nut', 0.5), ('washer', NULL)")
	require.NoError(t, err)
	require.NoError(t, setupDB.Close())

	reader := NewReader(sourceCfg)
	require.NoError(t, reader.Open(ctx))
	defer reader.Close(ctx)

	schema, err := reader.Schema(ctx)
	require.NoError(t, err)
	require.Equal(t, "id", schema.PrimaryKey)
	require.Len(t, schema.Fields, 3)

	total, err := reader.TotalCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)

	var all []model.Record
	for {
		batch, err := reader.ReadBatch(ctx, 0)
		require.NoError(t, err)
		all = append(all, batch...)
		if !reader.HasNext() {
			break
		}
	}
	require.Len(t, all, 3, "keyset paging across multiple batches should yield every row")

	targetCfg := Config{DSN: connStr, Database: "source_db", Table: "widgets_copy", BatchSize: 500}
	writer := NewWriter(targetCfg, model.TargetDrop)
	require.NoError(t, writer.Open(ctx))
	defer writer.Close(ctx)

	require.NoError(t, writer.PrepareTarget(ctx, schema))
	require.NoError(t, writer.WriteBatch(ctx, all))
	require.NoError(t, writer.Commit(ctx))

	verifyDB, err := dial(ctx, connStr)
	require.NoError(t, err)
	defer verifyDB.Close()

	var copied int
	require.NoError(t, verifyDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM widgets_copy").Scan(&copied))
	require.Equal(t, 3, copied)

	// Re-running PrepareTarget with TargetTruncate should empty the
	// table without erroring on the already-existing schema.
	writer2 := NewWriter(targetCfg, model.TargetTruncate)
	require.NoError(t, writer2.Open(ctx))
	defer writer2.Close(ctx)
	require.NoError(t, writer2.PrepareTarget(ctx, schema))

	var afterTruncate int
	require.NoError(t, verifyDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM widgets_copy").Scan(&afterTruncate))
	require.Equal(t, 0, afterTruncate)
}
