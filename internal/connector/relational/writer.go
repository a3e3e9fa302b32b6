package relational

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/replicator/replicator/internal/connector/typemap"
	"github.com/replicator/replicator/internal/model"
	"github.com/replicator/replicator/internal/rlog"
)

// maxBoundParams is MySQL's protocol ceiling on bound parameters for a
// single prepared statement (spec §4.C). A multi-row INSERT is split
// so no single statement exceeds it.
const maxBoundParams = 65535

// Writer lands batches into one MySQL-family table.
type Writer struct {
	cfg      Config
	strategy model.TargetExistsStrategy
	db       *sql.DB
	schema   model.SchemaInfo

	insertCols []string
	droppedBin map[string]bool
	tableReady bool // false when CREATE TABLE is still deferred to the first batch
}

func NewWriter(cfg Config, strategy model.TargetExistsStrategy) *Writer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Writer{cfg: cfg, strategy: strategy, droppedBin: map[string]bool{}}
}

func (w *Writer) Open(ctx context.Context) error {
	db, err := dial(ctx, w.cfg.DSN)
	if err != nil {
		return err
	}
	if err := createDatabaseIfMissing(ctx, db, w.cfg.Database); err != nil {
		db.Close()
		return err
	}
	w.db = db
	return nil
}

// PrepareTarget realizes drop/truncate/backup against schema, matching
// spec §4.D's three strategies exactly. A schemaless source (the search
// reader never populates SchemaInfo.Fields) defers CREATE TABLE until
// WriteBatch sees a first record and can infer column names — issuing
// CREATE TABLE with zero columns here would be invalid DDL.
func (w *Writer) PrepareTarget(ctx context.Context, schema model.SchemaInfo) error {
	w.schema = schema
	exists, err := tableExists(ctx, w.db, w.cfg.Database, w.cfg.Table)
	if err != nil {
		return err
	}

	switch w.strategy {
	case model.TargetDrop:
		if exists {
			if err := w.dropTable(ctx, w.cfg.Table); err != nil {
				return err
			}
			exists = false
		}

	case model.TargetTruncate:
		if exists {
			_, err := w.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE `%s`.`%s`", w.cfg.Database, w.cfg.Table))
			if err != nil {
				return fmt.Errorf("relational: truncate_target: %w", err)
			}
			w.tableReady = true
			return nil
		}

	case model.TargetBackup:
		if exists {
			backupName := fmt.Sprintf("%s_backup_%s", w.cfg.Table, backupSuffix())
			_, err := w.db.ExecContext(ctx, fmt.Sprintf("RENAME TABLE `%s`.`%s` TO `%s`.`%s`",
				w.cfg.Database, w.cfg.Table, w.cfg.Database, backupName))
			if err != nil {
				return fmt.Errorf("relational: backup_target: %w", err)
			}
			rlog.Logger.Info().Str("backup_table", backupName).Msg("relational: renamed existing target for backup")
			exists = false
		}

	default:
		return fmt.Errorf("relational: unknown target-exists strategy %q", w.strategy)
	}

	if exists {
		w.tableReady = true
		return nil
	}
	if len(schema.Fields) == 0 {
		// Create the table lazily from the first batch's field shape.
		return nil
	}
	if err := w.createTable(ctx, schema); err != nil {
		return err
	}
	w.tableReady = true
	return nil
}

func (w *Writer) dropTable(ctx context.Context, name string) error {
	_, err := w.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS `%s`.`%s`", w.cfg.Database, name))
	if err != nil {
		return fmt.Errorf("relational: drop_target: %w", err)
	}
	return nil
}

func (w *Writer) createTable(ctx context.Context, schema model.SchemaInfo) error {
	var cols []string
	w.insertCols = nil
	for _, f := range schema.Fields {
		colType := typemap.NeutralToRelational(f)
		def := fmt.Sprintf("`%s` %s", f.Name, colType)
		if !f.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
		w.insertCols = append(w.insertCols, f.Name)
	}
	if schema.HasPrimaryKey() {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (`%s`)", schema.PrimaryKey))
	}
	stmt := fmt.Sprintf("CREATE TABLE `%s`.`%s` (%s) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		w.cfg.Database, w.cfg.Table, strings.Join(cols, ", "))
	if _, err := w.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("relational: create_target: %w", err)
	}
	return nil
}

// inferSchemaFromRecord builds a SchemaInfo from one record's field
// shape, used when the source is schemaless (spec §4.C: a search-origin
// unit has no declared columns, so the target table is shaped by its
// first batch instead of a discovered schema).
func inferSchemaFromRecord(rec model.Record) model.SchemaInfo {
	var schema model.SchemaInfo
	for name, v := range rec.Fields {
		schema.Fields = append(schema.Fields, model.FieldInfo{
			Name:     name,
			Type:     neutralKindOf(v.Kind),
			Nullable: true,
		})
	}
	return schema
}

func neutralKindOf(k model.FieldKind) model.FieldType {
	switch k {
	case model.KindBool:
		return model.FieldBool
	case model.KindInt64:
		return model.FieldInt
	case model.KindFloat64:
		return model.FieldFloat
	case model.KindDatetime:
		return model.FieldDatetime
	case model.KindJSON:
		return model.FieldJSON
	case model.KindBinary:
		return model.FieldBinary
	default:
		return model.FieldText
	}
}

// WriteBatch inserts records, splitting into multiple statements so no
// single INSERT exceeds maxBoundParams bound parameters.
func (w *Writer) WriteBatch(ctx context.Context, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}
	if !w.tableReady {
		if err := w.createTable(ctx, inferSchemaFromRecord(records[0])); err != nil {
			return err
		}
		w.tableReady = true
	}
	if w.insertCols == nil {
		for name := range records[0].Fields {
			w.insertCols = append(w.insertCols, name)
		}
	}
	for _, chunk := range splitIntoChunks(records, len(w.insertCols), maxBoundParams) {
		if err := w.insertChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// splitIntoChunks partitions records so that no chunk's single INSERT
// statement would bind more than maxParams parameters, given numCols
// bound values per row (spec §4.C, Testable Property 7).
func splitIntoChunks(records []model.Record, numCols, maxParams int) [][]model.Record {
	if len(records) == 0 {
		return nil
	}
	rowsPerStmt := maxParams / numCols
	if rowsPerStmt < 1 {
		rowsPerStmt = 1
	}
	var chunks [][]model.Record
	for start := 0; start < len(records); start += rowsPerStmt {
		end := start + rowsPerStmt
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

func (w *Writer) insertChunk(ctx context.Context, chunk []model.Record) error {
	placeholders := make([]string, 0, len(chunk))
	args := make([]any, 0, len(chunk)*len(w.insertCols))

	for _, rec := range chunk {
		ph := make([]string, len(w.insertCols))
		for i, col := range w.insertCols {
			ph[i] = "?"
			v, err := toDriverValue(rec, col, w)
			if err != nil {
				return fmt.Errorf("relational: write_batch: %w", err)
			}
			args = append(args, v)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
	}

	quoted := make([]string, len(w.insertCols))
	for i, c := range w.insertCols {
		quoted[i] = "`" + c + "`"
	}
	stmt := fmt.Sprintf("INSERT INTO `%s`.`%s` (%s) VALUES %s",
		w.cfg.Database, w.cfg.Table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	_, err := w.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return fmt.Errorf("relational: duplicate_target_row: %w", err)
		}
		return fmt.Errorf("relational: write_batch: %w", err)
	}
	return nil
}

func toDriverValue(rec model.Record, col string, w *Writer) (any, error) {
	v, ok := rec.Get(col)
	if !ok || v.IsNull() {
		return nil, nil
	}
	switch v.Kind {
	case model.KindBool:
		return v.Bool, nil
	case model.KindInt64:
		return v.Int64, nil
	case model.KindFloat64:
		return v.Float64, nil
	case model.KindText:
		return v.Text, nil
	case model.KindDatetime:
		return v.Time.Format("2006-01-02 15:04:05"), nil
	case model.KindJSON:
		enc, err := json.Marshal(v.JSON)
		if err != nil {
			return nil, fmt.Errorf("marshal json column %q: %w", col, err)
		}
		return enc, nil
	case model.KindBinary:
		// Relational targets can represent bytes directly; only the
		// search writer drops binary fields (spec §4.B).
		return v.Binary, nil
	default:
		return nil, nil
	}
}

// DroppedBinaryFields implements connector.DroppedBinaryFieldLogger.
// A relational target never drops binary fields, so this is always empty.
func (w *Writer) DroppedBinaryFields() []string { return nil }

func (w *Writer) Commit(ctx context.Context) error {
	// Each WriteBatch call already executes as an auto-committed
	// statement per chunk; there is no open transaction to finalize.
	return nil
}

func (w *Writer) Close(ctx context.Context) error {
	if w.db == nil {
		return nil
	}
	return w.db.Close()
}
