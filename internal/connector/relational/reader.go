package relational

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/replicator/replicator/internal/connector/typemap"
	"github.com/replicator/replicator/internal/model"
)

// Reader streams rows out of one MySQL-family table. It pages with a
// keyset cursor on the primary key when one exists, falling back to
// LIMIT/OFFSET with a deterministic ORDER BY otherwise (spec §4.C).
type Reader struct {
	cfg    Config
	db     *sql.DB
	schema model.SchemaInfo

	lastBatchFull bool
	offset        int64   // used when no primary key
	lastPK        any     // used for keyset paging
	started       bool
}

// NewReader constructs a Reader for cfg. No connection is made until Open.
func NewReader(cfg Config) *Reader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Reader{cfg: cfg}
}

func (r *Reader) Open(ctx context.Context) error {
	db, err := dial(ctx, r.cfg.DSN)
	if err != nil {
		return err
	}
	r.db = db
	return nil
}

func (r *Reader) Schema(ctx context.Context) (model.SchemaInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT column_name, column_type, is_nullable, character_maximum_length, numeric_precision
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, r.cfg.Database, r.cfg.Table)
	if err != nil {
		return model.SchemaInfo{}, fmt.Errorf("relational: schema_discovery_failed: %w", err)
	}
	defer rows.Close()

	var schema model.SchemaInfo
	for rows.Next() {
		var name, colType, nullable string
		var maxLen, precision sql.NullInt64
		if err := rows.Scan(&name, &colType, &nullable, &maxLen, &precision); err != nil {
			return model.SchemaInfo{}, fmt.Errorf("relational: schema_discovery_failed: %w", err)
		}
		schema.Fields = append(schema.Fields, model.FieldInfo{
			Name:      name,
			Type:      typemap.RelationalToNeutral(colType),
			Nullable:  nullable == "YES",
			RawType:   colType,
			Length:    int(maxLen.Int64),
			Precision: int(precision.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return model.SchemaInfo{}, fmt.Errorf("relational: schema_discovery_failed: %w", err)
	}
	if len(schema.Fields) == 0 {
		return model.SchemaInfo{}, fmt.Errorf("relational: schema_discovery_failed: table %s.%s has no columns", r.cfg.Database, r.cfg.Table)
	}

	pk, err := r.primaryKey(ctx)
	if err != nil {
		return model.SchemaInfo{}, err
	}
	schema.PrimaryKey = pk
	r.schema = schema
	return schema, nil
}

func (r *Reader) primaryKey(ctx context.Context) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `
		SELECT column_name FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position LIMIT 1`, r.cfg.Database, r.cfg.Table).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("relational: schema_discovery_failed: %w", err)
	}
	return name, nil
}

func (r *Reader) TotalCount(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM `%s`.`%s`", r.cfg.Database, r.cfg.Table)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("relational: total_count: %w", err)
	}
	return total, nil
}

func (r *Reader) ReadBatch(ctx context.Context, n int) ([]model.Record, error) {
	if n <= 0 {
		n = r.cfg.BatchSize
	}

	var query string
	var args []any
	if r.schema.HasPrimaryKey() {
		if !r.started {
			query = fmt.Sprintf("SELECT * FROM `%s`.`%s` ORDER BY `%s` LIMIT ?",
				r.cfg.Database, r.cfg.Table, r.schema.PrimaryKey)
			args = []any{n}
		} else {
			query = fmt.Sprintf("SELECT * FROM `%s`.`%s` WHERE `%s` > ? ORDER BY `%s` LIMIT ?",
				r.cfg.Database, r.cfg.Table, r.schema.PrimaryKey, r.schema.PrimaryKey)
			args = []any{r.lastPK, n}
		}
	} else {
		query = fmt.Sprintf("SELECT * FROM `%s`.`%s` ORDER BY `%s` LIMIT ? OFFSET ?",
			r.cfg.Database, r.cfg.Table, r.schema.Fields[0].Name)
		args = []any{n, r.offset}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("relational: read_batch: %w", err)
	}
	defer rows.Close()

	records, err := scanRows(rows, r.schema)
	if err != nil {
		return nil, fmt.Errorf("relational: read_batch: %w", err)
	}

	r.started = true
	r.lastBatchFull = len(records) == n
	if len(records) > 0 {
		if r.schema.HasPrimaryKey() {
			v, _ := records[len(records)-1].Get(r.schema.PrimaryKey)
			r.lastPK = pkToAny(v)
		} else {
			r.offset += int64(len(records))
		}
	}
	return records, nil
}

func (r *Reader) HasNext() bool { return r.lastBatchFull }

func (r *Reader) Close(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func pkToAny(v model.FieldValue) any {
	switch v.Kind {
	case model.KindInt64:
		return v.Int64
	case model.KindText:
		return v.Text
	case model.KindFloat64:
		return v.Float64
	default:
		return nil
	}
}

func scanRows(rows *sql.Rows, schema model.SchemaInfo) ([]model.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var out []model.Record
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := model.NewRecord()
		for i, col := range cols {
			fi, ok := schema.FieldByName(col)
			var ft model.FieldType = model.FieldText
			if ok {
				ft = fi.Type
			}
			rec.Set(col, coerce(vals[i], ft))
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// coerce converts a database/sql scan result (already driver-decoded
// as []byte/int64/float64/bool/time.Time/nil) into the declared
// neutral FieldType. An unparseable datetime falls back to text rather
// than failing the record, per spec §4.B option (a).
func coerce(v any, ft model.FieldType) model.FieldValue {
	if v == nil {
		return model.NullValue()
	}
	switch ft {
	case model.FieldBool:
		switch t := v.(type) {
		case bool:
			return model.BoolValue(t)
		case int64:
			return model.BoolValue(t != 0)
		case []byte:
			return model.BoolValue(len(t) == 1 && t[0] != 0)
		}
	case model.FieldInt:
		switch t := v.(type) {
		case int64:
			return model.IntValue(t)
		case []byte:
			return model.TextValue(string(t))
		}
	case model.FieldFloat:
		switch t := v.(type) {
		case float64:
			return model.FloatValue(t)
		case []byte:
			return model.TextValue(string(t))
		}
	case model.FieldDatetime:
		switch t := v.(type) {
		case time.Time:
			return model.DatetimeValue(t)
		case []byte:
			if parsed, err := time.Parse("2006-01-02 15:04:05", string(t)); err == nil {
				return model.DatetimeValue(parsed)
			}
			return model.TextValue(string(t))
		}
	case model.FieldBinary:
		if b, ok := v.([]byte); ok {
			return model.BinaryValue(b)
		}
	}
	switch t := v.(type) {
	case []byte:
		return model.TextValue(string(t))
	case string:
		return model.TextValue(t)
	case int64:
		return model.IntValue(t)
	case float64:
		return model.FloatValue(t)
	case bool:
		return model.BoolValue(t)
	case time.Time:
		return model.DatetimeValue(t)
	default:
		return model.TextValue(fmt.Sprintf("%v", t))
	}
}
