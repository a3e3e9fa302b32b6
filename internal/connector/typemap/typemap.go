// Package typemap implements the bidirectional type mapping between
// relational column types and search field types (spec §4.C), and the
// primary-key-to-_id coercion rule for search targets. Grounded on
// original_source/src-tauri/src/type_mapper.rs — same mapping table,
// reimplemented as idiomatic Go rather than translated.
package typemap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/replicator/replicator/internal/model"
)

// RelationalToNeutral maps a MySQL-family declared type (with any
// length/precision suffix, e.g. "VARCHAR(255)" or "TINYINT(1)") to the
// neutral FieldType.
func RelationalToNeutral(rawType string) model.FieldType {
	base := strings.ToUpper(rawType)
	if i := strings.IndexByte(base, '('); i >= 0 {
		// TINYINT(1) is the MySQL convention for boolean.
		if strings.HasPrefix(base, "TINYINT(1)") {
			return model.FieldBool
		}
		base = base[:i]
	}
	switch base {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "BIT":
		return model.FieldInt
	case "FLOAT", "DOUBLE", "DECIMAL", "NUMERIC", "REAL":
		return model.FieldFloat
	case "DATE", "DATETIME", "TIMESTAMP":
		return model.FieldDatetime
	case "TIME", "YEAR", "ENUM", "SET", "VARCHAR", "CHAR":
		return model.FieldText
	case "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT":
		return model.FieldText
	case "JSON":
		return model.FieldJSON
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY":
		return model.FieldBinary
	case "BOOL", "BOOLEAN":
		return model.FieldBool
	default:
		return model.FieldText
	}
}

// NeutralToSearch maps a neutral field type to an Elasticsearch-family
// mapping type.
func NeutralToSearch(t model.FieldType) string {
	switch t {
	case model.FieldBool:
		return "boolean"
	case model.FieldInt:
		return "long"
	case model.FieldFloat:
		return "double"
	case model.FieldDatetime:
		return "date"
	case model.FieldJSON:
		return "object"
	case model.FieldBinary:
		return "binary"
	default:
		return "keyword"
	}
}

// SearchToRelational returns the conservative relational column type
// for a search field type (spec §4.C: "Search → Relational returns
// conservative widths").
func SearchToRelational(searchType string) string {
	switch strings.ToLower(searchType) {
	case "long", "integer", "short", "byte":
		return "BIGINT"
	case "double", "float", "half_float", "scaled_float":
		return "DOUBLE"
	case "date":
		return "DATETIME"
	case "boolean":
		return "BOOLEAN"
	case "object", "nested":
		return "JSON"
	case "text":
		return "TEXT"
	case "keyword":
		return "VARCHAR(255)"
	case "binary":
		return "BLOB"
	default:
		return "VARCHAR(255)"
	}
}

// NeutralToRelational picks a concrete column type for CREATE TABLE
// from a discovered field: the endpoint's own declared type when the
// field originated at a relational source (RawType is already valid
// MySQL DDL), otherwise the conservative width for its neutral kind —
// this is what lets a search-origin schema land on a relational target.
func NeutralToRelational(f model.FieldInfo) string {
	if f.RawType != "" {
		return f.RawType
	}
	switch f.Type {
	case model.FieldInt:
		return "BIGINT"
	case model.FieldFloat:
		return "DOUBLE"
	case model.FieldDatetime:
		return "DATETIME"
	case model.FieldBool:
		return "BOOLEAN"
	case model.FieldJSON:
		return "JSON"
	case model.FieldBinary:
		return "BLOB"
	default:
		if f.Length > 0 && f.Length <= 4000 {
			return fmt.Sprintf("VARCHAR(%d)", f.Length)
		}
		return "TEXT"
	}
}

// PrimaryKeyToID stringifies a source record's primary-key field for
// use as a search target's _id: strings pass through, numbers/bools
// take their canonical textual form, and a null/absent key gets a
// freshly generated UUID so every document still gets a unique id (a
// new one on every call).
func PrimaryKeyToID(v model.FieldValue) string {
	switch v.Kind {
	case model.KindText:
		return v.Text
	case model.KindInt64:
		return strconv.FormatInt(v.Int64, 10)
	case model.KindFloat64:
		return strconv.FormatFloat(v.Float64, 'g', -1, 64)
	case model.KindBool:
		return strconv.FormatBool(v.Bool)
	case model.KindDatetime:
		return v.Time.UTC().Format("2006-01-02T15:04:05.000Z")
	case model.KindJSON:
		return fmt.Sprintf("%v", v.JSON)
	default: // null, absent, or binary (shouldn't reach a primary key)
		return uuid.NewString()
	}
}
