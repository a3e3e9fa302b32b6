package model

// FieldType is the neutral column/field type a reader discovers and a
// writer maps into its own endpoint's type system.
type FieldType string

const (
	FieldBool     FieldType = "bool"
	FieldInt      FieldType = "int"
	FieldFloat    FieldType = "float"
	FieldText     FieldType = "text"
	FieldDatetime FieldType = "datetime"
	FieldJSON     FieldType = "json"
	FieldBinary   FieldType = "binary"
)

// FieldInfo describes one column/field of a unit's schema.
type FieldInfo struct {
	Name      string
	Type      FieldType
	Nullable  bool
	RawType   string // the endpoint's native declared type, e.g. "varchar(255)"
	Precision int    // meaningful for numeric/decimal types, else 0
	Length    int    // meaningful for text/char types, else 0
}

// SchemaInfo is an ordered list of fields plus the primary-key field
// name, if any. Order matters: writers that build a literal column
// list (CREATE TABLE, multi-row INSERT) iterate Fields in order.
type SchemaInfo struct {
	Fields     []FieldInfo
	PrimaryKey string // empty if the source has none
}

// FieldByName looks up a field by name, returning false if absent.
func (s SchemaInfo) FieldByName(name string) (FieldInfo, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// HasPrimaryKey reports whether the schema names a primary key field.
func (s SchemaInfo) HasPrimaryKey() bool { return s.PrimaryKey != "" }

// TargetExistsStrategy controls how a Writer reconciles an existing
// target table/index before streaming (spec §4.D). Shared between
// internal/store (persisted as part of TaskConfig) and internal/connector
// implementations so both sides agree on the same three values without
// either package importing the other.
type TargetExistsStrategy string

const (
	TargetDrop     TargetExistsStrategy = "drop"
	TargetTruncate TargetExistsStrategy = "truncate"
	TargetBackup   TargetExistsStrategy = "backup"
)
