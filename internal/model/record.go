// Package model defines the neutral record and schema types exchanged
// between connectors. It is storage-neutral: it must not import
// internal/connector or internal/store.
package model

import (
	"reflect"
	"time"
)

// FieldKind identifies the variant held by a FieldValue.
type FieldKind int

const (
	KindNull FieldKind = iota
	KindBool
	KindInt64
	KindFloat64
	KindText
	KindDatetime
	KindJSON
	KindBinary
)

func (k FieldKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt64:
		return "int"
	case KindFloat64:
		return "float"
	case KindText:
		return "text"
	case KindDatetime:
		return "datetime"
	case KindJSON:
		return "json"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// FieldValue is a tagged union over the value kinds the replication
// engine moves between endpoints. Only the field matching Kind is
// meaningful; the others are zero.
type FieldValue struct {
	Kind    FieldKind
	Bool    bool
	Int64   int64
	Float64 float64
	Text    string
	Time    time.Time // always UTC
	JSON    any
	Binary  []byte
}

func NullValue() FieldValue              { return FieldValue{Kind: KindNull} }
func BoolValue(b bool) FieldValue        { return FieldValue{Kind: KindBool, Bool: b} }
func IntValue(i int64) FieldValue        { return FieldValue{Kind: KindInt64, Int64: i} }
func FloatValue(f float64) FieldValue    { return FieldValue{Kind: KindFloat64, Float64: f} }
func TextValue(s string) FieldValue      { return FieldValue{Kind: KindText, Text: s} }
func BinaryValue(b []byte) FieldValue    { return FieldValue{Kind: KindBinary, Binary: b} }
func JSONValue(v any) FieldValue         { return FieldValue{Kind: KindJSON, JSON: v} }
func DatetimeValue(t time.Time) FieldValue {
	return FieldValue{Kind: KindDatetime, Time: t.UTC()}
}

// IsNull reports whether the value is the null variant.
func (v FieldValue) IsNull() bool { return v.Kind == KindNull }

// Equal compares two field values by kind and payload.
func (v FieldValue) Equal(other FieldValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindInt64:
		return v.Int64 == other.Int64
	case KindFloat64:
		return v.Float64 == other.Float64
	case KindText:
		return v.Text == other.Text
	case KindDatetime:
		return v.Time.Equal(other.Time)
	case KindJSON:
		return jsonEqual(v.JSON, other.JSON)
	case KindBinary:
		return string(v.Binary) == string(other.Binary)
	default:
		return false
	}
}

func jsonEqual(a, b any) bool {
	// Deep-equal is sufficient for the primitive/map/slice shapes
	// produced by connectors decoding JSON columns/documents.
	return reflect.DeepEqual(a, b)
}

// Record is a neutral row: field name to value, plus a small side-map
// of string metadata (e.g. the search endpoint's routing key). Key
// order is not prescribed.
type Record struct {
	Fields   map[string]FieldValue
	Metadata map[string]string
}

// NewRecord allocates a Record with empty maps.
func NewRecord() Record {
	return Record{Fields: make(map[string]FieldValue), Metadata: make(map[string]string)}
}

// Equal compares two records field by field; missing metadata keys are
// ignored (metadata is routing/auxiliary information, not record identity).
func (r Record) Equal(other Record) bool {
	if len(r.Fields) != len(other.Fields) {
		return false
	}
	for name, v := range r.Fields {
		ov, ok := other.Fields[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Get returns the field value and whether it is present.
func (r Record) Get(name string) (FieldValue, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Set assigns a field value, allocating the map if needed.
func (r *Record) Set(name string, v FieldValue) {
	if r.Fields == nil {
		r.Fields = make(map[string]FieldValue)
	}
	r.Fields[name] = v
}
