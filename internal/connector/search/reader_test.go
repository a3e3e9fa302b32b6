package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/model"
)

func TestJSONToFieldValueInt(t *testing.T) {
	v := jsonToFieldValue(float64(42))
	require.Equal(t, model.KindInt64, v.Kind)
	require.Equal(t, int64(42), v.Int64)
}

func TestJSONToFieldValueFloat(t *testing.T) {
	v := jsonToFieldValue(float64(3.5))
	require.Equal(t, model.KindFloat64, v.Kind)
	require.Equal(t, 3.5, v.Float64)
}

func TestJSONToFieldValueDatetime(t *testing.T) {
	v := jsonToFieldValue("2024-01-02T03:04:05Z")
	require.Equal(t, model.KindDatetime, v.Kind)
}

func TestJSONToFieldValuePlainText(t *testing.T) {
	v := jsonToFieldValue("hello")
	require.Equal(t, model.KindText, v.Kind)
	require.Equal(t, "hello", v.Text)
}

func TestJSONToFieldValueNestedObject(t *testing.T) {
	v := jsonToFieldValue(map[string]any{"a": float64(1)})
	require.Equal(t, model.KindJSON, v.Kind)
}

func TestJSONToFieldValueNull(t *testing.T) {
	require.True(t, jsonToFieldValue(nil).IsNull())
}

func TestSchemaReturnsSearchPrimaryKey(t *testing.T) {
	r := NewReader(Config{Index: "idx"})
	schema, err := r.Schema(context.Background())
	require.NoError(t, err)
	require.Equal(t, "_id", schema.PrimaryKey)
	require.Empty(t, schema.Fields)
}
