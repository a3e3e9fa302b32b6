package search

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/model"
)

func mustParseTime(t *testing.T) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, "2024-01-02T03:04:05Z")
	require.NoError(t, err)
	return parsed
}

func TestWriteActionLineWithID(t *testing.T) {
	w := NewWriter(Config{Index: "logs-2024"})
	rec := model.NewRecord()
	rec.Metadata["_id"] = "42"

	var buf bytes.Buffer
	w.writeActionLine(&buf, rec)
	require.Equal(t, `{"index":{"_index":"logs-2024","_id":"42"}}`+"\n", buf.String())
}

func TestWriteActionLineWithoutID(t *testing.T) {
	w := NewWriter(Config{Index: "logs-2024"})
	var buf bytes.Buffer
	w.writeActionLine(&buf, model.NewRecord())
	require.Equal(t, `{"index":{"_index":"logs-2024"}}`+"\n", buf.String())
}

func TestWriteActionLineCoercesPrimaryKeyWhenNoMetadataID(t *testing.T) {
	w := NewWriter(Config{Index: "users"})
	require.NoError(t, w.PrepareTarget(context.Background(), model.SchemaInfo{
		Fields:     []model.FieldInfo{{Name: "id", Type: model.FieldInt}},
		PrimaryKey: "id",
	}))
	rec := model.NewRecord()
	rec.Set("id", model.IntValue(42))

	var buf bytes.Buffer
	w.writeActionLine(&buf, rec)
	require.Equal(t, `{"index":{"_index":"users","_id":"42"}}`+"\n", buf.String())
}

func TestWriteActionLinePrefersExplicitMetadataIDOverPrimaryKey(t *testing.T) {
	w := NewWriter(Config{Index: "users"})
	require.NoError(t, w.PrepareTarget(context.Background(), model.SchemaInfo{
		Fields:     []model.FieldInfo{{Name: "id", Type: model.FieldInt}},
		PrimaryKey: "id",
	}))
	rec := model.NewRecord()
	rec.Set("id", model.IntValue(42))
	rec.Metadata["_id"] = "from-source"

	var buf bytes.Buffer
	w.writeActionLine(&buf, rec)
	require.Equal(t, `{"index":{"_index":"users","_id":"from-source"}}`+"\n", buf.String())
}

func TestWriteDocLineDropsBinaryFields(t *testing.T) {
	w := NewWriter(Config{Index: "idx"})
	rec := model.NewRecord()
	rec.Set("name", model.TextValue("a"))
	rec.Set("blob", model.BinaryValue([]byte{1, 2, 3}))

	var buf bytes.Buffer
	require.NoError(t, w.writeDocLine(&buf, rec))
	require.Contains(t, buf.String(), `"blob":null`)
	require.Contains(t, buf.String(), `"name":"a"`)
	require.Equal(t, []string{"blob"}, w.DroppedBinaryFields())
}

func TestFieldValueToJSONDatetimeIsRFC3339(t *testing.T) {
	v := fieldValueToJSON(model.DatetimeValue(mustParseTime(t)))
	require.Equal(t, "2024-01-02T03:04:05.000Z", v)
}
