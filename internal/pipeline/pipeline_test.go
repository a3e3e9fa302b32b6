package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/model"
)

type fakeReader struct {
	schema  model.SchemaInfo
	total   int64
	batches [][]model.Record
	idx     int
	opened  bool
	closed  bool
}

func (f *fakeReader) Open(ctx context.Context) error                      { f.opened = true; return nil }
func (f *fakeReader) Schema(ctx context.Context) (model.SchemaInfo, error) { return f.schema, nil }
func (f *fakeReader) TotalCount(ctx context.Context) (int64, error)        { return f.total, nil }
func (f *fakeReader) ReadBatch(ctx context.Context, n int) ([]model.Record, error) {
	if f.idx >= len(f.batches) {
		return nil, nil
	}
	b := f.batches[f.idx]
	f.idx++
	return b, nil
}
func (f *fakeReader) HasNext() bool            { return f.idx < len(f.batches) }
func (f *fakeReader) Close(ctx context.Context) error { f.closed = true; return nil }

type fakeWriter struct {
	prepared bool
	written  []model.Record
	commits  int
	closed   bool
	dropped  []string
}

func (f *fakeWriter) Open(ctx context.Context) error { return nil }
func (f *fakeWriter) PrepareTarget(ctx context.Context, schema model.SchemaInfo) error {
	f.prepared = true
	return nil
}
func (f *fakeWriter) WriteBatch(ctx context.Context, records []model.Record) error {
	f.written = append(f.written, records...)
	return nil
}
func (f *fakeWriter) Commit(ctx context.Context) error       { f.commits++; return nil }
func (f *fakeWriter) Close(ctx context.Context) error        { f.closed = true; return nil }
func (f *fakeWriter) DroppedBinaryFields() []string          { return f.dropped }

func records(n int) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		out[i] = model.NewRecord()
	}
	return out
}

func TestRunStreamsAllBatchesAndCommitsEach(t *testing.T) {
	r := &fakeReader{total: 5, batches: [][]model.Record{records(2), records(2), records(1)}}
	w := &fakeWriter{}

	result, err := Run(context.Background(), r, w, Options{TaskID: "t1", UnitName: "u1"})
	require.NoError(t, err)
	require.Equal(t, int64(5), result.ProcessedRecords)
	require.Equal(t, int64(5), result.TotalRecords)
	require.False(t, result.Cancelled)
	require.True(t, r.opened)
	require.True(t, r.closed)
	require.True(t, w.prepared)
	require.True(t, w.closed)
	require.Equal(t, 3, w.commits)
	require.Len(t, w.written, 5)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := &fakeReader{total: 10, batches: [][]model.Record{records(2), records(2), records(2)}}
	w := &fakeWriter{}
	calls := 0

	result, err := Run(context.Background(), r, w, Options{
		ShouldCancel: func() bool {
			calls++
			return calls >= 1
		},
	})
	require.NoError(t, err)
	require.True(t, result.Cancelled)
	require.Equal(t, int64(2), result.ProcessedRecords)
}

func TestRunAppliesTransform(t *testing.T) {
	r := &fakeReader{batches: [][]model.Record{records(1)}}
	w := &fakeWriter{}

	_, err := Run(context.Background(), r, w, Options{
		Transform: func(rec model.Record) model.Record {
			rec.Set("touched", model.BoolValue(true))
			return rec
		},
	})
	require.NoError(t, err)
	require.Len(t, w.written, 1)
	v, ok := w.written[0].Get("touched")
	require.True(t, ok)
	require.True(t, v.Bool)
}

func TestRunLogsDroppedBinaryFieldOncePerField(t *testing.T) {
	r := &fakeReader{batches: [][]model.Record{records(1), records(1)}}
	w := &fakeWriter{dropped: []string{"blob"}}
	var logs []string

	_, err := Run(context.Background(), r, w, Options{
		OnLog: func(level, msg string) { logs = append(logs, msg) },
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
}
