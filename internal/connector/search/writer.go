package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/replicator/replicator/internal/connector/typemap"
	"github.com/replicator/replicator/internal/model"
)

// Writer lands documents into one Elasticsearch-family index via the
// bulk API. The index is created implicitly by the first write, so
// PrepareTarget is a no-op (spec §4.C, §9 Open Question resolution).
type Writer struct {
	cfg        Config
	client     *elasticsearch.Client
	droppedBin map[string]bool
	primaryKey string // source schema's primary-key field, if any (spec §4.C _id coercion)
}

func NewWriter(cfg Config) *Writer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.MaxBatchBytes <= 0 {
		cfg.MaxBatchBytes = defaultMaxBatchBytes
	}
	return &Writer{cfg: cfg, droppedBin: map[string]bool{}}
}

func (w *Writer) Open(ctx context.Context) error {
	c, err := newClient(w.cfg)
	if err != nil {
		return fmt.Errorf("search: open: %w", err)
	}
	w.client = c
	return nil
}

func (w *Writer) PrepareTarget(ctx context.Context, schema model.SchemaInfo) error {
	w.primaryKey = schema.PrimaryKey
	return nil
}

// WriteBatch issues one or more _bulk requests, splitting the batch so
// no single request body exceeds MaxBatchBytes (spec §9).
func (w *Writer) WriteBatch(ctx context.Context, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	flush := func() error {
		if buf.Len() == 0 {
			return nil
		}
		if err := w.bulk(ctx, buf.Bytes()); err != nil {
			return err
		}
		buf.Reset()
		return nil
	}

	for _, rec := range records {
		var action, doc bytes.Buffer
		w.writeActionLine(&action, rec)
		if err := w.writeDocLine(&doc, rec); err != nil {
			return fmt.Errorf("search: write_batch: %w", err)
		}

		if int64(buf.Len()+action.Len()+doc.Len()) > w.cfg.MaxBatchBytes && buf.Len() > 0 {
			if err := flush(); err != nil {
				return err
			}
		}
		buf.Write(action.Bytes())
		buf.Write(doc.Bytes())
	}
	return flush()
}

func (w *Writer) writeActionLine(buf *bytes.Buffer, rec model.Record) {
	id := rec.Metadata["_id"]
	if id == "" && w.primaryKey != "" {
		if v, ok := rec.Fields[w.primaryKey]; ok {
			id = typemap.PrimaryKeyToID(v)
		}
	}
	if id != "" {
		fmt.Fprintf(buf, `{"index":{"_index":%q,"_id":%q}}`+"\n", w.cfg.Index, id)
	} else {
		fmt.Fprintf(buf, `{"index":{"_index":%q}}`+"\n", w.cfg.Index)
	}
}

func (w *Writer) writeDocLine(buf *bytes.Buffer, rec model.Record) error {
	doc := make(map[string]any, len(rec.Fields))
	for name, v := range rec.Fields {
		if v.Kind == model.KindBinary {
			w.droppedBin[name] = true
			doc[name] = nil
			continue
		}
		doc[name] = fieldValueToJSON(v)
	}
	enc, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	buf.Write(enc)
	buf.WriteByte('\n')
	return nil
}

func (w *Writer) bulk(ctx context.Context, body []byte) error {
	res, err := w.client.Bulk(bytes.NewReader(body), w.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: write_batch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: write_batch: bulk request failed: %s", res.Status())
	}

	var parsed struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("search: write_batch: decode response: %w", err)
	}
	if parsed.Errors {
		return fmt.Errorf("search: write_batch: bulk_retriable: one or more actions reported errors")
	}
	return nil
}

func fieldValueToJSON(v model.FieldValue) any {
	switch v.Kind {
	case model.KindNull:
		return nil
	case model.KindBool:
		return v.Bool
	case model.KindInt64:
		return v.Int64
	case model.KindFloat64:
		return v.Float64
	case model.KindText:
		return v.Text
	case model.KindDatetime:
		return v.Time.Format("2006-01-02T15:04:05.000Z07:00")
	case model.KindJSON:
		return v.JSON
	default:
		return nil
	}
}

// DroppedBinaryFields implements connector.DroppedBinaryFieldLogger:
// binary fields have no search representation and are written as null
// (spec §4.B).
func (w *Writer) DroppedBinaryFields() []string {
	names := make([]string, 0, len(w.droppedBin))
	for n := range w.droppedBin {
		names = append(names, n)
	}
	return names
}

func (w *Writer) Commit(ctx context.Context) error {
	// Elasticsearch refreshes on its own schedule; no explicit commit step.
	return nil
}

func (w *Writer) Close(ctx context.Context) error {
	return nil
}
