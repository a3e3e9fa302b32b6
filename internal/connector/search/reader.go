package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/replicator/replicator/internal/model"
)

const scrollTTL = "1m"

// Reader streams documents out of one Elasticsearch-family index via
// the scroll API, renewing the scroll's TTL on every batch (spec §4.C).
type Reader struct {
	cfg      Config
	client   *elasticsearch.Client
	scrollID string
	lastLen  int
	started  bool
}

func NewReader(cfg Config) *Reader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Reader{cfg: cfg}
}

func (r *Reader) Open(ctx context.Context) error {
	c, err := newClient(r.cfg)
	if err != nil {
		return fmt.Errorf("search: open: %w", err)
	}
	r.client = c
	return nil
}

// Schema returns an empty field list with primary_key "_id": search
// endpoints are schema-less (spec §4.C).
func (r *Reader) Schema(ctx context.Context) (model.SchemaInfo, error) {
	return model.SchemaInfo{PrimaryKey: "_id"}, nil
}

func (r *Reader) TotalCount(ctx context.Context) (int64, error) {
	res, err := r.client.Count(r.client.Count.WithContext(ctx), r.client.Count.WithIndex(r.cfg.Index))
	if err != nil {
		return 0, fmt.Errorf("search: total_count: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("search: total_count: endpoint returned %s", res.Status())
	}

	var body struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("search: total_count: decode: %w", err)
	}
	return body.Count, nil
}

func (r *Reader) ReadBatch(ctx context.Context, n int) ([]model.Record, error) {
	if n <= 0 {
		n = r.cfg.BatchSize
	}

	res, err := r.nextPage(ctx, n)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: read_batch: endpoint returned %s", res.Status())
	}

	var parsed struct {
		ScrollID string `json:"_scroll_id"`
		Hits     struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("search: read_batch: decode: %w", err)
	}
	if parsed.ScrollID != "" {
		r.scrollID = parsed.ScrollID
	}

	records := make([]model.Record, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		rec := model.NewRecord()
		var source map[string]any
		if len(hit.Source) > 0 {
			if err := json.Unmarshal(hit.Source, &source); err != nil {
				return nil, fmt.Errorf("search: read_batch: decode _source: %w", err)
			}
		}
		for k, v := range source {
			rec.Set(k, jsonToFieldValue(v))
		}
		rec.Metadata["_id"] = hit.ID
		records = append(records, rec)
	}

	r.started = true
	r.lastLen = len(records)
	return records, nil
}

func (r *Reader) nextPage(ctx context.Context, n int) (*esapi.Response, error) {
	if r.scrollID == "" {
		body := map[string]any{"query": map[string]any{"match_all": map[string]any{}}}
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
		res, err := r.client.Search(
			r.client.Search.WithContext(ctx),
			r.client.Search.WithIndex(r.cfg.Index),
			r.client.Search.WithBody(&buf),
			r.client.Search.WithSize(n),
			r.client.Search.WithScroll(scrollTTL),
		)
		if err != nil {
			return nil, fmt.Errorf("search: read_batch: %w", err)
		}
		return res, nil
	}

	res, err := r.client.Scroll(
		r.client.Scroll.WithContext(ctx),
		r.client.Scroll.WithScrollID(r.scrollID),
		r.client.Scroll.WithScroll(scrollTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("search: read_batch: %w", err)
	}
	return res, nil
}

func (r *Reader) HasNext() bool {
	return !r.started || r.lastLen > 0
}

func (r *Reader) Close(ctx context.Context) error {
	if r.scrollID == "" || r.client == nil {
		return nil
	}
	body := strings.NewReader(fmt.Sprintf(`{"scroll_id":["%s"]}`, r.scrollID))
	res, err := r.client.ClearScroll(r.client.ClearScroll.WithContext(ctx), r.client.ClearScroll.WithBody(body))
	if err != nil {
		return fmt.Errorf("search: close: %w", err)
	}
	defer res.Body.Close()
	return nil
}

func jsonToFieldValue(v any) model.FieldValue {
	switch t := v.(type) {
	case nil:
		return model.NullValue()
	case bool:
		return model.BoolValue(t)
	case float64:
		if t == float64(int64(t)) {
			return model.IntValue(int64(t))
		}
		return model.FloatValue(t)
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return model.DatetimeValue(parsed)
		}
		return model.TextValue(t)
	case []any, map[string]any:
		return model.JSONValue(t)
	default:
		return model.TextValue(fmt.Sprintf("%v", t))
	}
}
