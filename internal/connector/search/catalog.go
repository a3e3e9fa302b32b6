package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Ping verifies cfg's addresses are reachable and credentials accepted
// (spec §6 test_connection), via the cluster info endpoint.
func Ping(ctx context.Context, cfg Config) error {
	client, err := newClient(cfg)
	if err != nil {
		return fmt.Errorf("search: new client: %w", err)
	}
	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: connect_failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: connect_failed: %s", res.Status())
	}
	return nil
}

// ListIndices returns every index name visible to cfg's credentials,
// for spec §6's list_indices (the result is later narrowed by glob
// pattern matching in internal/engine).
func ListIndices(ctx context.Context, cfg Config) ([]string, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("search: new client: %w", err)
	}
	res, err := client.Indices.Get([]string{"*"}, client.Indices.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("search: list indices: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: list indices: %s", res.Status())
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("search: list indices: read body: %w", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("search: list indices: decode: %w", err)
	}

	out := make([]string, 0, len(decoded))
	for name := range decoded {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
