// Package scheduler expands a task's config_json into a deduplicated
// unit list, persists it, and runs eligible units under a bounded
// worker pool (spec §4.E). Grounded on
// original_source/src-tauri/src/services/task/deduplication.rs for the
// dedup traversal order and original_source/.../scheduler.rs for the
// semaphore-bounded concurrent-unit execution model, reimplemented
// with Go's channel-as-semaphore idiom rather than tokio.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/replicator/replicator/internal/model"
	"github.com/replicator/replicator/internal/store"
)

// KeywordGroup is a label plus the ordered list of units it selects
// (spec §3's TaskConfig keyword mapping).
type KeywordGroup struct {
	Keyword string   `json:"keyword"`
	Units   []string `json:"units"`
}

// NameTransformConfig mirrors internal/nametransform.Rule with JSON tags.
type NameTransformConfig struct {
	Mode string `json:"mode"` // "prefix" | "suffix"
	From string `json:"from"`
	To   string `json:"to"`
}

// TaskConfig is the parsed form of SyncTask.ConfigJSON (spec §3).
type TaskConfig struct {
	Units         []string                   `json:"units"`
	Keywords      []KeywordGroup             `json:"keywords,omitempty"`
	ThreadCount   int                        `json:"thread_count"`
	BatchSize     int                        `json:"batch_size"`
	MaxBatchBytes int64                      `json:"max_batch_bytes,omitempty"`
	ErrorStrategy store.ErrorStrategy        `json:"error_strategy"`
	TargetExists  model.TargetExistsStrategy `json:"target_exists"`
	NameTransform *NameTransformConfig       `json:"name_transform,omitempty"`
	SkipSynced    bool                       `json:"skip_synced"`
}

// ParseTaskConfig decodes a SyncTask.ConfigJSON blob, filling in the
// documented defaults (spec §9: thread_count=1, batch_size=500,
// error_strategy=skip, target_exists=drop) for any field the caller
// left zero.
func ParseTaskConfig(raw string) (TaskConfig, error) {
	var cfg TaskConfig
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return TaskConfig{}, fmt.Errorf("scheduler: parse task config: %w", err)
		}
	}
	if cfg.ThreadCount <= 0 {
		cfg.ThreadCount = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.ErrorStrategy == "" {
		cfg.ErrorStrategy = store.ErrorStrategySkip
	}
	if cfg.TargetExists == "" {
		cfg.TargetExists = model.TargetDrop
	}
	return cfg, nil
}
