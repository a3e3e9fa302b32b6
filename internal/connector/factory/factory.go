// Package factory constructs a Reader/Writer pair for a unit, keyed by
// endpoint kind, the way internal/storage/factory picks a storage
// backend by name in the teacher repo — one type switch per direction
// here instead of switches sprinkled through the engine.
package factory

import (
	"fmt"

	"github.com/replicator/replicator/internal/connector"
	"github.com/replicator/replicator/internal/connector/relational"
	"github.com/replicator/replicator/internal/connector/search"
	"github.com/replicator/replicator/internal/model"
	"github.com/replicator/replicator/internal/store"
)

// ReaderConfig carries the per-kind configuration needed to open a
// Reader. Only the field matching Kind is consulted.
type ReaderConfig struct {
	Kind       store.EndpointKind
	Relational relational.Config
	Search     search.Config
}

// WriterConfig carries the per-kind configuration needed to open a
// Writer, plus the shared target-exists strategy (spec §4.D).
type WriterConfig struct {
	Kind       store.EndpointKind
	Strategy   model.TargetExistsStrategy
	Relational relational.Config
	Search     search.Config
}

// NewReader constructs the Reader implementation for cfg.Kind.
func NewReader(cfg ReaderConfig) (connector.Reader, error) {
	switch cfg.Kind {
	case store.KindRelational:
		return relational.NewReader(cfg.Relational), nil
	case store.KindSearch:
		return search.NewReader(cfg.Search), nil
	default:
		return nil, fmt.Errorf("factory: unknown source endpoint kind %q", cfg.Kind)
	}
}

// NewWriter constructs the Writer implementation for cfg.Kind.
func NewWriter(cfg WriterConfig) (connector.Writer, error) {
	switch cfg.Kind {
	case store.KindRelational:
		return relational.NewWriter(cfg.Relational, cfg.Strategy), nil
	case store.KindSearch:
		return search.NewWriter(cfg.Search), nil
	default:
		return nil, fmt.Errorf("factory: unknown target endpoint kind %q", cfg.Kind)
	}
}
