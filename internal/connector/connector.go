// Package connector defines the Reader/Writer contracts every
// endpoint-specific connector implements (spec §4.C). Both are
// single-threaded per instance; the engine creates one reader+writer
// pair per unit.
package connector

import (
	"context"

	"github.com/replicator/replicator/internal/model"
)

// Reader streams records out of one unit (table or index) of a source endpoint.
type Reader interface {
	// Open establishes the connection/session for this unit.
	Open(ctx context.Context) error

	// Schema returns the unit's discovered schema. Must be called after Open.
	Schema(ctx context.Context) (model.SchemaInfo, error)

	// TotalCount returns the best-effort total record count, used only
	// for progress reporting.
	TotalCount(ctx context.Context) (int64, error)

	// ReadBatch returns up to n records. An empty, nil-error result
	// means the unit is exhausted.
	ReadBatch(ctx context.Context, n int) ([]model.Record, error)

	// HasNext reports whether another ReadBatch call could return
	// records, without itself reading. The relational reader reports
	// true iff the last batch returned was full; the search reader
	// reports true until a batch comes back empty.
	HasNext() bool

	// Close releases any connection/cursor resources.
	Close(ctx context.Context) error
}

// Writer receives streamed records and lands them in one unit of a target endpoint.
type Writer interface {
	// Open establishes the connection/session for this unit.
	Open(ctx context.Context) error

	// PrepareTarget realizes the target-exists strategy (drop/truncate/
	// backup) against schema before any batch is written.
	PrepareTarget(ctx context.Context, schema model.SchemaInfo) error

	// WriteBatch durably lands records. Implementations split
	// internally if a single statement/request would exceed an
	// endpoint-specific limit (spec §4.C: the 65,535 bound-parameter
	// ceiling for relational writers).
	WriteBatch(ctx context.Context, records []model.Record) error

	// Commit finalizes the most recent WriteBatch as a durable unit of
	// work; the pipeline calls Commit once per batch (spec §4.D).
	Commit(ctx context.Context) error

	// Close releases any connection resources.
	Close(ctx context.Context) error
}

// DroppedBinaryFieldLogger lets a writer report that it silently
// nulled out a binary field the target cannot represent (spec §4.B).
// Implemented optionally; the pipeline type-asserts for it.
type DroppedBinaryFieldLogger interface {
	DroppedBinaryFields() []string
}
