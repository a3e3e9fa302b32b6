// Package transform implements the pipeline's field-transformer step
// (spec §4.D: "apply any configured transformers (field-by-field pure
// functions, applied in declared order)").
package transform

import "github.com/replicator/replicator/internal/model"

// Func is a pure, field-scoped transformation applied to every record
// in a batch before it reaches the writer.
type Func func(model.Record) model.Record

// Chain composes fns into a single Func, applied in the given order.
func Chain(fns ...Func) Func {
	return func(r model.Record) model.Record {
		for _, fn := range fns {
			r = fn(r)
		}
		return r
	}
}

// Apply runs fn over every record in batch, returning a new slice.
func Apply(batch []model.Record, fn Func) []model.Record {
	if fn == nil {
		return batch
	}
	out := make([]model.Record, len(batch))
	for i, r := range batch {
		out[i] = fn(r)
	}
	return out
}
