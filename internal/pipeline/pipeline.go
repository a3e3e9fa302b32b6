// Package pipeline drives a single unit end-to-end: open, discover
// schema, prepare target, stream batches through optional transformers,
// commit, close (spec §4.D). It is the one place that talks to both a
// connector.Reader and connector.Writer in the same goroutine.
package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/replicator/replicator/internal/connector"
	"github.com/replicator/replicator/internal/metrics"
	"github.com/replicator/replicator/internal/pipeline/transform"
	"github.com/replicator/replicator/internal/rlog"
)

var tracer = otel.Tracer("replicator/pipeline")

// ProgressFunc reports a unit's running totals after each committed
// batch. Implementations must not block for long (spec §4.F).
type ProgressFunc func(processed, total int64)

// LogFunc reports a structured unit-scoped log line.
type LogFunc func(level, message string)

// CancelFunc is polled at batch boundaries; returning true stops the
// pipeline cleanly after the in-flight batch commits (spec §5).
type CancelFunc func() bool

// Options configures one Run call.
type Options struct {
	TaskID       string
	UnitName     string
	SourceKind   string // metrics label only ("relational" or "search")
	BatchSize    int
	Transform    transform.Func
	OnProgress   ProgressFunc
	OnLog        LogFunc
	ShouldCancel CancelFunc
}

// Result summarizes a completed (or cancelled) Run.
type Result struct {
	TotalRecords     int64
	ProcessedRecords int64
	Cancelled        bool
}

// Run executes the five-step pipeline algorithm against reader/writer
// for one unit (spec §4.D). The caller owns opening a fresh reader and
// writer per unit; Run always closes both before returning.
func Run(ctx context.Context, reader connector.Reader, writer connector.Writer, opts Options) (Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("task_id", opts.TaskID),
		attribute.String("unit_name", opts.UnitName),
	))
	defer span.End()

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	if err := reader.Open(ctx); err != nil {
		return Result{}, fmt.Errorf("pipeline: reader open: %w", err)
	}
	defer reader.Close(ctx)

	if err := writer.Open(ctx); err != nil {
		return Result{}, fmt.Errorf("pipeline: writer open: %w", err)
	}
	defer writer.Close(ctx)

	schema, err := reader.Schema(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: schema discovery: %w", err)
	}

	if err := writer.PrepareTarget(ctx, schema); err != nil {
		return Result{}, fmt.Errorf("pipeline: prepare target: %w", err)
	}

	total, err := reader.TotalCount(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: total count: %w", err)
	}
	if opts.OnProgress != nil {
		opts.OnProgress(0, total)
	}

	result := Result{TotalRecords: total}
	log := func(level, msg string) {
		if opts.OnLog != nil {
			opts.OnLog(level, msg)
		}
	}

	logged := map[string]bool{}
	for {
		batchTimer := metrics.NewTimer()
		batch, err := reader.ReadBatch(ctx, batchSize)
		if err != nil {
			return result, fmt.Errorf("pipeline: read batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		if opts.Transform != nil {
			batch = transform.Apply(batch, opts.Transform)
		}

		if err := writer.WriteBatch(ctx, batch); err != nil {
			return result, fmt.Errorf("pipeline: write batch: %w", err)
		}
		if err := writer.Commit(ctx); err != nil {
			return result, fmt.Errorf("pipeline: commit: %w", err)
		}
		batchTimer.ObserveDuration(metrics.BatchCommitDuration.WithLabelValues(opts.SourceKind))
		metrics.BatchesCommittedTotal.WithLabelValues(opts.SourceKind).Inc()
		metrics.RecordsReplicatedTotal.WithLabelValues(opts.SourceKind).Add(float64(len(batch)))

		if dropper, ok := writer.(connector.DroppedBinaryFieldLogger); ok {
			for _, field := range dropper.DroppedBinaryFields() {
				if !logged[field] {
					logged[field] = true
					log("warn", fmt.Sprintf("dropped_binary_field: %s", field))
					metrics.DroppedBinaryFieldsTotal.WithLabelValues(opts.TaskID).Inc()
				}
			}
		}

		result.ProcessedRecords += int64(len(batch))
		if opts.OnProgress != nil {
			opts.OnProgress(result.ProcessedRecords, total)
		}

		rlog.WithUnit(opts.TaskID, opts.UnitName).Debug().
			Int("batch_records", len(batch)).
			Dur("batch_duration", batchTimer.Duration()).
			Msg("pipeline: committed batch")

		if opts.ShouldCancel != nil && opts.ShouldCancel() {
			result.Cancelled = true
			break
		}
		if !reader.HasNext() {
			break
		}
	}

	return result, nil
}
