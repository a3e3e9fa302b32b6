package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/replicator/replicator/internal/connector"
	"github.com/replicator/replicator/internal/connector/factory"
	"github.com/replicator/replicator/internal/metrics"
	"github.com/replicator/replicator/internal/nametransform"
	"github.com/replicator/replicator/internal/pipeline"
	"github.com/replicator/replicator/internal/progress"
	"github.com/replicator/replicator/internal/rlog"
	"github.com/replicator/replicator/internal/scheduler"
	"github.com/replicator/replicator/internal/store"
)

// StartByID begins (or resumes) a task's sync run (spec §4.G). It is
// rejected if the task is already running. The unit list is
// (re-)expanded and persisted via scheduler.Prepare on every start,
// which is safe to call repeatedly — already-completed or
// already-synced units simply drop out again.
func (e *Engine) StartByID(ctx context.Context, taskID string) error {
	task, err := e.Store.LoadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status == store.TaskRunning {
		return fmt.Errorf("engine: task %s is already running", taskID)
	}

	cfg, err := scheduler.ParseTaskConfig(task.ConfigJSON)
	if err != nil {
		return fmt.Errorf("engine: config_invalid: %w", err)
	}
	if len(cfg.Units) == 0 && len(cfg.Keywords) == 0 {
		return fmt.Errorf("engine: config_invalid: task has no units configured")
	}

	if _, err := scheduler.Prepare(ctx, e.Store, task, cfg); err != nil {
		return err
	}

	if err := e.Store.UpdateTaskStatus(ctx, taskID, store.TaskRunning); err != nil {
		return err
	}
	runStart := time.Now().UTC()
	if err := e.Store.UpdateTaskRunStarted(ctx, taskID, runStart); err != nil {
		return err
	}
	task.RunStartedAt = runStart
	e.publishSnapshot(ctx, task)
	metrics.TasksRunning.Inc()

	ctl := e.beginRun(taskID)
	source, err := e.Store.LoadDatasource(ctx, task.SourceID)
	if err != nil {
		e.finishRun(ctx, task, err)
		return err
	}
	target, err := e.Store.LoadDatasource(ctx, task.TargetID)
	if err != nil {
		e.finishRun(ctx, task, err)
		return err
	}

	// The run outlives the request that started it (spec §5: a task
	// keeps running after start_sync returns), so it gets its own
	// background context rather than the caller's request-scoped one.
	runCtx := context.Background()
	go func() {
		defer close(ctl.done)
		_, runErr := scheduler.Run(runCtx, e.Store, task, scheduler.RunOptions{
			SourceID:      task.SourceID,
			ThreadCount:   cfg.ThreadCount,
			ErrorStrategy: cfg.ErrorStrategy,
			ShouldPause:   func() bool { return atomic.LoadInt32(&ctl.pause) == 1 },
		}, e.buildUnitRunner(task, source, target, cfg, ctl))
		e.finishRun(runCtx, task, runErr)
	}()

	return nil
}

// Pause requests that taskID stop claiming new units; units already
// in flight finish their current batch and return to pending (spec
// §4.G, §5). Rejected if the task is not running or already paused.
func (e *Engine) Pause(ctx context.Context, taskID string) error {
	task, err := e.Store.LoadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status != store.TaskRunning {
		return fmt.Errorf("engine: task %s is not running", taskID)
	}

	e.mu.Lock()
	ctl, ok := e.running[taskID]
	e.mu.Unlock()
	if ok {
		atomic.StoreInt32(&ctl.pause, 1)
	}

	if err := e.Store.UpdateTaskStatus(ctx, taskID, store.TaskPaused); err != nil {
		return err
	}
	e.publishSnapshot(ctx, task)
	return nil
}

// Resume mirrors Pause: rejected unless the task is paused, then
// re-enters via StartByID so its remaining pending units are claimed
// again under a fresh worker pool.
func (e *Engine) Resume(ctx context.Context, taskID string) error {
	task, err := e.Store.LoadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status != store.TaskPaused {
		return fmt.Errorf("engine: task %s is not paused", taskID)
	}
	return e.StartByID(ctx, taskID)
}

func (e *Engine) beginRun(taskID string) *taskRun {
	ctl := &taskRun{done: make(chan struct{})}
	e.mu.Lock()
	e.running[taskID] = ctl
	e.mu.Unlock()
	return ctl
}

// finishRun clears the in-memory control block, then durably records
// the run's outcome before publishing a snapshot, matching spec §4.G's
// "durably updates task status before notifying observers."
func (e *Engine) finishRun(ctx context.Context, task *store.SyncTask, runErr error) {
	e.mu.Lock()
	delete(e.running, task.ID)
	e.mu.Unlock()
	metrics.TasksRunning.Dec()

	status := store.TaskCompleted
	switch {
	case runErr != nil:
		status = store.TaskFailed
		rlog.WithTask(task.ID).Error().Err(runErr).Msg("engine: sync run failed")
	default:
		// A paused run's units went back to pending, not completed; a
		// plain UpdateTaskStatus read-after-write here would otherwise
		// stomp a concurrent Pause's status write with "completed".
		current, err := e.Store.LoadTask(ctx, task.ID)
		if err == nil && current.Status == store.TaskPaused {
			return
		}
	}
	if err := e.Store.UpdateTaskStatus(ctx, task.ID, status); err != nil {
		rlog.WithTask(task.ID).Error().Err(err).Msg("engine: persist final task status")
		return
	}
	e.publishSnapshot(ctx, task)
}

// buildUnitRunner closes over task/source/target/cfg to satisfy
// scheduler.UnitRunFunc: open a fresh reader+writer pair for the unit,
// run the pipeline, and translate its Result into a scheduler.UnitResult.
func (e *Engine) buildUnitRunner(task *store.SyncTask, source, target *store.Datasource, cfg scheduler.TaskConfig, ctl *taskRun) scheduler.UnitRunFunc {
	return func(ctx context.Context, unitName, searchPattern string) (scheduler.UnitResult, error) {
		targetName := unitName
		if cfg.NameTransform != nil {
			rule := nametransform.Rule{
				Mode: nametransform.Mode(cfg.NameTransform.Mode),
				From: cfg.NameTransform.From,
				To:   cfg.NameTransform.To,
			}
			targetName = nametransform.Apply(unitName, rule)
		}

		reader, err := e.buildReader(ctx, source, unitName, cfg.BatchSize)
		if err != nil {
			return scheduler.UnitResult{}, fmt.Errorf("engine: build reader: %w", err)
		}
		writer, err := e.buildWriter(ctx, target, targetName, cfg)
		if err != nil {
			return scheduler.UnitResult{}, fmt.Errorf("engine: build writer: %w", err)
		}

		result, err := pipeline.Run(ctx, reader, writer, pipeline.Options{
			TaskID:     task.ID,
			UnitName:   unitName,
			SourceKind: string(source.Kind),
			BatchSize:  cfg.BatchSize,
			OnProgress: func(processed, total int64) {
				if err := e.Store.UpdateRuntimeProgress(ctx, task.ID, unitName, total, processed); err != nil {
					rlog.WithUnit(task.ID, unitName).Error().Err(err).Msg("engine: persist runtime progress")
				}
				e.publishSnapshot(ctx, task)
			},
			OnLog: func(level, msg string) { e.log(task.ID, level, msg) },
			ShouldCancel: func() bool {
				return atomic.LoadInt32(&ctl.pause) == 1
			},
		})
		if err != nil {
			return scheduler.UnitResult{}, err
		}
		return scheduler.UnitResult{Cancelled: result.Cancelled}, nil
	}
}

func (e *Engine) buildReader(ctx context.Context, ds *store.Datasource, unitName string, batchSize int) (connector.Reader, error) {
	switch ds.Kind {
	case store.KindRelational:
		cfg, err := e.relationalConfig(ctx, ds, ds.DefaultDatabase, unitName, batchSize)
		if err != nil {
			return nil, err
		}
		return factory.NewReader(factory.ReaderConfig{Kind: store.KindRelational, Relational: cfg})
	case store.KindSearch:
		cfg, err := e.searchConfig(ctx, ds, unitName, batchSize)
		if err != nil {
			return nil, err
		}
		return factory.NewReader(factory.ReaderConfig{Kind: store.KindSearch, Search: cfg})
	default:
		return nil, fmt.Errorf("engine: unknown source datasource kind %q", ds.Kind)
	}
}

func (e *Engine) buildWriter(ctx context.Context, ds *store.Datasource, unitName string, cfg scheduler.TaskConfig) (connector.Writer, error) {
	switch ds.Kind {
	case store.KindRelational:
		rc, err := e.relationalConfig(ctx, ds, ds.DefaultDatabase, unitName, cfg.BatchSize)
		if err != nil {
			return nil, err
		}
		return factory.NewWriter(factory.WriterConfig{Kind: store.KindRelational, Strategy: cfg.TargetExists, Relational: rc})
	case store.KindSearch:
		sc, err := e.searchConfig(ctx, ds, unitName, cfg.BatchSize)
		if err != nil {
			return nil, err
		}
		sc.MaxBatchBytes = cfg.MaxBatchBytes
		return factory.NewWriter(factory.WriterConfig{Kind: store.KindSearch, Strategy: cfg.TargetExists, Search: sc})
	default:
		return nil, fmt.Errorf("engine: unknown target datasource kind %q", ds.Kind)
	}
}

func (e *Engine) publishSnapshot(ctx context.Context, task *store.SyncTask) {
	if e.Bus == nil {
		return
	}
	snap, err := progress.Build(ctx, e.Store, task, runStartTime(task), "")
	if err != nil {
		rlog.WithTask(task.ID).Error().Err(err).Msg("engine: build progress snapshot")
		return
	}
	e.Bus.Publish(progress.Event{Type: progress.EventTaskProgress, TaskID: task.ID, Snapshot: &snap})
}

func (e *Engine) log(taskID, level, message string) {
	entry := progress.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     progress.LogLevel(level),
		Category:  progress.CategoryRealtime,
		Message:   message,
	}
	e.Rings.For(taskID).Append(entry)
	if e.Bus != nil {
		e.Bus.Publish(progress.Event{Type: progress.EventTaskLog, TaskID: taskID, Log: &entry})
	}
}

// GetProgress returns a task's current progress snapshot (spec §6 get_progress).
func (e *Engine) GetProgress(ctx context.Context, taskID string) (progress.Snapshot, error) {
	task, err := e.Store.LoadTask(ctx, taskID)
	if err != nil {
		return progress.Snapshot{}, err
	}
	return progress.Build(ctx, e.Store, task, runStartTime(task), "")
}

// GetLogs returns a task's bounded in-memory log ring (spec §6 get_logs).
func (e *Engine) GetLogs(taskID string) []progress.LogEntry {
	return e.Rings.For(taskID).All()
}

// runStartTime prefers the persisted start of the task's current run;
// UpdatedAt is only a fallback for a task that predates the
// run_started_at column (or has never been started) so Build never
// sees a zero startTime.
func runStartTime(task *store.SyncTask) time.Time {
	if !task.RunStartedAt.IsZero() {
		return task.RunStartedAt
	}
	return task.UpdatedAt
}
