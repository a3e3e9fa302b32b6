package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/replicator/replicator/internal/metrics"
	"github.com/replicator/replicator/internal/rlog"
	"github.com/replicator/replicator/internal/store"
)

// UnitResult reports how one unit run ended.
type UnitResult struct {
	// Cancelled is true when the run stopped mid-way because ShouldPause
	// tripped (spec §5 resumable pause), as opposed to finishing or
	// erroring.
	Cancelled bool
}

// UnitRunFunc executes one already-claimed unit end to end (open both
// connectors, stream batches, close both — see internal/pipeline.Run)
// and reports its outcome. The caller supplies this so the scheduler
// itself stays free of connector and pipeline concerns.
type UnitRunFunc func(ctx context.Context, unitName, searchPattern string) (UnitResult, error)

// RunOptions configures one Run call.
type RunOptions struct {
	SourceID      string
	ThreadCount   int
	ErrorStrategy store.ErrorStrategy
	// ShouldPause is polled before claiming each new unit. Units already
	// running are left to finish; nothing new is started once it
	// returns true.
	ShouldPause func() bool
}

// RunSummary tallies how eligible units resolved.
type RunSummary struct {
	Completed int
	Failed    int
	Paused    int
}

// Run loads task's eligible (pending or failed) units and executes them
// under a worker pool bounded to ThreadCount concurrent units (spec
// §4.E "Run"). It claims each unit with store.TryStartUnit before
// handing it to run, so at most one goroutine ever runs a given unit —
// the same guarantee holds across processes since the claim is a
// durable CAS.
//
// A unit that completes moves to history and the cross-task ledger. A
// unit whose run returns Cancelled (a user-initiated pause) goes back
// to pending with its progress intact. A unit whose run returns an
// error is marked failed; under ErrorStrategySkip the pool keeps going,
// under ErrorStrategyPause no further units are claimed once the first
// failure lands, though units already in flight are allowed to finish.
func Run(ctx context.Context, s *store.Store, task *store.SyncTask, opts RunOptions, run UnitRunFunc) (RunSummary, error) {
	threadCount := opts.ThreadCount
	if threadCount <= 0 {
		threadCount = 1
	}

	runtimes, err := s.ListRuntimes(ctx, task.ID)
	if err != nil {
		return RunSummary{}, err
	}
	configs, err := s.ListUnitConfigs(ctx, task.ID)
	if err != nil {
		return RunSummary{}, err
	}
	patternByUnit := make(map[string]string, len(configs))
	for _, c := range configs {
		patternByUnit[c.UnitName] = c.SearchPattern
	}

	var eligible []store.TaskUnitRuntime
	for _, r := range runtimes {
		if r.Status == store.UnitPending || r.Status == store.UnitFailed {
			eligible = append(eligible, r)
		}
	}

	sem := make(chan struct{}, threadCount)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var summary RunSummary
	var errorPause int32

	for _, unit := range eligible {
		// Acquire a slot before deciding anything else, so at
		// thread_count=1 the next claim is fully serialized behind the
		// previous unit's completion — otherwise a unit could be
		// claimed between the pause check and the semaphore send,
		// racing the flag it was meant to observe.
		sem <- struct{}{}

		if (opts.ShouldPause != nil && opts.ShouldPause()) || atomic.LoadInt32(&errorPause) == 1 {
			<-sem
			break
		}

		won, err := s.TryStartUnit(ctx, task.ID, unit.UnitName)
		if err != nil {
			<-sem
			return summary, err
		}
		if !won {
			<-sem
			continue
		}

		wg.Add(1)
		metrics.UnitsActive.Inc()
		go func(unitName string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer metrics.UnitsActive.Dec()

			start := time.Now()
			unitTimer := metrics.NewTimer()
			result, runErr := run(ctx, unitName, patternByUnit[unitName])

			switch {
			case runErr != nil:
				if err := s.SetUnitFailed(ctx, task.ID, unitName, runErr.Error()); err != nil {
					rlog.WithUnit(task.ID, unitName).Error().Err(err).Msg("scheduler: persist unit failure")
				}
				mu.Lock()
				summary.Failed++
				mu.Unlock()
				rlog.WithUnit(task.ID, unitName).Error().Err(runErr).Msg("scheduler: unit failed")
				metrics.UnitsCompletedTotal.WithLabelValues("failed").Inc()
				unitTimer.ObserveDuration(metrics.UnitDuration.WithLabelValues("failed"))
				if opts.ErrorStrategy == store.ErrorStrategyPause {
					atomic.StoreInt32(&errorPause, 1)
				}

			case result.Cancelled:
				if err := s.SetUnitPaused(ctx, task.ID, unitName); err != nil {
					rlog.WithUnit(task.ID, unitName).Error().Err(err).Msg("scheduler: persist unit pause")
				}
				mu.Lock()
				summary.Paused++
				mu.Unlock()
				metrics.UnitsCompletedTotal.WithLabelValues("cancelled").Inc()
				unitTimer.ObserveDuration(metrics.UnitDuration.WithLabelValues("cancelled"))

			default:
				pattern := patternByUnit[unitName]
				durationMS := time.Since(start).Milliseconds()
				if err := s.MoveRuntimeToHistory(ctx, task.ID, unitName, pattern, durationMS); err != nil {
					rlog.WithUnit(task.ID, unitName).Error().Err(err).Msg("scheduler: persist unit completion")
					mu.Lock()
					summary.Failed++
					mu.Unlock()
					return
				}
				if err := s.MarkSynced(ctx, opts.SourceID, unitName, task.ID); err != nil {
					rlog.WithUnit(task.ID, unitName).Error().Err(err).Msg("scheduler: mark synced")
				}
				mu.Lock()
				summary.Completed++
				mu.Unlock()
				metrics.UnitsCompletedTotal.WithLabelValues("completed").Inc()
				unitTimer.ObserveDuration(metrics.UnitDuration.WithLabelValues("completed"))
			}
		}(unit.UnitName)
	}

	wg.Wait()
	return summary, nil
}
