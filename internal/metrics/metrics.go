// Package metrics holds the process-wide Prometheus collectors for the
// sync engine (spec §4.F's progress reporting, exposed externally for
// scraping rather than polling). Grounded on cuemby-warren's
// pkg/metrics: a package-level var block of collectors registered once
// in init, plus a Timer helper for histogram observations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TasksRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "replicator_tasks_running",
			Help: "Number of sync tasks currently in the running state",
		},
	)

	UnitsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "replicator_units_active",
			Help: "Number of units currently being processed across all tasks",
		},
	)

	UnitsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replicator_units_completed_total",
			Help: "Total number of units that finished, by outcome",
		},
		[]string{"outcome"}, // completed, failed, cancelled
	)

	RecordsReplicatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replicator_records_replicated_total",
			Help: "Total number of records committed to a target, by source kind",
		},
		[]string{"source_kind"},
	)

	BatchesCommittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replicator_batches_committed_total",
			Help: "Total number of batches committed to a target, by source kind",
		},
		[]string{"source_kind"},
	)

	BatchCommitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "replicator_batch_commit_duration_seconds",
			Help:    "Time to write and commit one batch, by source kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source_kind"},
	)

	UnitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "replicator_unit_duration_seconds",
			Help:    "Wall-clock time to run one unit to completion, by outcome",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 3600, 10800},
		},
		[]string{"outcome"},
	)

	DroppedBinaryFieldsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replicator_dropped_binary_fields_total",
			Help: "Total number of distinct binary fields dropped while writing to search targets",
		},
		[]string{"task_id"},
	)
)

func init() {
	prometheus.MustRegister(TasksRunning)
	prometheus.MustRegister(UnitsActive)
	prometheus.MustRegister(UnitsCompletedTotal)
	prometheus.MustRegister(RecordsReplicatedTotal)
	prometheus.MustRegister(BatchesCommittedTotal)
	prometheus.MustRegister(BatchCommitDuration)
	prometheus.MustRegister(UnitDuration)
	prometheus.MustRegister(DroppedBinaryFieldsTotal)
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times one operation for later histogram observation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Observer) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
