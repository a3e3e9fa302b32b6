package store

import (
	"time"

	"github.com/replicator/replicator/internal/model"
)

// EndpointKind is the family a datasource belongs to.
type EndpointKind string

const (
	KindRelational EndpointKind = "relational"
	KindSearch     EndpointKind = "search"
)

// UnitType names what a unit is: a table (relational) or an index (search).
type UnitType string

const (
	UnitTable UnitType = "table"
	UnitIndex UnitType = "index"
)

// TaskStatus is the lifecycle state of a SyncTask.
type TaskStatus string

const (
	TaskIdle      TaskStatus = "idle"
	TaskRunning   TaskStatus = "running"
	TaskPaused    TaskStatus = "paused"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// UnitStatus is the lifecycle state of a single unit within a task.
type UnitStatus string

const (
	UnitPending   UnitStatus = "pending"
	UnitRunning   UnitStatus = "running"
	UnitCompleted UnitStatus = "completed"
	UnitFailed    UnitStatus = "failed"
)

// ErrorStrategy controls scheduler behavior when a unit fails.
type ErrorStrategy string

const (
	ErrorStrategySkip  ErrorStrategy = "skip"
	ErrorStrategyPause ErrorStrategy = "pause"
)

// TargetExistsStrategy controls writer.prepare_target when the target
// table/index already exists. Defined in internal/model so connectors
// can consume it without importing internal/store.
type TargetExistsStrategy = model.TargetExistsStrategy

const (
	TargetDrop     = model.TargetDrop
	TargetTruncate = model.TargetTruncate
	TargetBackup   = model.TargetBackup
)

// Datasource is a configured connection to a relational or search endpoint.
type Datasource struct {
	ID              string
	Name            string
	Kind            EndpointKind
	Host            string
	Port            int
	AuthBlob        string // encrypted at rest via internal/secretbox
	DefaultDatabase string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SyncTask is a user-defined (source, target, units, policy) plan.
type SyncTask struct {
	ID          string
	Name        string
	Description string
	SourceID    string
	TargetID    string
	SourceKind  EndpointKind
	TargetKind  EndpointKind
	ConfigJSON  string
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// RunStartedAt is when the current (or most recent) run began —
	// set by UpdateTaskRunStarted on every StartByID, and used by
	// progress.Build instead of UpdatedAt so speed/ETA aren't skewed
	// by the last progress write (spec §4.F). Zero until the task has
	// ever been started.
	RunStartedAt time.Time
}

// TaskUnitConfig records that a unit was selected for a task.
type TaskUnitConfig struct {
	TaskID        string
	UnitName      string
	UnitType      UnitType
	SearchPattern string // the keyword that selected this unit, if any
}

// TaskUnitRuntime is the in-flight mutable state of one unit in one task.
type TaskUnitRuntime struct {
	TaskID             string
	UnitName           string
	Status             UnitStatus
	TotalRecords       int64
	ProcessedRecords   int64
	ErrorMessage       string
	StartedAt          *time.Time
	LastProcessedBatch int64
	RetryCount         int
	UpdatedAt          time.Time
}

// TaskUnitHistory is an append-only record of a completed unit.
type TaskUnitHistory struct {
	ID            int64
	TaskID        string
	UnitName      string
	SearchPattern string
	TotalRecords  int64
	CompletedAt   time.Time
	DurationMS    int64
}

// SyncedIndex is the cross-task ledger entry for (source_id, unit_name).
type SyncedIndex struct {
	SourceID      string
	UnitName      string
	FirstSyncedAt time.Time
	LastSyncedAt  time.Time
	SyncCount     int64
	LastTaskID    string
}
