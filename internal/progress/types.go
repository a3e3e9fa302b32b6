// Package progress implements the progress/log fan-out bus (spec §4.F):
// per-task snapshot aggregation, a bounded log ring, and a handler-based
// dispatcher modeled on the teacher's internal/eventbus.Bus, minus the
// JetStream publish step — there is no distributed-consumer concern
// in scope here, just in-process observers (CLI progress bars, SSE
// streams in cmd/replicatord).
package progress

import (
	"time"

	"github.com/replicator/replicator/internal/store"
)

// EventType names the three observer-facing event kinds (spec §6).
type EventType string

const (
	EventTaskProgress       EventType = "task-progress"
	EventTaskLog            EventType = "task-log"
	EventConnectionTestStep EventType = "connection-test-step"
)

// LogLevel is the severity of a log entry.
type LogLevel string

const (
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// LogCategory groups log entries for filtering (spec §4.F).
type LogCategory string

const (
	CategoryRealtime LogCategory = "realtime"
	CategorySummary  LogCategory = "summary"
	CategoryVerify   LogCategory = "verify"
	CategoryError    LogCategory = "error"
)

// LogEntry is one structured log line attached to a task.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Category  LogCategory
	Message   string
}

// UnitSnapshot is one row of a Snapshot's per-unit array.
type UnitSnapshot struct {
	UnitName         string
	Status           store.UnitStatus
	TotalRecords     int64
	ProcessedRecords int64
	ErrorMessage     string
}

// Snapshot is the per-task progress view published to observers (spec §4.F).
type Snapshot struct {
	TaskID                    string
	Status                    store.TaskStatus
	TotalUnits                int
	CompletedUnits            int
	FailedUnits               int
	TotalRecords              int64
	ProcessedRecords          int64
	Percentage                float64
	StartTime                 time.Time
	Speed                     float64 // records/sec
	EstimatedRemainingSeconds float64
	CurrentUnit               string
	Units                     []UnitSnapshot
}

// ConnectionTestStep reports one step of a test_connection command
// (port connectivity, auth — spec §6).
type ConnectionTestStep struct {
	Name    string
	OK      bool
	Message string
}

// Event is the envelope dispatched to observers. Only the field
// matching Type is populated.
type Event struct {
	Type     EventType
	TaskID   string
	Snapshot *Snapshot
	Log      *LogEntry
	Step     *ConnectionTestStep
}

// Handler observes bus events. Handle must not block for long — the
// bus calls handlers synchronously in registration order (there is no
// priority), matching eventbus.Handler's shape without the
// EventType-filtering Handles() method (every handler here sees every event).
type Handler interface {
	ID() string
	Handle(event Event)
}
