// Package rlog provides the structured logging ambient stack for the
// replication engine: a global zerolog logger plus child-logger helpers
// keyed by the identifiers callers care about (task, unit, source).
package rlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance, configured by Init.
var Logger zerolog.Logger

// Config controls the global logger's level and output shape.
type Config struct {
	Level      string // debug|info|warn|error
	JSONOutput bool
	Output     io.Writer
}

// Init configures the global Logger. Safe to call once at process startup.
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func init() {
	// Sane default so packages that log before Init is called (tests,
	// library embedders) don't panic on a zero-value logger.
	Init(Config{Level: "info", JSONOutput: true})
}

// WithTask returns a child logger scoped to a sync task.
func WithTask(taskID string) zerolog.Logger {
	return Logger.With().Str("task_id", taskID).Logger()
}

// WithUnit returns a child logger scoped to a task unit.
func WithUnit(taskID, unitName string) zerolog.Logger {
	return Logger.With().Str("task_id", taskID).Str("unit_name", unitName).Logger()
}

// WithSource returns a child logger scoped to a datasource.
func WithSource(sourceID string) zerolog.Logger {
	return Logger.With().Str("source_id", sourceID).Logger()
}
