// Package engine is the sync engine facade (spec §4.G): it owns no
// business logic of its own beyond lifecycle guards and wiring —
// durable state lives in internal/store, unit selection and execution
// in internal/scheduler, one-unit streaming in internal/pipeline,
// connector construction in internal/connector/factory, and observer
// fan-out in internal/progress. Grounded on steveyegge-beads's
// top-level service struct that wires its storage backend, event bus,
// and background workers behind one facade consumed by both the HTTP
// server and the CLI.
package engine

import (
	"sync"

	"github.com/replicator/replicator/internal/progress"
	"github.com/replicator/replicator/internal/secretbox"
	"github.com/replicator/replicator/internal/store"
)

// Engine wires the durable store, credential cipher, and progress bus
// behind the command surface described in spec §6. One Engine serves
// one process; cmd/replicatord constructs exactly one and shares it
// across all HTTP handlers.
type Engine struct {
	Store   *store.Store
	Secrets *secretbox.Service
	Bus     *progress.Bus
	Rings   *progress.Rings

	mu      sync.Mutex
	running map[string]*taskRun
}

// taskRun tracks one task's in-flight execution so Pause/cancel can
// signal it without any I/O under the lock (spec §5: "no operation
// must ever suspend while holding a lock... all such locks are point
// updates with no I/O inside").
type taskRun struct {
	pause int32 // atomic: set by Pause, polled by the running scheduler loop
	done  chan struct{}
}

// New constructs an Engine. s, secrets, and bus must already be
// initialized (store opened and migrated, secretbox key loaded).
func New(s *store.Store, secrets *secretbox.Service, bus *progress.Bus) *Engine {
	return &Engine{
		Store:   s,
		Secrets: secrets,
		Bus:     bus,
		Rings:   progress.NewRings(),
		running: make(map[string]*taskRun),
	}
}
