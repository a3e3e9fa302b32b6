package progress

import (
	"sync"

	"github.com/replicator/replicator/internal/rlog"
)

// Bus dispatches progress/log/connection-test events to registered
// observers. Emission is lossy-latest and best-effort: a handler panic
// or slow handler never blocks the producer beyond its own call, and a
// handler is never retried (spec §4.F).
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Register adds an observer. Registration order is preserved as
// dispatch order — there is no priority concept here, unlike the
// teacher's eventbus (progress observers are not expected to interact).
func (b *Bus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Unregister removes a handler by ID, returning true if one was found.
func (b *Bus) Unregister(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.ID() == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Publish dispatches event to every registered handler. A handler that
// panics is recovered and logged; it never stops the remaining handlers.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		dispatchOne(h, event)
	}
}

func dispatchOne(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			rlog.Logger.Error().Str("handler", h.ID()).Interface("panic", r).
				Msg("progress: handler panicked, dropping emission")
		}
	}()
	h.Handle(event)
}
