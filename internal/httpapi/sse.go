package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/replicator/replicator/internal/progress"
)

// sseBridge is a progress.Handler that forwards events for one task
// into a buffered channel consumed by the SSE response loop. Handle is
// called synchronously from whichever goroutine published the event
// (scheduler or pipeline), so it must never block — a full channel
// drops the event rather than stall the producer (spec §4.F: emission
// is lossy-latest and best-effort).
type sseBridge struct {
	id     string
	taskID string
	ch     chan progress.Event
}

func newSSEBridge(taskID string) *sseBridge {
	return &sseBridge{id: uuid.NewString(), taskID: taskID, ch: make(chan progress.Event, 64)}
}

func (b *sseBridge) ID() string { return b.id }

func (b *sseBridge) Handle(event progress.Event) {
	if event.TaskID != "" && event.TaskID != b.taskID {
		return
	}
	select {
	case b.ch <- event:
	default:
	}
}

// handleSSEEvents streams task-progress/task-log/connection-test-step
// events for one task (spec §6) as Server-Sent Events until the client
// disconnects. Grounded on steveyegge-beads's http_sse.go: SSE headers,
// a 15s keepalive ticker, one flush per written event.
func (s *Server) handleSSEEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	taskID := r.PathValue("id")
	bridge := newSSEBridge(taskID)
	s.engine.Bus.Register(bridge)
	defer s.engine.Bus.Unregister(bridge.ID())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case event := <-bridge.ch:
			writeSSEEvent(w, event)
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event progress.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\n", event.Type)
	fmt.Fprintf(w, "data: %s\n\n", data)
}
