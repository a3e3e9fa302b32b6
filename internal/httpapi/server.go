// Package httpapi wraps an internal/engine.Engine behind an HTTP+SSE
// API: JSON command endpoints for spec §6's command surface, plus an
// SSE stream for task-progress/task-log/connection-test-step events.
// Grounded on steveyegge-beads's internal/rpc/http_server.go (health,
// readiness, metrics, bearer-token auth, JSON request/response shape)
// and http_sse.go (flush-per-event SSE loop with a keepalive ticker).
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/replicator/replicator/internal/engine"
	"github.com/replicator/replicator/internal/metrics"
)

// Server wraps an Engine with net/http handlers.
type Server struct {
	engine     *engine.Engine
	httpServer *http.Server
	listener   net.Listener
	addr       string
	token      string // Bearer token; auth is skipped when empty
}

// New constructs a Server. addr is the listen address; an empty token
// disables authentication (suitable for local development only).
func New(e *engine.Engine, addr, token string) *Server {
	s := &Server{engine: e, addr: addr, token: token}
	s.httpServer = &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE connections are long-lived
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start listens on addr and serves until ctx is cancelled, then
// gracefully shuts down within 5 seconds.
func (s *Server) Start(ctx context.Context) error {
	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("httpapi: listen on %s: %w", s.addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	return s.httpServer.Serve(s.listener)
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /v1/datasources", s.auth(s.handleListDatasources))
	mux.HandleFunc("POST /v1/datasources", s.auth(s.handleCreateDatasource))
	mux.HandleFunc("GET /v1/datasources/{id}", s.auth(s.handleGetDatasource))
	mux.HandleFunc("PUT /v1/datasources/{id}", s.auth(s.handleUpdateDatasource))
	mux.HandleFunc("DELETE /v1/datasources/{id}", s.auth(s.handleDeleteDatasource))
	mux.HandleFunc("POST /v1/datasources/{id}/test_connection", s.auth(s.handleTestConnection))
	mux.HandleFunc("GET /v1/datasources/{id}/databases", s.auth(s.handleListDatabases))
	mux.HandleFunc("GET /v1/datasources/{id}/databases/{database}/tables", s.auth(s.handleListTables))
	mux.HandleFunc("GET /v1/datasources/{id}/indices", s.auth(s.handleListIndices))

	mux.HandleFunc("GET /v1/tasks", s.auth(s.handleListTasks))
	mux.HandleFunc("POST /v1/tasks", s.auth(s.handleCreateTask))
	mux.HandleFunc("GET /v1/tasks/{id}", s.auth(s.handleGetTask))
	mux.HandleFunc("PUT /v1/tasks/{id}", s.auth(s.handleUpdateTask))
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.auth(s.handleDeleteTask))
	mux.HandleFunc("GET /v1/tasks/{id}/units", s.auth(s.handleGetTaskUnits))
	mux.HandleFunc("POST /v1/tasks/{id}/reset_failed_units", s.auth(s.handleResetFailedUnits))
	mux.HandleFunc("POST /v1/tasks/{id}/start", s.auth(s.handleStartSync))
	mux.HandleFunc("POST /v1/tasks/{id}/pause", s.auth(s.handlePauseSync))
	mux.HandleFunc("POST /v1/tasks/{id}/resume", s.auth(s.handleResumeSync))
	mux.HandleFunc("GET /v1/tasks/{id}/progress", s.auth(s.handleGetProgress))
	mux.HandleFunc("GET /v1/tasks/{id}/logs", s.auth(s.handleGetLogs))
	mux.HandleFunc("GET /v1/tasks/{id}/events", s.auth(s.handleSSEEvents))

	mux.HandleFunc("GET /v1/sources/{id}/synced", s.auth(s.handleListSynced))
	mux.HandleFunc("DELETE /v1/sources/{id}/synced", s.auth(s.handleClearSynced))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// auth wraps h with Bearer-token enforcement when s.token is set.
func (s *Server) auth(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			h(w, r)
			return
		}
		const prefix = "Bearer "
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) <= len(prefix) || authHeader[:len(prefix)] != prefix || authHeader[len(prefix):] != s.token {
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
