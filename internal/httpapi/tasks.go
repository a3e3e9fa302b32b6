package httpapi

import (
	"net/http"

	"github.com/replicator/replicator/internal/store"
)

type createTaskRequest struct {
	Name       string `json:"name"`
	SourceID   string `json:"source_id"`
	TargetID   string `json:"target_id"`
	ConfigJSON string `json:"config_json"`
}

type updateTaskRequest struct {
	Name       string `json:"name"`
	ConfigJSON string `json:"config_json"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.ListTasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.engine.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ctx := r.Context()
	source, err := s.engine.GetDatasource(ctx, req.SourceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown source_id")
		return
	}
	target, err := s.engine.GetDatasource(ctx, req.TargetID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown target_id")
		return
	}

	task := &store.SyncTask{
		Name:       req.Name,
		SourceID:   source.ID,
		TargetID:   target.ID,
		SourceKind: source.Kind,
		TargetKind: target.Kind,
		ConfigJSON: req.ConfigJSON,
	}
	created, err := s.engine.CreateTask(ctx, task)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	existing, err := s.engine.GetTask(ctx, id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	existing.Name = req.Name
	existing.ConfigJSON = req.ConfigJSON
	if err := s.engine.UpdateTask(ctx, existing); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTaskUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.engine.GetTaskUnits(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"units": units})
}

func (s *Server) handleResetFailedUnits(w http.ResponseWriter, r *http.Request) {
	count, err := s.engine.ResetFailedUnits(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleStartSync(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.StartByID(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "running"})
}

func (s *Server) handlePauseSync(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Pause(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleResumeSync(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Resume(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "running"})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.GetProgress(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": s.engine.GetLogs(r.PathValue("id"))})
}

func (s *Server) handleListSynced(w http.ResponseWriter, r *http.Request) {
	entries, err := s.engine.ListSynced(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"synced": entries})
}

func (s *Server) handleClearSynced(w http.ResponseWriter, r *http.Request) {
	count, err := s.engine.ClearSynced(r.Context(), r.PathValue("id"), r.URL.Query().Get("unit"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
