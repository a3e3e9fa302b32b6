package httpapi

import (
	"net/http"

	"github.com/replicator/replicator/internal/engine"
	"github.com/replicator/replicator/internal/store"
)

type createDatasourceRequest struct {
	Name            string            `json:"name"`
	Kind            store.EndpointKind `json:"kind"`
	Host            string            `json:"host"`
	Port            int               `json:"port"`
	DefaultDatabase string            `json:"default_database"`
	Username        string            `json:"username"`
	Password        string            `json:"password"`
}

type updateDatasourceRequest struct {
	Name            string  `json:"name"`
	Host            string  `json:"host"`
	Port            int     `json:"port"`
	DefaultDatabase string  `json:"default_database"`
	Username        *string `json:"username"`
	Password        *string `json:"password"`
}

func (s *Server) handleListDatasources(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.ListDatasources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetDatasource(w http.ResponseWriter, r *http.Request) {
	ds, err := s.engine.GetDatasource(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleCreateDatasource(w http.ResponseWriter, r *http.Request) {
	var req createDatasourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ds := &store.Datasource{
		Name:            req.Name,
		Kind:            req.Kind,
		Host:            req.Host,
		Port:            req.Port,
		DefaultDatabase: req.DefaultDatabase,
	}
	created, err := s.engine.CreateDatasource(r.Context(), ds, engine.Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateDatasource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	existing, err := s.engine.GetDatasource(ctx, id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req updateDatasourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	existing.Name = req.Name
	existing.Host = req.Host
	existing.Port = req.Port
	existing.DefaultDatabase = req.DefaultDatabase

	var creds *engine.Credentials
	if req.Username != nil || req.Password != nil {
		c := engine.Credentials{}
		if req.Username != nil {
			c.Username = *req.Username
		}
		if req.Password != nil {
			c.Password = *req.Password
		}
		creds = &c
	}

	if err := s.engine.UpdateDatasource(ctx, existing, creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteDatasource(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteDatasource(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.engine.GetDatasource(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	steps := s.engine.TestConnection(ctx, ds)
	writeJSON(w, http.StatusOK, map[string]interface{}{"steps": steps})
}

func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.engine.GetDatasource(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	names, err := s.engine.ListDatabases(ctx, ds)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"databases": names})
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.engine.GetDatasource(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	names, err := s.engine.ListTables(ctx, ds, r.PathValue("database"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tables": names})
}

func (s *Server) handleListIndices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.engine.GetDatasource(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	names, err := s.engine.ListIndices(ctx, ds, r.URL.Query().Get("pattern"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"indices": names})
}
