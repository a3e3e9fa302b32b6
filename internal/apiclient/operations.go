package apiclient

import (
	"fmt"
	"net/url"

	"github.com/replicator/replicator/internal/progress"
	"github.com/replicator/replicator/internal/store"
)

func (c *Client) ListDatasources() ([]*store.Datasource, error) {
	var out []*store.Datasource
	err := c.do("GET", "/v1/datasources", nil, &out)
	return out, err
}

func (c *Client) GetDatasource(id string) (*store.Datasource, error) {
	var out store.Datasource
	err := c.do("GET", "/v1/datasources/"+id, nil, &out)
	return &out, err
}

type CreateDatasourceRequest struct {
	Name            string              `json:"name"`
	Kind            store.EndpointKind  `json:"kind"`
	Host            string              `json:"host"`
	Port            int                 `json:"port"`
	DefaultDatabase string              `json:"default_database"`
	Username        string              `json:"username"`
	Password        string              `json:"password"`
}

func (c *Client) CreateDatasource(req CreateDatasourceRequest) (*store.Datasource, error) {
	var out store.Datasource
	err := c.do("POST", "/v1/datasources", req, &out)
	return &out, err
}

func (c *Client) DeleteDatasource(id string) error {
	return c.do("DELETE", "/v1/datasources/"+id, nil, nil)
}

func (c *Client) TestConnection(id string) ([]progress.ConnectionTestStep, error) {
	var out struct {
		Steps []progress.ConnectionTestStep `json:"steps"`
	}
	err := c.do("POST", "/v1/datasources/"+id+"/test_connection", nil, &out)
	return out.Steps, err
}

func (c *Client) ListDatabases(id string) ([]string, error) {
	var out struct {
		Databases []string `json:"databases"`
	}
	err := c.do("GET", "/v1/datasources/"+id+"/databases", nil, &out)
	return out.Databases, err
}

func (c *Client) ListTables(id, database string) ([]string, error) {
	var out struct {
		Tables []string `json:"tables"`
	}
	err := c.do("GET", fmt.Sprintf("/v1/datasources/%s/databases/%s/tables", id, url.PathEscape(database)), nil, &out)
	return out.Tables, err
}

func (c *Client) ListIndices(id, pattern string) ([]string, error) {
	path := "/v1/datasources/" + id + "/indices"
	if pattern != "" {
		path += "?pattern=" + url.QueryEscape(pattern)
	}
	var out struct {
		Indices []string `json:"indices"`
	}
	err := c.do("GET", path, nil, &out)
	return out.Indices, err
}

func (c *Client) ListTasks() ([]*store.SyncTask, error) {
	var out []*store.SyncTask
	err := c.do("GET", "/v1/tasks", nil, &out)
	return out, err
}

func (c *Client) GetTask(id string) (*store.SyncTask, error) {
	var out store.SyncTask
	err := c.do("GET", "/v1/tasks/"+id, nil, &out)
	return &out, err
}

type CreateTaskRequest struct {
	Name       string `json:"name"`
	SourceID   string `json:"source_id"`
	TargetID   string `json:"target_id"`
	ConfigJSON string `json:"config_json"`
}

func (c *Client) CreateTask(req CreateTaskRequest) (*store.SyncTask, error) {
	var out store.SyncTask
	err := c.do("POST", "/v1/tasks", req, &out)
	return &out, err
}

func (c *Client) DeleteTask(id string) error {
	return c.do("DELETE", "/v1/tasks/"+id, nil, nil)
}

func (c *Client) GetTaskUnits(id string) ([]store.TaskUnitRuntime, error) {
	var out struct {
		Units []store.TaskUnitRuntime `json:"units"`
	}
	err := c.do("GET", "/v1/tasks/"+id+"/units", nil, &out)
	return out.Units, err
}

func (c *Client) ResetFailedUnits(id string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.do("POST", "/v1/tasks/"+id+"/reset_failed_units", nil, &out)
	return out.Count, err
}

func (c *Client) StartSync(id string) error  { return c.do("POST", "/v1/tasks/"+id+"/start", nil, nil) }
func (c *Client) PauseSync(id string) error  { return c.do("POST", "/v1/tasks/"+id+"/pause", nil, nil) }
func (c *Client) ResumeSync(id string) error { return c.do("POST", "/v1/tasks/"+id+"/resume", nil, nil) }

func (c *Client) GetProgress(id string) (*progress.Snapshot, error) {
	var out progress.Snapshot
	err := c.do("GET", "/v1/tasks/"+id+"/progress", nil, &out)
	return &out, err
}

func (c *Client) GetLogs(id string) ([]progress.LogEntry, error) {
	var out struct {
		Logs []progress.LogEntry `json:"logs"`
	}
	err := c.do("GET", "/v1/tasks/"+id+"/logs", nil, &out)
	return out.Logs, err
}

func (c *Client) ListSynced(sourceID string) ([]store.SyncedIndex, error) {
	var out struct {
		Synced []store.SyncedIndex `json:"synced"`
	}
	err := c.do("GET", "/v1/sources/"+sourceID+"/synced", nil, &out)
	return out.Synced, err
}

func (c *Client) ClearSynced(sourceID, unitName string) (int, error) {
	path := "/v1/sources/" + sourceID + "/synced"
	if unitName != "" {
		path += "?unit=" + url.QueryEscape(unitName)
	}
	var out struct {
		Count int `json:"count"`
	}
	err := c.do("DELETE", path, nil, &out)
	return out.Count, err
}
