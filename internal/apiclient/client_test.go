package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDoDecodesSuccessResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/tasks", r.URL.Path)
		require.Equal(t, "Bearer shh", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]string{{"ID": "t1"}})
	}))
	defer ts.Close()

	c := New(ts.URL, "shh")
	var out []map[string]string
	err := c.do("GET", "/v1/tasks", nil, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "t1", out[0]["ID"])
}

func TestDoSurfacesErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "config_invalid: boom"})
	}))
	defer ts.Close()

	c := New(ts.URL, "")
	err := c.do("POST", "/v1/tasks", map[string]string{"name": "x"}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "config_invalid: boom")
}

func TestDoWithoutTokenOmitsAuthHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := New(ts.URL, "")
	require.NoError(t, c.do("DELETE", "/v1/tasks/t1", nil, nil))
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	c := New("http://example.test/", "")
	require.Equal(t, "http://example.test", c.baseURL)
}
