package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/progress"
)

func TestStreamEventsParsesSSEFrames(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "event: task-log\n")
		fmt.Fprint(w, `data: {"Type":"task-log","TaskID":"t1","Log":{"Level":"info","Message":"hello"}}`+"\n\n")
		flusher.Flush()
	}))
	defer ts.Close()

	c := New(ts.URL, "")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []progress.Event
	err := c.StreamEvents(ctx, "t1", func(e progress.Event) { got = append(got, e) })
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, progress.EventTaskLog, got[0].Type)
	require.Equal(t, "hello", got[0].Log.Message)
}
