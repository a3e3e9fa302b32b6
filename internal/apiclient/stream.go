package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/replicator/replicator/internal/progress"
)

// StreamEvents connects to a task's SSE endpoint and invokes onEvent for
// each task-progress/task-log/connection-test-step event, blocking until
// ctx is cancelled or the connection drops. Grounded on the same SSE
// framing httpapi.writeSSEEvent produces: "event: <type>" then
// "data: <json>" lines separated by a blank line.
func (c *Client) StreamEvents(ctx context.Context, taskID string, onEvent func(progress.Event)) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/tasks/"+taskID+"/events", nil)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: stream events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("apiclient: stream events: status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	var dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimPrefix(line, "data: ")
		case line == "" && dataLine != "":
			var event progress.Event
			if err := json.Unmarshal([]byte(dataLine), &event); err == nil {
				onEvent(event)
			}
			dataLine = ""
		}
	}
	return scanner.Err()
}
