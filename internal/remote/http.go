package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mschirtzinger/planner/internal/task"
)

// HTTPClient implements Client against the HTTP API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient creates a client for the API rooted at baseURL. A zero
// timeout means 10 seconds.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API root the client was created with.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// FetchUndeletedTasks implements Client.
func (c *HTTPClient) FetchUndeletedTasks(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	if err := c.do(ctx, OpFetchUndeleted, http.MethodGet, "/api/tasks/undeleted", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// FetchTaskCount implements Client.
func (c *HTTPClient) FetchTaskCount(ctx context.Context) (int, error) {
	var count int
	if err := c.do(ctx, OpFetchCount, http.MethodGet, "/api/tasks/count", nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// PushTask implements Client.
func (c *HTTPClient) PushTask(ctx context.Context, t task.Task) error {
	return c.do(ctx, OpPushTask, http.MethodPost, "/api/task", t, nil)
}

// PushBatch implements Client.
func (c *HTTPClient) PushBatch(ctx context.Context, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	return c.do(ctx, OpPushBatch, http.MethodPost, "/api/tasks", tasks, nil)
}

// do performs one request. Transport failures become *NetworkError, non-2xx
// responses become *ServerError.
func (c *HTTPClient) do(ctx context.Context, op Op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &ServerError{Op: op, Code: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A truncated body is a transport problem, not a rejection.
		return &NetworkError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
