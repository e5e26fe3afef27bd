package swipesim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnexpectedStatus is returned when the service answers with a status
// the simulator does not expect.
var ErrUnexpectedStatus = errors.New("unexpected status")

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a JSON request and decodes a JSON answer into out when non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Health probes GET /healthz.
func (c *HTTPClient) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	return err
}

// CreateSession opens a swipe session.
func (c *HTTPClient) CreateSession(ctx context.Context) (CardView, error) {
	var v CardView
	status, err := c.do(ctx, http.MethodPost, "/sessions", nil, &v)
	if err == nil && status != http.StatusCreated {
		err = fmt.Errorf("%w: create session: %d", ErrUnexpectedStatus, status)
	}
	return v, err
}

// CloseSession deletes a swipe session.
func (c *HTTPClient) CloseSession(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, nil)
	return err
}

// Swipe presses the pass/apply button of a session.
func (c *HTTPClient) Swipe(ctx context.Context, id, direction, requestID string) (SwipeResponse, int, error) {
	var out SwipeResponse
	body := map[string]string{"direction": direction, "request_id": requestID}
	status, err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/swipe", body, &out)
	return out, status, err
}

// TrackerStats fetches GET /applications/stats.
func (c *HTTPClient) TrackerStats(ctx context.Context) (TrackerStats, error) {
	var out TrackerStats
	_, err := c.do(ctx, http.MethodGet, "/applications/stats", nil, &out)
	return out, err
}
