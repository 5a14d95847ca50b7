package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// client speaks the counter registry HTTP API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// health returns nil when /healthz answers 200.
func (c *client) health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, c.baseURL+"/healthz")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: healthz returned %d", ErrUnhealthy, status)
	}
	return nil
}

func (c *client) create(ctx context.Context, name string) error {
	return c.expect(ctx, http.MethodPost, name, http.StatusCreated)
}

func (c *client) remove(ctx context.Context, name string) error {
	return c.expect(ctx, http.MethodDelete, name, http.StatusNoContent)
}

// increment returns the status code and, on 200, the new value.
func (c *client) increment(ctx context.Context, name string) (int, int64, error) {
	status, body, err := c.do(ctx, http.MethodPut, c.counterURL(name))
	if err != nil || status != http.StatusOK {
		return status, 0, err
	}
	v, err := valueOf(body, name)
	return status, v, err
}

func (c *client) read(ctx context.Context, name string) (int64, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.counterURL(name))
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: GET %s returned %d", ErrUnexpectedStatus, name, status)
	}
	return valueOf(body, name)
}

func (c *client) expect(ctx context.Context, method, name string, want int) error {
	status, _, err := c.do(ctx, method, c.counterURL(name))
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, name, status)
	}
	return nil
}

func (c *client) counterURL(name string) string {
	return c.baseURL + "/counters/" + url.PathEscape(name)
}

func (c *client) do(ctx context.Context, method, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// valueOf extracts name's value from a {"name": value} body.
func valueOf(body []byte, name string) (int64, error) {
	var m map[string]int64
	if err := json.Unmarshal(body, &m); err != nil {
		return 0, fmt.Errorf("failed to decode counter %s: %w", name, err)
	}
	v, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("%w: body for %s lacks its key", ErrUnexpectedStatus, name)
	}
	return v, nil
}
