// Package client talks to a running hexworlds server over its HTTP API.
// It is what hexctl uses; nothing here touches the document directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/editor"
	"github.com/talgya/hexworlds/internal/persistence"
	"github.com/talgya/hexworlds/internal/world"
)

// APIError is a non-2xx response.
type APIError struct {
	Method string
	Path   string
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Status, e.Msg)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client is a hexworlds API client.
type Client struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// New creates a Client targeting the given base URL.
func New(baseURL, adminKey string) *Client {
	return &Client{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Share is the response of a share request.
type Share struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// GenerateRequest overrides generator defaults. Nil fields keep the
// server's defaults.
type GenerateRequest struct {
	Radius        *int     `json:"radius,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
	SeaLevel      *float64 `json:"seaLevel,omitempty"`
	MountainLevel *float64 `json:"mountainLevel,omitempty"`
	Rivers        *int     `json:"rivers,omitempty"`
}

// Status fetches the session summary.
func (c *Client) Status(ctx context.Context) (*editor.Status, error) {
	var st editor.Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Export fetches the current world file.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/api/v1/map")
}

// Import replaces the server's map with a world file.
func (c *Client) Import(ctx context.Context, data []byte) (document.Counts, error) {
	var res struct {
		Counts document.Counts `json:"counts"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/map", json.RawMessage(data), &res); err != nil {
		return document.Counts{}, err
	}
	return res.Counts, nil
}

// Generate replaces the server's map with a generated one.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*editor.Status, error) {
	var st editor.Status
	if err := c.do(ctx, http.MethodPost, "/api/v1/map/generate", req, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Save forces a save of the server's map.
func (c *Client) Save(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/save", nil, nil)
}

// Share publishes a snapshot of the current map.
func (c *Client) Share(ctx context.Context) (*Share, error) {
	var s Share
	if err := c.do(ctx, http.MethodPost, "/api/v1/share", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Events fetches the newest activity log entries.
func (c *Client) Events(ctx context.Context, limit int) ([]persistence.Event, error) {
	var res struct {
		Events []persistence.Event `json:"events"`
	}
	path := "/api/v1/events?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Events, nil
}

// Notices fetches the newest user-facing notices.
func (c *Client) Notices(ctx context.Context) ([]editor.Notice, error) {
	var res struct {
		Notices []editor.Notice `json:"notices"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/notices", nil, &res); err != nil {
		return nil, err
	}
	return res.Notices, nil
}

// Render fetches a PNG of the main view, or of the minimap when minimap
// is set.
func (c *Client) Render(ctx context.Context, minimap bool) ([]byte, error) {
	path := "/api/v1/render/main.png"
	if minimap {
		path = "/api/v1/render/minimap.png"
	}
	return c.get(ctx, path)
}

// Paint sets the terrain at c using the server's current brush.
func (c *Client) Paint(ctx context.Context, at world.HexCoord, terrain world.Terrain) error {
	path := fmt.Sprintf("/api/v1/hex/%d/%d", at.Q, at.R)
	return c.do(ctx, http.MethodPut, path, map[string]any{"terrain": terrain}, nil)
}

// WaitReady polls the status endpoint with exponential backoff until the
// server answers or ctx ends.
func (c *Client) WaitReady(ctx context.Context) error {
	backoff := 250 * time.Millisecond
	maxBackoff := 5 * time.Second
	for {
		_, err := c.Status(ctx)
		if err == nil {
			return nil
		}
		slog.Debug("server not ready, retrying", "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", c.BaseURL, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// Watch streams status changes from the websocket feed into fn until ctx
// ends or the connection drops.
func (c *Client) Watch(ctx context.Context, fn func(editor.Status)) error {
	u, err := url.Parse(c.BaseURL + "/api/v1/ws")
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var ev struct {
			Type   string        `json:"type"`
			Status editor.Status `json:"status"`
		}
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read feed: %w", err)
		}
		if ev.Type == "status" {
			fn(ev.Status)
		}
	}
}

// do sends body as JSON and decodes a JSON response into target. A nil
// target discards the body.
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		rd = bytes.NewReader(data)
	}
	resp, err := c.send(ctx, method, path, rd)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if target == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// get returns the response body unchanged.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AdminKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.AdminKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(data))
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			msg = body.Error
		}
		return nil, &APIError{Method: method, Path: path, Status: resp.StatusCode, Msg: msg}
	}
	return resp, nil
}
