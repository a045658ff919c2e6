package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/buildinfo"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/observability"
)

// maxBodySize bounds response bodies read into memory (project files, symbols).
const maxBodySize = 32 << 20

// Client provides shared HTTP functionality for the topology server and icon
// mirrors. It applies default headers, optional basic auth, and reports every
// request to the registered observability.HTTPHooks.
type Client struct {
	http     *http.Client
	headers  map[string]string
	username string
	password string
}

// Option configures a Client.
type Option func(*Client)

// WithBasicAuth sets HTTP basic auth credentials. Empty username disables auth.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = NewHTTPClient(d)
	}
}

// WithHTTPClient replaces the underlying http.Client. Useful in tests with
// httptest servers.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithHeaders sets headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// NewClient creates a Client with the default server timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{http: NewHTTPClient(ServerTimeout)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	data, err := c.GetBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// GetBytes performs an HTTP GET request and returns the raw response body.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// Post performs an HTTP POST with an optional JSON body and discards the
// response body. GNS3 answers some POSTs with 204 No Content.
func (c *Client) Post(ctx context.Context, url string, body any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}
	_, err := c.do(ctx, http.MethodPost, url, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, code)
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
