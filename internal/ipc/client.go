package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quill/internal/api"
	"quill/internal/config"
	"quill/internal/services"
)

const (
	defaultTimeout = 10 * time.Second
	maxSSELine     = 1 << 20
)

// Client provides HTTP access to the daemon.
type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	stream *http.Client
}

// Error is a decoded API error response.
type Error struct {
	Status  int
	Message string
	Kind    services.ErrorKind
	Hint    string
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Hint)
	}
	return e.Message
}

// Unwrap exposes the services marker matching the error kind.
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return services.ErrConfiguration
	}
	return services.MarkerFor(e.Kind)
}

// Dial builds a client for the daemon described by cfg.
func Dial(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, errors.New("api.bind is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	return New(bind, cfg.API.Token)
}

// New builds a client for baseURL.
func New(baseURL, token string) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse daemon url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("daemon url %q must include scheme and host", baseURL)
	}
	return &Client{
		base:   base,
		token:  strings.TrimSpace(token),
		http:   &http.Client{Timeout: defaultTimeout},
		stream: &http.Client{},
	}, nil
}

// Generate starts a session.
func (c *Client) Generate(ctx context.Context, req api.GenerateRequest) (*api.GenerateResponse, error) {
	var resp api.GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelectStyle resolves the style pause of a session.
func (c *Client) SelectStyle(ctx context.Context, id, style, description string) (*api.StyleResponse, error) {
	var resp api.StyleResponse
	req := api.StyleRequest{Style: style, Description: description}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/style", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cleanup cancels and evicts a session.
func (c *Client) Cleanup(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/cleanup/"+url.PathEscape(id), nil, nil, nil)
}

// Session returns a session snapshot.
func (c *Client) Session(ctx context.Context, id string) (*api.SessionStatus, error) {
	var resp api.SessionStatus
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Result returns the document of a finished session.
func (c *Client) Result(ctx context.Context, id string) (*api.SessionResult, error) {
	var resp api.SessionResult
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id)+"/result", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status, optionally running preflight checks.
func (c *Client) Status(ctx context.Context, preflight bool) (*api.DaemonStatus, error) {
	query := url.Values{}
	if preflight {
		query.Set("preflight", "1")
	}
	var resp api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health retrieves stage executor readiness.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns archived outcomes, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]api.HistoryEntry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp api.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/history", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// Stream reads the session's event feed, calling fn for each event in order.
// It returns nil once the server signals the end of the stream, or fn's
// error if fn fails.
func (c *Client) Stream(ctx context.Context, id string, fn func(api.Event) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/stream/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.stream.Do(req)
	if err != nil {
		return unreachable(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: end" {
			return nil
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var evt api.Event
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read stream: %w", err)
	}
	return services.Wrap(services.ErrUnavailable, "ipc", "stream", "stream closed before the session finished", nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return unreachable(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := *c.base
	target.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	apiErr := &Error{Status: resp.StatusCode}
	var payload api.ErrorResponse
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Kind = services.ErrorKind(payload.Kind)
		apiErr.Hint = payload.Hint
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	if resp.StatusCode == http.StatusUnauthorized && apiErr.Hint == "" {
		apiErr.Hint = "set api.token to match the daemon"
	}
	return apiErr
}

func unreachable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return services.WithHint(
		services.Wrap(services.ErrUnavailable, "ipc", "connect", "daemon unreachable", err),
		"start it with quilld",
	)
}
