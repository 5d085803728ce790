package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"quill/internal/services"
)

const (
	// DefaultGraphQLURL is the public GitHub GraphQL endpoint.
	DefaultGraphQLURL     = "https://api.github.com/graphql"
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryMaxDelay  = 30 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 4
	userAgent             = "Quill-Go/0.1.0"
	serviceName           = "github"
)

// Config captures the settings required to reach the GraphQL API.
type Config struct {
	Token             string
	GraphQLURL        string
	RequestsPerSecond float64
	Burst             int
	TimeoutSeconds    int
}

// Client issues rate-limited GraphQL requests.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter replaces the request limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// WithRetryMaxAttempts overrides the default attempt count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a GraphQL client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	client := &Client{
		cfg: Config{
			Token:             strings.TrimSpace(cfg.Token),
			GraphQLURL:        strings.TrimSpace(cfg.GraphQLURL),
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             burst,
			TimeoutSeconds:    cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		limiter:          rate.NewLimiter(limit, burst),
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.GraphQLURL == "" {
		client.cfg.GraphQLURL = DefaultGraphQLURL
	}
	return client
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
	Secondary  bool
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("github request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// query runs a GraphQL document and decodes the data member into out. A
// NOT_FOUND GraphQL error becomes services.ErrNotFound.
func (c *Client) query(ctx context.Context, op, document string, variables map[string]any, out any) error {
	if c.cfg.Token == "" {
		return services.Wrap(services.ErrConfiguration, serviceName, op, "github token required", nil)
	}
	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limiter: %w", op, err)
		}
		resp, err := c.sendOnce(ctx, graphQLRequest{Query: document, Variables: variables})
		if err == nil {
			return decodeData(op, resp, out)
		}
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return classify(op, err)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return classify(op, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr))
}

func decodeData(op string, resp graphQLResponse, out any) error {
	for _, gqlErr := range resp.Errors {
		if strings.EqualFold(gqlErr.Type, "NOT_FOUND") {
			return services.Wrap(services.ErrNotFound, serviceName, op, strings.TrimSpace(gqlErr.Message), nil)
		}
	}
	if len(resp.Errors) > 0 && len(bytes.TrimSpace(resp.Data)) == 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, gqlErr := range resp.Errors {
			messages = append(messages, strings.TrimSpace(gqlErr.Message))
		}
		return services.Wrap(services.ErrExternalService, serviceName, op, strings.Join(messages, "; "), nil)
	}
	if out == nil || len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return services.Wrap(services.ErrExternalService, serviceName, op, "decode response data", err)
	}
	return nil
}

func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized:
			return services.WithHint(
				services.Wrap(services.ErrConfiguration, serviceName, op, "github rejected the token", err),
				"check github.token or GITHUB_TOKEN",
			)
		case statusErr.StatusCode == http.StatusTooManyRequests, statusErr.Secondary:
			return services.Wrap(services.ErrTransient, serviceName, op, "github rate limit exceeded", err)
		}
	}
	return services.Wrap(services.ErrExternalService, serviceName, op, "github request failed", err)
}

func (c *Client) sendOnce(ctx context.Context, payload graphQLRequest) (graphQLResponse, error) {
	var decoded graphQLResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return decoded, fmt.Errorf("github request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GraphQLURL, bytes.NewReader(encoded))
	if err != nil {
		return decoded, fmt.Errorf("github request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decoded, fmt.Errorf("github request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decoded, fmt.Errorf("github request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return decoded, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
			Secondary:  isSecondaryRateLimit(resp, body),
		}
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return decoded, fmt.Errorf("github request: decode response: %w", err)
	}
	return decoded, nil
}

func isSecondaryRateLimit(resp *http.Response, body []byte) bool {
	if resp.StatusCode != http.StatusForbidden {
		return false
	}
	if resp.Header.Get("Retry-After") != "" || resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return strings.Contains(strings.ToLower(string(body)), "rate limit")
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError,
			statusErr.Secondary:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
