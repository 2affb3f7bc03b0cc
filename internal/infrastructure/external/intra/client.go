package intra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/epitok/epitok/internal/domain/account"
	"github.com/epitok/epitok/internal/domain/attendance"
	"github.com/epitok/epitok/internal/domain/shared"
	"github.com/epitok/epitok/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the intranet client.
type ClientConfig struct {
	// BaseURL is the intranet root, e.g. "https://intra.epitech.eu".
	// Autologin links are validated against it.
	BaseURL string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// UserAgent is sent with every request
	UserAgent string

	// RateLimiterConfig for request spacing
	RateLimiterConfig RateLimiterConfig

	// Metrics receives request outcomes (optional)
	Metrics *Metrics

	// HTTPClient overrides the default client (optional)
	HTTPClient *http.Client

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		Timeout:           30 * time.Second,
		UserAgent:         "epitok",
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the intranet client. It never retries: every failure is
// returned to the caller, who decides what to do.
type Client struct {
	config            ClientConfig
	httpClient        *http.Client
	logger            *slog.Logger
	rateLimiter       *RateLimiter
	metrics           *Metrics
	mapper            *Mapper
	credentialPattern *regexp.Regexp
}

// NewClient creates a new intranet client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:            config,
		httpClient:        httpClient,
		logger:            config.Logger.With(logger.Component("intra")),
		rateLimiter:       NewRateLimiter(config.RateLimiterConfig),
		metrics:           config.Metrics,
		mapper:            NewMapper(),
		credentialPattern: account.CredentialPattern(config.BaseURL),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSPORT OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetObject fetches url and returns its body as a JSON object.
func (c *Client) GetObject(ctx context.Context, url string) (obj json.RawMessage, err error) {
	defer c.track(http.MethodGet, url, time.Now(), &err)

	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, shared.ErrIntraMalformedResponse
	}
	return json.RawMessage(trimmed), nil
}

// GetArray fetches url and returns the elements of its JSON array body.
// The intranet answers "nothing" with an empty body, null or an object;
// those come back as shared.ErrIntraEmpty rather than a parse error.
func (c *Client) GetArray(ctx context.Context, url string) (items []json.RawMessage, err error) {
	defer c.track(http.MethodGet, url, time.Now(), &err)

	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, shared.ErrIntraEmpty
	}
	if trimmed[0] == '{' && json.Valid(trimmed) {
		return nil, shared.ErrIntraEmpty
	}

	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrIntraMalformedResponse, err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

// PostForm sends form as an application/x-www-form-urlencoded body.
// Any 2xx answer is success; the body is ignored.
func (c *Client) PostForm(ctx context.Context, url string, form attendance.Form) (err error) {
	defer c.track(http.MethodPost, url, time.Now(), &err)

	if form == nil {
		form = attendance.Form{}
	}
	_, err = c.do(ctx, http.MethodPost, url, form)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// track records one finished operation once its body has been classified,
// so empty and malformed answers are not counted as successes.
func (c *Client) track(method, url string, started time.Time, errp *error) {
	endpoint := endpointOf(url)
	latency := time.Since(started)
	c.metrics.observe(endpoint, *errp, latency)
	attrs := []any{
		"method", method,
		"url", logger.Redact(url),
		"endpoint", endpoint,
		"outcome", outcomeOf(*errp),
		logger.Latency(latency),
	}
	if *errp != nil {
		attrs = append(attrs, logger.Err(*errp))
	}
	c.logger.Debug("intra request", attrs...)
}

// do performs a single rate-limited HTTP request and maps the status onto
// the intranet error set.
func (c *Client) do(ctx context.Context, method, url string, form attendance.Form) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrIntraNetwork, err)
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", shared.ErrIntraNetwork, redactErr(err))
	}

	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrIntraNetwork, redactErr(err))
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", shared.ErrIntraMalformedResponse, err)
	}
	return body, nil
}

// statusError maps an HTTP status to the intranet error set.
func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return shared.ErrIntraAccessDenied
	case code == http.StatusNotFound:
		return shared.ErrIntraNotFound
	default:
		return fmt.Errorf("%w: status %d", shared.ErrIntraUnavailable, code)
	}
}

// redactedError keeps the error chain but hides the autologin in its text.
type redactedError struct {
	err error
}

func (e *redactedError) Error() string { return logger.Redact(e.err.Error()) }
func (e *redactedError) Unwrap() error { return e.err }

// redactErr wraps net/http errors, which quote the request URL.
func redactErr(err error) error {
	if err == nil {
		return nil
	}
	return &redactedError{err: err}
}
