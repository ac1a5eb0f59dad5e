// Package api is the client for the PyWhiz learning REST API. The session
// credential travels in cookies; the CSRF token from the csrftoken cookie is
// echoed in the X-CSRFToken header on every request.
package api

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
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// DefaultBaseURL is used when no base URL is configured
const DefaultBaseURL = "http://localhost:8000/api"

const (
	// RequestIDHeader carries a per-request correlation id
	RequestIDHeader = "X-Request-ID"
	// CSRFHeader echoes the csrftoken cookie
	CSRFHeader = "X-CSRFToken"

	maxBodySize = 4 << 20
)

// Config configures a Client
type Config struct {
	BaseURL string

	// HTTPClient overrides the default transport. Its Jar is replaced.
	HTTPClient *http.Client

	// BreakerFailures is the number of consecutive failed progress
	// mutations that opens the circuit (default: 3)
	BreakerFailures int

	// BreakerOpenTimeout is how long the circuit stays open (default: 30s)
	BreakerOpenTimeout time.Duration

	Logger *slog.Logger
}

// Client talks to the learning API
type Client struct {
	baseURL *url.URL
	base    string
	http    *http.Client
	jar     *sessionJar
	breaker circuitbreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

// New creates a client for the API rooted at cfg.BaseURL
func New(cfg Config) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", raw)
	}

	jar, err := newSessionJar()
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	httpClient := newHTTPClient()
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		httpClient = &clone
	}
	httpClient.Jar = jar

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = 3
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	c := &Client{
		baseURL: base,
		base:    base.String(),
		http:    httpClient,
		jar:     jar,
		logger:  logger,
	}

	c.breaker = circuitbreaker.New[struct{}](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= failures
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			c.logger.Warn("progress circuit breaker state change",
				"from", from.String(),
				"to", to.String())
		},
	})

	return c, nil
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.base
}

// doRaw sends a request and returns the raw response body of a 2xx reply
func (c *Client) doRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if token := c.cookie(CSRFCookie); token != "" {
		req.Header.Set(CSRFHeader, token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, path, data)
	}
	return data, nil
}

// do sends a request and decodes a JSON reply into out (when non-nil)
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	data, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// mutate sends a progress mutation through the circuit breaker. Only
// transport errors and server faults count as breaker failures.
func (c *Client) mutate(ctx context.Context, path string, body any) error {
	var rejected error
	_, err := c.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := c.doRaw(ctx, http.MethodPost, path, body)
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			rejected = err
			return struct{}{}, nil
		}
		return struct{}{}, err
	})
	if err != nil {
		return err
	}
	return rejected
}

// -----------------------------------------------------------------------------
// Cookies
// -----------------------------------------------------------------------------

func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Cookies returns the cookies the jar would send to the API
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// RestoreCookies loads previously saved cookies into the jar
func (c *Client) RestoreCookies(cookies []*http.Cookie) {
	restored := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		if ck == nil || ck.Name == "" {
			continue
		}
		restored = append(restored, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, restored)
}

// ClearCookies drops every cookie
func (c *Client) ClearCookies() error {
	return c.jar.reset()
}

// HasSession reports whether an access or refresh token cookie is present
func (c *Client) HasSession() bool {
	return c.cookie(AccessTokenCookie) != "" || c.cookie(RefreshTokenCookie) != ""
}

// AccessTokenExpiry decodes the expiry of the access token cookie. The
// signature is not verified; the server remains the authority.
func (c *Client) AccessTokenExpiry() (time.Time, bool) {
	token := c.cookie(AccessTokenCookie)
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		c.logger.Debug("undecodable access token", "error", err)
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
