// Package api is the HTTP client for the stockdash backend: login, the
// per-user UI config (hydrate/save), the admin broadcast, and the global
// LMS screen configuration.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockdash/internal/jsonutil"
	"stockdash/internal/layout"
)

// DefaultURL is the backend base URL when none is configured.
const DefaultURL = "http://localhost:8000"

// URLEnv overrides the backend base URL.
const URLEnv = "STOCKDASH_API_URL"

const (
	pathLogin        = "/api/v1/login"
	pathUserConfig   = "/api/v1/lms/user-config"
	pathPush         = "/api/v1/lms/push-user-config"
	pathLMSConfig    = "/api/v1/lms/config"
	pathGlobalConfig = "/api/v1/lms/global-config"
)

var (
	// ErrUnauthorized is returned for 401 responses (missing or stale token).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned for 403 responses (non-admin broadcast).
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited is returned for 429 responses.
	ErrRateLimited = errors.New("rate limited")
)

// Error is a non-2xx response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Is maps status codes onto the sentinel errors.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken sets an existing bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client talks to the backend. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
	log     zerolog.Logger

	mu    sync.Mutex
	token string
	user  User
	// config entries of the user that are not layouts, sent back on save
	extra map[string]json.RawMessage
}

// New creates a client for baseURL. An empty baseURL resolves to
// STOCKDASH_API_URL, then DefaultURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv(URLEnv)
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		tracer:  otel.Tracer("stockdash/api"),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Authenticated reports whether a token is held.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

// User returns the account of the last successful login.
func (c *Client) User() User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Logout drops the token.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.user = User{}
	c.extra = nil
}

// Login exchanges credentials for a bearer token and keeps it.
func (c *Client) Login(ctx context.Context, login, password string) (LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, LoginRequest{Login: login, Password: password}, &resp); err != nil {
		return LoginResponse{}, fmt.Errorf("login: %w", err)
	}
	c.mu.Lock()
	c.token = resp.Token
	c.user = resp.User
	c.extra = nil
	c.mu.Unlock()
	return resp, nil
}

// GetUserConfig fetches the current user's saved layouts keyed by storage key.
// Entries that are not layouts are kept by the client and written back by
// SaveUserConfig.
func (c *Client) GetUserConfig(ctx context.Context) (map[string]layout.State, error) {
	var resp UserConfig
	if err := c.do(ctx, http.MethodGet, pathUserConfig, nil, &resp); err != nil {
		return nil, fmt.Errorf("get user config: %w", err)
	}
	layouts, skipped := DecodeLayouts(resp.Config)
	extra := make(map[string]json.RawMessage, len(skipped))
	for _, key := range skipped {
		extra[key] = resp.Config[key]
	}
	if len(skipped) > 0 {
		c.log.Debug().Strs("keys", skipped).Msg("keeping non-layout user config entries")
	}
	c.mu.Lock()
	c.extra = extra
	c.mu.Unlock()
	return layouts, nil
}

// SaveUserConfig replaces the current user's saved layouts. Non-layout
// entries seen by the last GetUserConfig are saved along with them.
func (c *Client) SaveUserConfig(ctx context.Context, layouts map[string]layout.State) error {
	cfg, err := EncodeLayouts(layouts)
	if err != nil {
		return fmt.Errorf("save user config: %w", err)
	}
	c.mu.Lock()
	for key, raw := range c.extra {
		if _, ok := cfg[key]; !ok {
			cfg[key] = raw
		}
	}
	c.mu.Unlock()
	if err := c.do(ctx, http.MethodPut, pathUserConfig, ConfigPayload{Config: cfg}, nil); err != nil {
		return fmt.Errorf("save user config: %w", err)
	}
	return nil
}

// PushUserConfig applies layouts to every user and returns how many were
// updated.
func (c *Client) PushUserConfig(ctx context.Context, layouts map[string]layout.State) (int, error) {
	cfg, err := EncodeLayouts(layouts)
	if err != nil {
		return 0, fmt.Errorf("push user config: %w", err)
	}
	var resp PushResult
	if err := c.do(ctx, http.MethodPost, pathPush, ConfigPayload{Config: cfg}, &resp); err != nil {
		return 0, fmt.Errorf("push user config: %w", err)
	}
	return resp.UpdatedUsers, nil
}

// GetLMSConfig fetches the global screen configuration.
func (c *Client) GetLMSConfig(ctx context.Context) (LMSConfig, error) {
	var resp LMSConfig
	if err := c.do(ctx, http.MethodGet, pathLMSConfig, nil, &resp); err != nil {
		return LMSConfig{}, fmt.Errorf("get lms config: %w", err)
	}
	return resp, nil
}

// UpdateLMSConfig replaces the global screen configuration.
func (c *Client) UpdateLMSConfig(ctx context.Context, cfg LMSConfig) (LMSConfig, error) {
	var resp LMSConfig
	if err := c.do(ctx, http.MethodPut, pathGlobalConfig, cfg, &resp); err != nil {
		return LMSConfig{}, fmt.Errorf("update lms config: %w", err)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", resp.StatusCode),
	)
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api request")

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		var eb ErrorBody
		if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
			apiErr.Message = eb.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return jsonutil.UnmarshalWithContext(data, out, "decode response")
}
