// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the client for the news backend's authentication
// endpoints.
//
// Only server-side session invalidation is implemented. Token acquisition and
// refresh happen elsewhere.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the development backend.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultLogoutPath is appended to the base URL for InvalidateSession.
	DefaultLogoutPath = "/auth/logout/"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second

	// DefaultRequestsPerSecond limits how fast the client calls the backend.
	DefaultRequestsPerSecond = 2.0

	// MaxResponseSize caps how much of a response body is read.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 64 * 1024

	// RequestIDHeader carries a per-request UUID for server-side correlation.
	RequestIDHeader = "X-Request-ID"

	userAgent = "newsdesk/0.1"
)

// ErrNotConfigured indicates that no backend URL is set.
var ErrNotConfigured = errors.New("api base URL not configured")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected response: %s", e.Status)
	}
	return fmt.Sprintf("unexpected response: HTTP %d", e.StatusCode)
}

// Config configures a Client.
type Config struct {
	BaseURL           string
	LogoutPath        string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// DefaultConfig returns the configuration for a local development backend.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		LogoutPath:        DefaultLogoutPath,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
	}
}

// Client talks to the backend's authentication endpoints. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	logoutPath string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client. A nil logger discards log output.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = DefaultLogoutPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		logoutPath: "/" + strings.TrimPrefix(cfg.LogoutPath, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client (tests, custom TLS).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// IsConfigured reports whether a backend URL is set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// LogoutURL returns the full invalidation endpoint.
func (c *Client) LogoutURL() string {
	return c.baseURL + c.logoutPath
}

// logoutRequest is the invalidation body. A nil Refresh encodes as null.
type logoutRequest struct {
	Refresh *string `json:"refresh"`
}

// InvalidateSession asks the backend to invalidate the session identified by
// refreshToken. An empty token is sent as null. Any 2xx response is success.
func (c *Client) InvalidateSession(ctx context.Context, refreshToken string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	var body logoutRequest
	if refreshToken != "" {
		body.Refresh = &refreshToken
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode logout request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.LogoutURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(RequestIDHeader, requestID)

	// SECURITY: Never log the body or headers, they carry the refresh token.
	c.logger.Debug("api.request", "method", req.Method, "path", req.URL.Path, "request_id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))

	c.logger.Debug("api.response",
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}
