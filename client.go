// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Default client configuration values
const (
	DefaultRequestTimeout       = 30 * time.Second
	DefaultSessionCheckInterval = 1 * time.Hour // Controllers keep idle sessions for at least this long
	DefaultPageSize             = 100
	DefaultVerifyCertificate    = true
	DefaultPrettyPrintLogs      = false
	DefaultUserAgent            = "go-omada"
)

// Security limits for JSON processing and logging
const (
	MaxJSONSizeForLogging = 1 * 1024 * 1024  // 1MB limit to prevent ReDoS attacks
	MaxSensitiveFields    = 1000             // Max redaction operations to prevent DoS
	MaxResponseSize       = 32 * 1024 * 1024 // Responses larger than this are rejected
)

// Logging message constants
const (
	JSONTooLargeMessage     = "[JSON TOO LARGE FOR LOGGING]"
	JSONTooManySensitiveMsg = "[JSON CONTAINS TOO MANY SENSITIVE FIELDS]"
)

// sensitiveFields are the JSON keys whose string values are redacted in logs
var sensitiveFields = []string{"password", "secret", "key", "token", "auth", "psk"}

// defaultRedactionPatterns contains one regex per entry in sensitiveFields
var defaultRedactionPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(sensitiveFields))
	for _, field := range sensitiveFields {
		patterns = append(patterns, regexp.MustCompile(`"`+field+`"\s*:\s*"[^"]*"`))
	}
	return patterns
}()

// Client is the session manager for a single Omada controller
//
// A Client owns at most one live login session. The session is created on
// the first authenticated call, re-created once when the controller reports
// it expired, and dropped by Invalidate, Logout or Close. Concurrent callers
// that need a fresh session share one in-flight login.
//
// Client is safe for concurrent use.
type Client struct {
	// URL is the controller base URL, e.g. "https://192.168.1.10:8043"
	URL string

	baseURL *url.URL

	username string // unexported for security
	password string // unexported for security

	// TLS options
	VerifyCertificate  bool
	InsecureSkipVerify bool // Alias for !VerifyCertificate

	// Timeout configuration
	RequestTimeout       time.Duration
	SessionCheckInterval time.Duration

	// MinControllerVersion is the oldest controller version accepted at login
	MinControllerVersion string

	// UserAgent is sent with every request
	UserAgent string

	transport http.RoundTripper
	rateLimit float64
	rateBurst int
	limiter   *rate.Limiter
	metrics   *Metrics

	// mu guards every field below
	mu        sync.Mutex
	sess      *session
	state     SessionState
	sessionID uint64
	info      *ControllerInfo
	closed    bool

	// logins deduplicates concurrent login attempts
	logins singleflight.Group

	// Logging configuration
	logger            Logger
	prettyPrintLogs   bool
	redactionPatterns []*regexp.Regexp
}

// NewClient creates a new Omada client for the controller at controllerURL
//
// No request is sent here. The controller is contacted on the first
// authenticated call (lazy login). Call Login to verify connectivity and
// credentials explicitly.
//
// A URL without a scheme is treated as https.
//
// Example:
//
//	client, err := omada.NewClient(
//	    "https://192.168.1.10:8043",
//	    omada.Username("admin"),
//	    omada.Password("secret"),
//	    omada.VerifyCertificate(false),
//	    omada.RequestTimeout(10*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)  // Configuration error
//	}
//	defer client.Close()
//
//	// Optional: verify credentials explicitly
//	if err := client.Login(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Logs in on first use
//	res, err := client.Get(ctx, "users/current")
//
// Returns a configured Client or an error if configuration validation fails.
func NewClient(controllerURL string, opts ...func(*Client)) (*Client, error) {
	client := &Client{
		URL:                  strings.TrimSpace(controllerURL),
		VerifyCertificate:    DefaultVerifyCertificate,
		RequestTimeout:       DefaultRequestTimeout,
		SessionCheckInterval: DefaultSessionCheckInterval,
		MinControllerVersion: DefaultMinControllerVersion,
		UserAgent:            DefaultUserAgent,
		state:                StateUnauthenticated,
		logger:               &NoOpLogger{},
		prettyPrintLogs:      DefaultPrettyPrintLogs,
		redactionPatterns:    defaultRedactionPatterns,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.InsecureSkipVerify = !client.VerifyCertificate

	if err := client.validateConfig(); err != nil {
		return nil, err
	}

	if client.transport == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: client.InsecureSkipVerify, //nolint:gosec // Controlled by VerifyCertificate option
			MinVersion:         tls.VersionTLS12,
		}
		client.transport = transport
	}

	if client.rateLimit > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(client.rateLimit), client.rateBurst)
	}

	client.logger.Info(context.Background(), "Omada client created",
		"url", client.baseURL.Redacted(),
		"login", "lazy")

	return client, nil
}

// validateConfig validates client configuration
//
// Validates:
//   - URL is non-empty, parses, and uses http or https
//   - Positive timeouts (RequestTimeout, SessionCheckInterval > 0)
//   - MinControllerVersion is a valid version
//   - Rate limit parameters
//
// Returns an error if validation fails.
func (c *Client) validateConfig() error {
	if c.URL == "" {
		return fmt.Errorf("controller URL cannot be empty")
	}

	raw := c.URL
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid controller URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid controller URL scheme: %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid controller URL: missing host")
	}
	u.Path, u.RawQuery, u.Fragment = "", "", ""
	c.baseURL = u
	c.URL = u.String()

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %v", c.RequestTimeout)
	}
	if c.SessionCheckInterval <= 0 {
		return fmt.Errorf("session check interval must be positive, got: %v", c.SessionCheckInterval)
	}
	if _, err := canonicalVersion(c.MinControllerVersion); err != nil {
		return fmt.Errorf("invalid minimum controller version: %w", err)
	}
	if c.rateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative, got: %v", c.rateLimit)
	}
	if c.rateLimit > 0 && c.rateBurst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got: %d", c.rateBurst)
	}

	if u.Scheme == "https" && c.InsecureSkipVerify {
		c.logger.Warn(context.Background(), "InsecureSkipVerify enabled - TLS certificate verification disabled",
			"url", u.Redacted(),
			"security_risk", "Man-in-the-Middle attacks possible")
	}
	if u.Scheme == "http" {
		c.logger.Warn(context.Background(), "TLS disabled - connection is not encrypted",
			"url", u.Redacted(),
			"security_risk", "Credentials transmitted in clear text")
	}

	if !c.HasCredentials() {
		c.logger.Warn(context.Background(), "No credentials configured",
			"url", u.Redacted(),
			"message", "controller will reject login")
	}

	return nil
}

// HasCredentials returns true if credentials are configured
//
// This method only indicates if credentials exist without exposing
// the actual values.
func (c *Client) HasCredentials() bool {
	return c.username != "" || c.password != ""
}

// Close drops the session and makes the client unusable (terminal operation).
//
// Close does not contact the controller. Call Logout first to end the
// session on the controller side as well.
//
// Safe to call multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.sess = nil
	c.state = StateUnauthenticated

	if t, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}

	c.logger.Info(context.Background(), "Omada client closed",
		"url", c.baseURL.Redacted(),
		"reusable", false)

	return nil
}

// endpointURL builds the URL of an authenticated API endpoint
func (c *Client) endpointURL(controllerID string, req *Req) string {
	u := *c.baseURL
	u.Path = "/" + controllerID + "/api/v2/" + req.Path
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String()
}

// rootURL builds the URL of an unauthenticated endpoint such as /api/info
func (c *Client) rootURL(path string, req *Req) string {
	u := *c.baseURL
	u.Path = path
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String()
}

// prepareJSONForLogging redacts sensitive data and formats JSON for logging
//
// This method performs security checks and data sanitization:
//  1. Validates JSON size to prevent ReDoS attacks (max 1MB)
//  2. Checks sensitive field count to prevent DoS (max 1000 fields)
//  3. Redacts sensitive data (passwords, secrets, keys, tokens)
//  4. Pretty-prints JSON if prettyPrintLogs is enabled
//
// Returns the processed JSON string safe for logging.
func (c *Client) prepareJSONForLogging(jsonStr string) string {
	if len(jsonStr) > MaxJSONSizeForLogging {
		return JSONTooLargeMessage
	}

	sensitiveCount := 0
	for _, field := range sensitiveFields {
		sensitiveCount += strings.Count(jsonStr, `"`+field+`"`)
	}
	if sensitiveCount > MaxSensitiveFields {
		c.logger.Warn(context.Background(), "Too many sensitive fields detected",
			"count", sensitiveCount,
			"max", MaxSensitiveFields)
		return JSONTooManySensitiveMsg
	}

	redacted := c.redactSensitiveData(jsonStr)

	if c.prettyPrintLogs {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(redacted), "", "  "); err == nil {
			return buf.String()
		}
	}

	return redacted
}

// redactSensitiveData replaces the string value of every sensitive field with [REDACTED]
//
// Handles flexible whitespace around colons (RFC 8259 compliant).
func (c *Client) redactSensitiveData(jsonStr string) string {
	result := jsonStr
	for i, pattern := range c.redactionPatterns {
		if i >= len(sensitiveFields) {
			break
		}
		result = pattern.ReplaceAllString(result, `"`+sensitiveFields[i]+`":"[REDACTED]"`)
	}
	return result
}
