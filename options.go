// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"net/http"
	"time"
)

// Client configuration options using the functional options pattern

// Username sets the username used to log in to the controller
func Username(username string) func(*Client) {
	return func(c *Client) {
		c.username = username
	}
}

// Password sets the password used to log in to the controller
func Password(password string) func(*Client) {
	return func(c *Client) {
		c.password = password
	}
}

// VerifyCertificate enables or disables TLS certificate verification (default: true)
//
// Omada controllers ship with a self-signed certificate, so this is commonly
// disabled for lab controllers.
//
// WARNING: Disabling certificate verification makes the connection vulnerable
// to Man-in-the-Middle attacks.
//
// Example:
//
//	client, _ := omada.NewClient("https://192.168.1.10:8043",
//	    omada.Username("admin"),
//	    omada.Password("secret"),
//	    omada.VerifyCertificate(false))
func VerifyCertificate(verify bool) func(*Client) {
	return func(c *Client) {
		c.VerifyCertificate = verify
	}
}

// RequestTimeout sets the timeout applied to every HTTP attempt (default: 30s)
//
// A login, a request and its single retry are separate attempts, each bounded
// by this timeout unless a Timeout modifier or a context deadline applies.
func RequestTimeout(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.RequestTimeout = duration
	}
}

// SessionCheckInterval sets how long a session is trusted before the client
// asks the controller whether it is still logged in (default: 1h)
func SessionCheckInterval(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.SessionCheckInterval = duration
	}
}

// MinControllerVersion sets the oldest controller version accepted at login (default: 5.1.0)
func MinControllerVersion(version string) func(*Client) {
	return func(c *Client) {
		c.MinControllerVersion = version
	}
}

// UserAgent sets the User-Agent header sent with every request
func UserAgent(userAgent string) func(*Client) {
	return func(c *Client) {
		c.UserAgent = userAgent
	}
}

// HTTPTransport replaces the HTTP transport used for all requests
//
// The transport is shared by every session the client creates. When set,
// VerifyCertificate has no effect: TLS settings belong to the supplied
// transport.
func HTTPTransport(transport http.RoundTripper) func(*Client) {
	return func(c *Client) {
		if transport != nil {
			c.transport = transport
		}
	}
}

// RateLimit limits outbound requests to rps requests per second with the
// given burst. Logins count against the limit. Zero disables limiting (default).
//
// Example:
//
//	client, _ := omada.NewClient("https://omada.local:8043",
//	    omada.Username("admin"),
//	    omada.Password("secret"),
//	    omada.RateLimit(5, 10))
func RateLimit(rps float64, burst int) func(*Client) {
	return func(c *Client) {
		c.rateLimit = rps
		c.rateBurst = burst
	}
}

// WithMetrics attaches Prometheus instrumentation created by NewMetrics
func WithMetrics(metrics *Metrics) func(*Client) {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithLogger configures a custom logger for the client
//
// By default, the client uses NoOpLogger which discards all log messages.
//
// All JSON content logged at Debug level is redacted to remove sensitive
// data (passwords, secrets, keys, tokens).
//
// Example:
//
//	logger := omada.NewDefaultLogger(omada.LogLevelInfo)
//	client, _ := omada.NewClient("https://omada.local:8043",
//	    omada.Username("admin"),
//	    omada.Password("secret"),
//	    omada.WithLogger(logger))
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrettyPrintLogs enables/disables JSON pretty printing in debug logs (default: disabled)
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}

// Request modifiers for individual operations

// Timeout returns a request modifier that sets a custom timeout for the operation.
//
// The timeout priority model is:
//  1. Request-specific timeout (this modifier) - highest priority
//  2. Context deadline (if already set) - medium priority
//  3. Client.RequestTimeout - fallback default
//
// Example:
//
//	res, err := client.Get(ctx, "sites/"+siteID+"/devices",
//	    omada.Timeout(10*time.Second))
func Timeout(duration time.Duration) func(*Req) {
	return func(req *Req) {
		req.Timeout = duration
	}
}

// Query returns a request modifier that adds a URL query parameter
//
// Example:
//
//	res, err := client.Get(ctx, "sites/"+siteID+"/clients",
//	    omada.Query("filters.active", "true"))
func Query(key, value string) func(*Req) {
	return func(req *Req) {
		req.Query.Add(key, value)
	}
}

// WithBody returns a request modifier that attaches a JSON body built with Body
//
// If the Body carries a build error, the request fails before it is sent.
func WithBody(body Body) func(*Req) {
	return func(req *Req) {
		str, err := body.String()
		if err != nil {
			req.err = err
			return
		}
		req.Body = str
	}
}

// RawBody returns a request modifier that attaches a pre-encoded JSON body
func RawBody(json string) func(*Req) {
	return func(req *Req) {
		req.Body = json
	}
}
