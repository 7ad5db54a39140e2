// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Req represents a single controller API request
//
// Method and Path are set by the operation (Get, Post, Patch, ...);
// everything else is filled in by request modifiers.
//
// Example:
//
//	// Get with a query parameter and a custom timeout
//	res, err := client.Get(ctx, "sites/"+siteID+"/clients",
//	    omada.Query("filters.active", "true"),
//	    omada.Timeout(30*time.Second))
type Req struct {
	// Method is the HTTP method
	Method string

	// Path is the endpoint below /{controllerId}/api/v2/, e.g. "sites/{site}/devices"
	Path string

	// Query holds the URL query parameters
	Query url.Values

	// Body is the JSON request body, empty for requests without a body
	Body string

	// Timeout is the request-specific timeout
	// Overrides client default timeout if set
	Timeout time.Duration

	// err records the first error raised by a modifier
	err error
}

// newReq builds a Req and applies the modifiers in order
func newReq(method, path string, mods ...func(*Req)) *Req {
	req := &Req{
		Method: method,
		Path:   strings.TrimPrefix(path, "/"),
		Query:  url.Values{},
	}
	for _, mod := range mods {
		mod(req)
	}
	return req
}

// operation returns the name used in errors and log messages, e.g. "GET sites/1/devices"
func (r *Req) operation() string {
	return r.Method + " " + r.Path
}

// hasBody reports whether the request carries a JSON body
func (r *Req) hasBody() bool {
	return r.Body != "" && r.Method != http.MethodGet
}
