// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"
)

// maxErrorBodyLength limits how much of an unexpected response body is kept in InternalMsg
const maxErrorBodyLength = 512

// Do sends an authenticated request to the controller and returns the
// unwrapped result.
//
// The path is relative to /{controllerId}/api/v2/, e.g. "users/current" or
// "sites/{siteId}/devices". Do logs in first if there is no session.
//
// If the controller reports the session as expired (HTTP 401, a redirect,
// a non-JSON answer or errorCode -1200), Do re-authenticates exactly once
// and retries the request exactly once. If the retried request is rejected
// again, Do returns *AuthError and the session state becomes StateFailed.
// No other failure is retried: *TransportError and *APIError are returned
// as they occur.
//
// Example:
//
//	res, err := client.Do(ctx, http.MethodGet, "maintenance/uiInterface")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.GetValue("controllerName").String())
func (c *Client) Do(ctx context.Context, method, path string, mods ...func(*Req)) (Res, error) {
	req := newReq(method, path, mods...)
	if req.err != nil {
		err := fmt.Errorf("invalid request body: %w", req.err)
		return failedRes(0, "", err), err
	}
	if req.Path == "" {
		err := fmt.Errorf("request path cannot be empty")
		return failedRes(0, "", err), err
	}
	if err := checkContextCancellation(ctx); err != nil {
		return failedRes(0, "", err), err
	}

	s, err := c.ensureSession(ctx)
	if err != nil {
		return failedRes(0, "", err), err
	}

	res, err := c.attempt(ctx, s, req)
	if !errors.Is(err, errSessionExpired) {
		return res, err
	}

	c.logger.Info(ctx, "Omada session expired, re-authenticating",
		"operation", req.operation(),
		"reason", err.Error())
	c.metrics.observeRelogin()
	c.expire(s.id)

	s, err = c.ensureSession(ctx)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			c.markFailed(0)
		}
		c.logger.Error(ctx, "Omada re-authentication failed",
			"operation", req.operation(),
			"error", err.Error())
		return failedRes(0, "", err), err
	}

	res, err = c.attempt(ctx, s, req)
	if errors.Is(err, errSessionExpired) {
		c.markFailed(s.id)
		authErr := &AuthError{
			Operation:   req.operation(),
			Message:     "request rejected after re-authentication",
			InternalMsg: err.Error(),
		}
		c.logger.Error(ctx, "Omada request rejected after re-authentication",
			"operation", req.operation(),
			"request_id", res.RequestID)
		return failedRes(res.StatusCode, res.RequestID, authErr), authErr
	}
	return res, err
}

// Get sends an authenticated GET request
//
// Example:
//
//	res, err := client.Get(ctx, "users/current")
func (c *Client) Get(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, http.MethodGet, path, mods...)
}

// Post sends an authenticated POST request
//
// Example:
//
//	_, err := client.Post(ctx, "sites/"+siteID+"/cmd/clients/"+mac+"/block")
func (c *Client) Post(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, http.MethodPost, path, mods...)
}

// Patch sends an authenticated PATCH request
//
// Example:
//
//	body := omada.Body{}.Set("name", "printer")
//	_, err := client.Patch(ctx, "sites/"+siteID+"/clients/"+mac, omada.WithBody(body))
func (c *Client) Patch(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, http.MethodPatch, path, mods...)
}

// Put sends an authenticated PUT request
func (c *Client) Put(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, http.MethodPut, path, mods...)
}

// Delete sends an authenticated DELETE request
func (c *Client) Delete(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, http.MethodDelete, path, mods...)
}

// GetPaged fetches every page of a paged endpoint and returns the entries
// as a single JSON array in Result.
//
// Pages are requested with currentPage/currentPageSize and followed until
// totalRows entries have been seen. Each page is an independent call with
// its own single re-authentication allowance.
//
// Example:
//
//	res, err := client.GetPaged(ctx, "sites/"+siteID+"/insight/clients")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, mac := range res.GetValue("#.mac").Array() {
//	    fmt.Println(mac.String())
//	}
func (c *Client) GetPaged(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	var items []string
	page := 1
	status := 0

	for {
		pageMods := make([]func(*Req), 0, len(mods)+2)
		pageMods = append(pageMods, mods...)
		pageMods = append(pageMods,
			setQuery("currentPage", strconv.Itoa(page)),
			setQuery("currentPageSize", strconv.Itoa(DefaultPageSize)))

		res, err := c.Get(ctx, path, pageMods...)
		if err != nil {
			return res, err
		}
		status = res.StatusCode

		data := res.GetValue("data").Array()
		for _, item := range data {
			items = append(items, item.Raw)
		}

		// never go backwards, even if the controller ignores currentPage
		current := res.GetValue("currentPage").Int()
		if current < int64(page) {
			current = int64(page)
		}
		size := res.GetValue("currentSize").Int()
		total := res.GetValue("totalRows").Int()

		if len(data) == 0 || size <= 0 || total <= current*size {
			break
		}
		page = int(current) + 1
	}

	return Res{
		OK:         true,
		StatusCode: status,
		Result:     "[" + strings.Join(items, ",") + "]",
	}, nil
}

// setQuery replaces a query parameter instead of adding another value
func setQuery(key, value string) func(*Req) {
	return func(req *Req) {
		req.Query.Set(key, value)
	}
}

// attempt performs a single HTTP exchange
//
// s is nil for unauthenticated endpoints; their path is taken from the
// server root instead of the controller API prefix.
func (c *Client) attempt(ctx context.Context, s *session, req *Req) (Res, error) {
	attemptCtx, cancel := c.createAttemptContext(ctx, req)
	defer cancel()

	op := req.operation()
	requestID := ulid.Make().String()

	if c.limiter != nil {
		if err := c.limiter.Wait(attemptCtx); err != nil {
			terr := &TransportError{Operation: op, Err: err}
			return failedRes(0, requestID, terr), terr
		}
	}

	var target string
	var httpClient *http.Client
	if s != nil {
		target = c.endpointURL(s.controllerID, req)
		httpClient = s.http
	} else {
		target = c.rootURL("/"+req.Path, req)
		httpClient = c.newHTTPClient(nil)
	}

	var body io.Reader
	if req.hasBody() {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, target, body)
	if err != nil {
		err = fmt.Errorf("failed to build request: %w", err)
		return failedRes(0, requestID, err), err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}
	if s != nil && s.token != "" {
		httpReq.Header.Set("Csrf-Token", s.token)
	}

	if req.hasBody() {
		c.logger.Debug(ctx, "Omada request",
			"request_id", requestID,
			"method", req.Method,
			"path", req.Path,
			"body", c.prepareJSONForLogging(req.Body))
	} else {
		c.logger.Debug(ctx, "Omada request",
			"request_id", requestID,
			"method", req.Method,
			"path", req.Path)
	}

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observeRequest(req.Method, 0, elapsed)
		terr := &TransportError{Operation: op, URL: stripQuery(target), Err: err}
		c.logger.Error(ctx, "Omada request failed",
			"request_id", requestID,
			"operation", op,
			"duration_ms", elapsed.Milliseconds(),
			"error", err.Error())
		return failedRes(0, requestID, terr), terr
	}
	defer resp.Body.Close()
	c.metrics.observeRequest(req.Method, resp.StatusCode, elapsed)

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		terr := &TransportError{Operation: op, URL: stripQuery(target), Err: err}
		return failedRes(resp.StatusCode, requestID, terr), terr
	}
	if len(data) > MaxResponseSize {
		apiErr := &APIError{Operation: op, StatusCode: resp.StatusCode, Message: "response too large"}
		return failedRes(resp.StatusCode, requestID, apiErr), apiErr
	}

	c.logger.Debug(ctx, "Omada response",
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
		"body", c.prepareJSONForLogging(string(data)))

	res, err := c.parseResponse(op, s != nil, resp, data)
	res.RequestID = requestID
	return res, err
}

// parseResponse classifies a controller response
//
// Session expiry (only meaningful for authenticated requests) is reported
// with errSessionExpired. Unauthenticated requests report the same
// conditions as *APIError.
func (c *Client) parseResponse(op string, authenticated bool, resp *http.Response, data []byte) (Res, error) {
	status := resp.StatusCode

	expired := func(reason string) (Res, error) {
		if !authenticated {
			err := &APIError{Operation: op, StatusCode: status, Message: reason}
			return failedRes(status, "", err), err
		}
		err := fmt.Errorf("%w: %s", errSessionExpired, reason)
		return failedRes(status, "", err), err
	}

	switch {
	case status == http.StatusUnauthorized:
		return expired("controller returned 401 Unauthorized")
	case status >= 300 && status < 400:
		return expired("controller redirected to " + resp.Header.Get("Location"))
	}

	declaredJSON, validJSON := classifyBody(resp.Header.Get("Content-Type"), data)

	if validJSON {
		code := gjson.GetBytes(data, "errorCode")
		if code.Exists() && code.Int() != ErrorCodeOK {
			errorCode := int(code.Int())
			msg := gjson.GetBytes(data, "msg").String()
			switch errorCode {
			case ErrorCodeSessionTimeout:
				return expired(fmt.Sprintf("errorCode %d: %s", errorCode, msg))
			case ErrorCodeLoginFailed:
				if msg == "" {
					msg = "invalid username or password"
				}
				err := &AuthError{Operation: op, ErrorCode: errorCode, Message: msg}
				return failedRes(status, "", err), err
			}
			if msg == "" {
				msg = "controller reported an error"
			}
			err := &APIError{Operation: op, StatusCode: status, ErrorCode: errorCode, Message: msg}
			return failedRes(status, "", err), err
		}
	}

	if status < 200 || status >= 300 {
		err := &APIError{
			Operation:   op,
			StatusCode:  status,
			Message:     http.StatusText(status),
			InternalMsg: truncateBody(data),
		}
		return failedRes(status, "", err), err
	}

	if declaredJSON && !validJSON {
		err := &APIError{Operation: op, StatusCode: status, Message: "malformed JSON response", InternalMsg: truncateBody(data)}
		return failedRes(status, "", err), err
	}

	if !validJSON {
		// the controller answers a dead session with its login page and status 200
		return expired("controller returned a non-JSON response")
	}

	if !gjson.GetBytes(data, "errorCode").Exists() {
		err := &APIError{Operation: op, StatusCode: status, Message: "unexpected response: missing errorCode", InternalMsg: truncateBody(data)}
		return failedRes(status, "", err), err
	}

	raw := string(data)
	if result := gjson.GetBytes(data, "result"); result.Exists() {
		raw = result.Raw
	}

	return Res{OK: true, StatusCode: status, Result: raw}, nil
}

// classifyBody reports whether the response declares a JSON content type and
// whether the body is a JSON object. A body without a content type counts as
// JSON when it parses.
func classifyBody(contentType string, data []byte) (declaredJSON, validJSON bool) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	declaredJSON = mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")

	trimmed := bytes.TrimSpace(data)
	object := len(trimmed) > 0 && trimmed[0] == '{' && gjson.ValidBytes(trimmed)

	validJSON = object && (declaredJSON || mediaType == "")
	return declaredJSON, validJSON
}

// truncateBody shortens a response body for InternalMsg
func truncateBody(data []byte) string {
	if len(data) > maxErrorBodyLength {
		return string(data[:maxErrorBodyLength]) + "...[TRUNCATED]"
	}
	return string(data)
}

// stripQuery removes the query string from a URL for error messages
func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}

// checkContextCancellation checks if context is already cancelled
func checkContextCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err() // context.Canceled or context.DeadlineExceeded
	default:
		return nil
	}
}

// createAttemptContext creates the context for a single HTTP attempt
//
// Timeout priority:
//  1. Request-specific timeout (Timeout modifier)
//  2. Existing context deadline
//  3. Client.RequestTimeout
func (c *Client) createAttemptContext(ctx context.Context, req *Req) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		if req.Timeout < time.Second {
			c.logger.Warn(ctx, "request timeout is very short (may not complete)",
				"timeout", req.Timeout.String(),
				"operation", req.operation())
		} else if req.Timeout > 5*time.Minute {
			c.logger.Warn(ctx, "request timeout is very long (may delay error detection)",
				"timeout", req.Timeout.String(),
				"operation", req.operation())
		}
		return context.WithTimeout(ctx, req.Timeout)
	}

	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.RequestTimeout)
}
