// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// SessionState is the observable state of the client's login session
type SessionState int

const (
	// StateUnauthenticated means no session exists and no login has failed after an expiry
	StateUnauthenticated SessionState = iota

	// StateAuthenticating means a login is in flight
	StateAuthenticating

	// StateAuthenticated means a live session exists
	StateAuthenticated

	// StateExpired means the last session was dropped because the controller
	// rejected it or it was invalidated; the next call logs in again
	StateExpired

	// StateFailed means the single re-authentication after an expiry failed,
	// or the retried request was still rejected. The next call starts a fresh login.
	StateFailed
)

// String returns the string representation of a SessionState
func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// session is one authenticated login on the controller
//
// The cookie jar inside http and the CSRF token together form the
// credentials of the session. A session is never handed to callers.
type session struct {
	id           uint64
	controllerID string
	version      string
	token        string
	http         *http.Client
	loggedInAt   time.Time

	// verifiedAt is guarded by Client.mu
	verifiedAt time.Time
}

// SessionInfo is a read-only snapshot of the current session
type SessionInfo struct {
	// ControllerID is the omadacId used in API paths
	ControllerID string

	// ControllerVersion is the version reported at login
	ControllerVersion string

	// LoggedInAt is the time the session was created
	LoggedInAt time.Time
}

// State returns the current session state
func (c *Client) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a snapshot of the live session, or false if there is none
func (c *Client) Session() (SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return SessionInfo{}, false
	}
	return SessionInfo{
		ControllerID:      c.sess.controllerID,
		ControllerVersion: c.sess.version,
		LoggedInAt:        c.sess.loggedInAt,
	}, true
}

// Login ensures the client holds an authenticated session
//
// If no live session exists, Login fetches the controller info, checks the
// controller version and submits the credentials. Login is optional: every
// authenticated call logs in on demand. Use it to verify connectivity and
// credentials up front.
//
// Errors:
//   - *AuthError: credentials rejected (no session is kept)
//   - *TransportError: controller unreachable or timed out
//   - *IncompatibleVersionError: controller older than MinControllerVersion
//
// Example:
//
//	if err := client.Login(ctx); err != nil {
//	    var authErr *omada.AuthError
//	    if errors.As(err, &authErr) {
//	        log.Fatal("wrong username or password")
//	    }
//	    log.Fatal(err)
//	}
func (c *Client) Login(ctx context.Context) error {
	if err := checkContextCancellation(ctx); err != nil {
		return err
	}
	_, err := c.ensureSession(ctx)
	return err
}

// Invalidate drops the current session without contacting the controller.
//
// The next authenticated call logs in again. A login in flight still serves
// the callers already waiting for it, but its session is not kept.
// Invalidate is a no-op when no session exists.
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.sess != nil:
		c.logger.Info(context.Background(), "Omada session invalidated",
			"url", c.baseURL.Redacted())
		c.sess = nil
		c.state = StateExpired
	case c.state == StateAuthenticating:
		c.sessionID++
	case c.state == StateFailed:
		c.state = StateUnauthenticated
	}
}

// Logout ends the session on the controller and drops it locally
//
// The local session is dropped even if the logout request fails. Logging out
// without a session is a no-op.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()

	if s == nil {
		return nil
	}

	_, err := c.attempt(ctx, s, newReq(http.MethodPost, "logout"))

	c.mu.Lock()
	if c.sess == s {
		c.sess = nil
		c.state = StateUnauthenticated
	}
	c.mu.Unlock()

	if errors.Is(err, errSessionExpired) {
		// already logged out on the controller side
		return nil
	}
	if err != nil {
		return err
	}

	c.logger.Info(ctx, "Omada session logged out",
		"url", c.baseURL.Redacted())
	return nil
}

// ensureSession returns the live session, logging in if there is none
//
// A session older than SessionCheckInterval is verified with the controller
// first; if the controller no longer recognises it, a fresh login runs.
func (c *Client) ensureSession(ctx context.Context) (*session, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	s := c.sess
	stale := s != nil && time.Since(s.verifiedAt) >= c.SessionCheckInterval
	c.mu.Unlock()

	if s != nil && !stale {
		return s, nil
	}

	if s != nil {
		ok, err := c.checkLogin(ctx, s)
		if err != nil {
			return nil, err
		}
		if ok {
			return s, nil
		}
		c.logger.Info(ctx, "Omada session no longer valid, logging in again",
			"url", c.baseURL.Redacted(),
			"session_age", time.Since(s.loggedInAt).Round(time.Second).String())
		c.expire(s.id)
	}

	return c.login(ctx)
}

// checkLogin asks the controller whether s is still logged in
//
// It reports false only when the controller rejected the session. A caller
// whose context ends first gets the context error and the session is kept.
func (c *Client) checkLogin(ctx context.Context, s *session) (bool, error) {
	ch := c.logins.DoChan(fmt.Sprintf("status-%d", s.id), func() (any, error) {
		res, err := c.attempt(context.WithoutCancel(ctx), s, newReq(http.MethodGet, "loginStatus"))
		if err != nil {
			c.logger.Debug(ctx, "Omada login status check failed",
				"error", err.Error())
			var terr *TransportError
			if errors.As(err, &terr) {
				return false, err
			}
			return false, nil
		}
		if !res.GetValue("login").Bool() {
			return false, nil
		}
		c.mu.Lock()
		s.verifiedAt = time.Now()
		c.mu.Unlock()
		return true, nil
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return false, r.Err
		}
		ok, _ := r.Val.(bool)
		return ok, nil
	}
}

// login performs a login shared by every concurrent caller
//
// The login itself runs on a context detached from the caller that started
// it, so one caller giving up does not fail the login for the others. Each
// HTTP attempt of the login is still bounded by RequestTimeout. Every caller
// stops waiting when its own context is done.
func (c *Client) login(ctx context.Context) (*session, error) {
	ch := c.logins.DoChan("login", func() (any, error) {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, ErrClientClosed
		}
		if c.sess != nil {
			// a login completed between the caller's check and this call
			s := c.sess
			c.mu.Unlock()
			return s, nil
		}
		c.state = StateAuthenticating
		c.sessionID++
		id := c.sessionID
		c.mu.Unlock()

		s, err := c.authenticate(context.WithoutCancel(ctx), id)
		c.metrics.observeLogin(err)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.state = StateUnauthenticated
			return nil, err
		}
		if c.closed {
			return nil, ErrClientClosed
		}
		if c.sessionID != id {
			// invalidated while logging in
			c.state = StateExpired
			return s, nil
		}
		c.sess = s
		c.state = StateAuthenticated
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*session), nil
	}
}

// authenticate runs the login handshake and returns a new session
//
//  1. GET /api/info (unauthenticated) for the controller id and version
//  2. version check against MinControllerVersion
//  3. POST /{controllerId}/api/v2/login with the credentials
//
// The session cookie lands in the session's own cookie jar; the returned
// token is sent as Csrf-Token on every later request.
func (c *Client) authenticate(ctx context.Context, id uint64) (*session, error) {
	c.logger.Debug(ctx, "Omada login starting",
		"url", c.baseURL.Redacted(),
		"session", id)

	info, err := c.ControllerInfo(ctx)
	if err != nil {
		return nil, err
	}

	if err := checkVersion(info.Version, c.MinControllerVersion); err != nil {
		c.logger.Error(ctx, "Omada controller version not supported",
			"version", info.Version,
			"minimum", c.MinControllerVersion)
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	s := &session{
		id:           id,
		controllerID: info.ControllerID,
		version:      info.Version,
		http:         c.newHTTPClient(jar),
	}

	body := Body{}.
		Set("username", c.username).
		Set("password", c.password)

	res, err := c.attempt(ctx, s, newReq(http.MethodPost, "login", WithBody(body)))
	if err != nil {
		err = loginError(err)
		c.logger.Warn(ctx, "Omada login failed",
			"url", c.baseURL.Redacted(),
			"error", err.Error())
		return nil, err
	}

	token := res.GetValue("token").String()
	if token == "" {
		return nil, &AuthError{
			Operation: "login",
			Message:   "login response did not include a session token",
		}
	}

	now := time.Now()
	s.token = token
	s.loggedInAt = now
	s.verifiedAt = now

	c.logger.Info(ctx, "Omada login succeeded",
		"url", c.baseURL.Redacted(),
		"controller_id", info.ControllerID,
		"version", info.Version)

	return s, nil
}

// loginError maps errors of the login request onto AuthError where the
// controller rejected the credentials
func loginError(err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		authErr.Operation = "login"
		if authErr.Message == "" {
			authErr.Message = "invalid username or password"
		}
		return authErr
	}
	if errors.Is(err, errSessionExpired) {
		return &AuthError{
			Operation:   "login",
			Message:     "controller rejected login",
			InternalMsg: err.Error(),
		}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		return &AuthError{
			Operation:   "login",
			ErrorCode:   apiErr.ErrorCode,
			Message:     apiErr.Message,
			InternalMsg: apiErr.InternalMsg,
		}
	}
	return err
}

// expire drops the session with the given id. It returns false if that
// session has already been replaced, in which case nothing changes.
func (c *Client) expire(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.id != id {
		return false
	}
	c.sess = nil
	c.state = StateExpired
	return true
}

// markFailed records a failed re-authentication. A non-zero id also drops
// that session if it is still current.
func (c *Client) markFailed(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != 0 && c.sess != nil && c.sess.id == id {
		c.sess = nil
	}
	if c.sess == nil {
		c.state = StateFailed
	}
}

// newHTTPClient returns an HTTP client bound to jar that never follows redirects
//
// Controllers answer requests from a dead session with a redirect to the
// login page; the redirect itself is the expiry signal.
func (c *Client) newHTTPClient(jar http.CookieJar) *http.Client {
	return &http.Client{
		Transport: c.transport,
		Jar:       jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
