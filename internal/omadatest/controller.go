// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package omadatest provides an in-process fake Omada controller for tests.
//
// The fake speaks the controller's v2 web API far enough to exercise login,
// session cookies, CSRF tokens, session expiry and paging. Site endpoints
// are registered per test with Handle, HandleResult and HandlePaged.
package omadatest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Defaults of a new Controller
const (
	DefaultControllerID = "c0ffee0123456789abcdef0123456789"
	DefaultVersion      = "5.13.30"
	DefaultUsername     = "admin"
	DefaultPassword     = "secret"
	DefaultSiteID       = "6461c0f2a8b1e22b3b5a2f10"
	DefaultSiteName     = "Default"
	SessionCookie       = "TPOMADA_SESSIONID"
)

// Controller error codes used by the fake
const (
	ErrorCodeSessionTimeout = -1200
	ErrorCodeLoginFailed    = -30109
	ErrorCodeUnsupported    = -1600
)

// ExpiryMode selects how the fake answers a request from a dead session
type ExpiryMode int

const (
	// ExpiryErrorCode answers with HTTP 200 and errorCode -1200
	ExpiryErrorCode ExpiryMode = iota
	// ExpiryUnauthorized answers with HTTP 401
	ExpiryUnauthorized
	// ExpiryRedirect answers with a 302 to the login page
	ExpiryRedirect
	// ExpiryLoginPage answers with HTTP 200 and the HTML login page
	ExpiryLoginPage
)

// Response is what a registered handler returns
type Response struct {
	// Status is the HTTP status, 200 when zero
	Status int
	// ErrorCode is the envelope errorCode, 0 for success
	ErrorCode int
	// Msg is the envelope message
	Msg string
	// Result becomes the envelope result member when non-nil
	Result any
}

// Result returns a successful Response carrying result
func Result(result any) Response {
	return Response{Result: result}
}

// Error returns a failed Response with the given errorCode
func Error(errorCode int, msg string) Response {
	return Response{ErrorCode: errorCode, Msg: msg}
}

// HandlerFunc answers an authenticated API request; body is the request body
type HandlerFunc func(r *http.Request, body []byte) Response

// Request is a recorded authenticated API request
type Request struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// Option configures a Controller
type Option func(*Controller)

// WithVersion sets the controller version reported by /api/info
func WithVersion(version string) Option {
	return func(c *Controller) { c.version = version }
}

// WithCredentials sets the accepted username and password
func WithCredentials(username, password string) Option {
	return func(c *Controller) { c.username, c.password = username, password }
}

// WithLoginDelay delays every login answer
func WithLoginDelay(d time.Duration) Option {
	return func(c *Controller) { c.loginDelay = d }
}

// WithExpiryMode sets how dead sessions are answered
func WithExpiryMode(mode ExpiryMode) Option {
	return func(c *Controller) { c.expiryMode = mode }
}

// WithTLS serves over HTTPS with a self-signed certificate
func WithTLS() Option {
	return func(c *Controller) { c.tls = true }
}

// Controller is a fake Omada controller backed by httptest.Server
type Controller struct {
	server *httptest.Server
	tls    bool

	mu         sync.Mutex
	id         string
	version    string
	username   string
	password   string
	loginDelay time.Duration
	delay      time.Duration
	expiryMode ExpiryMode
	rejectAll  bool
	sessions   map[string]string // cookie value -> CSRF token
	logins     int
	failed     int
	handlers   map[string]HandlerFunc
	requests   []Request
	sites      []map[string]any
}

// New starts a fake controller. Call Close when done.
func New(opts ...Option) *Controller {
	c := &Controller{
		id:       DefaultControllerID,
		version:  DefaultVersion,
		username: DefaultUsername,
		password: DefaultPassword,
		sessions: make(map[string]string),
		handlers: make(map[string]HandlerFunc),
		sites: []map[string]any{
			{"name": DefaultSiteName, "key": DefaultSiteID},
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", c.serve)
	if c.tls {
		c.server = httptest.NewTLSServer(mux)
	} else {
		c.server = httptest.NewServer(mux)
	}
	return c
}

// URL returns the base URL of the controller
func (c *Controller) URL() string {
	return c.server.URL
}

// ID returns the controller id (omadacId)
func (c *Controller) ID() string {
	return c.id
}

// Close shuts the server down
func (c *Controller) Close() {
	c.server.CloseClientConnections()
	c.server.Close()
}

// Logins returns the number of successful logins
func (c *Controller) Logins() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logins
}

// FailedLogins returns the number of rejected logins
func (c *Controller) FailedLogins() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// ActiveSessions returns the number of live sessions
func (c *Controller) ActiveSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// ExpireSessions drops every live session, as a controller does on idle timeout or restart
func (c *Controller) ExpireSessions() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = make(map[string]string)
}

// RejectSessions makes every authenticated request look expired, even right after a login
func (c *Controller) RejectSessions(reject bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejectAll = reject
}

// SetCredentials changes the accepted username and password
func (c *Controller) SetCredentials(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username, c.password = username, password
}

// SetDelay delays every answer, including /api/info
func (c *Controller) SetDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
}

// SetSites replaces the sites of the current user
func (c *Controller) SetSites(sites map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sites = c.sites[:0]
	for id, name := range sites {
		c.sites = append(c.sites, map[string]any{"name": name, "key": id})
	}
}

// Handle registers fn for an authenticated request, e.g.
// Handle("GET", "sites/x/devices", fn). The path is relative to
// /{controllerId}/api/v2/ and excludes the query.
func (c *Controller) Handle(method, path string, fn HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method+" "+path] = fn
}

// HandleResult registers a handler that always answers with result
func (c *Controller) HandleResult(method, path string, result any) {
	c.Handle(method, path, func(*http.Request, []byte) Response {
		return Result(result)
	})
}

// HandlePaged registers a GET handler that serves items in pages as the
// controller does, honouring currentPage and currentPageSize
func (c *Controller) HandlePaged(path string, items []any) {
	c.Handle(http.MethodGet, path, func(r *http.Request, _ []byte) Response {
		page, _ := strconv.Atoi(r.URL.Query().Get("currentPage"))
		size, _ := strconv.Atoi(r.URL.Query().Get("currentPageSize"))
		if page < 1 {
			page = 1
		}
		if size < 1 {
			size = 10
		}
		start := (page - 1) * size
		end := start + size
		if start > len(items) {
			start = len(items)
		}
		if end > len(items) {
			end = len(items)
		}
		return Result(map[string]any{
			"totalRows":   len(items),
			"currentPage": page,
			"currentSize": size,
			"data":        items[start:end],
		})
	})
}

// Requests returns the authenticated API requests received so far
func (c *Controller) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, len(c.requests))
	copy(out, c.requests)
	return out
}

// Calls counts the recorded requests for method and path
func (c *Controller) Calls(method, path string) int {
	n := 0
	for _, r := range c.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (c *Controller) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	delay := c.delay
	c.mu.Unlock()
	if !sleep(r, delay) {
		return
	}

	if r.URL.Path == "/api/info" && r.Method == http.MethodGet {
		c.mu.Lock()
		info := map[string]any{
			"omadacId":      c.id,
			"controllerVer": c.version,
			"apiVer":        "3",
			"configured":    true,
			"type":          1,
		}
		c.mu.Unlock()
		writeEnvelope(w, Result(info))
		return
	}

	prefix := "/" + c.id + "/api/v2/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)

	body, _ := io.ReadAll(r.Body)

	if path == "login" && r.Method == http.MethodPost {
		c.login(w, r, body)
		return
	}

	if !c.authenticated(r) {
		c.expired(w, r)
		return
	}

	c.mu.Lock()
	c.requests = append(c.requests, Request{Method: r.Method, Path: path, Query: r.URL.RawQuery, Body: string(body)})
	handler := c.handlers[r.Method+" "+path]
	c.mu.Unlock()

	switch {
	case handler != nil:
		writeEnvelope(w, handler(r, body))
	case path == "loginStatus" && r.Method == http.MethodGet:
		writeEnvelope(w, Result(map[string]any{"login": true}))
	case path == "logout" && r.Method == http.MethodPost:
		c.logout(r)
		writeEnvelope(w, Response{})
	case path == "users/current" && r.Method == http.MethodGet:
		c.mu.Lock()
		sites := append([]map[string]any(nil), c.sites...)
		name := c.username
		c.mu.Unlock()
		writeEnvelope(w, Result(map[string]any{
			"name":      name,
			"privilege": map[string]any{"sites": sites, "all": false},
		}))
	case path == "maintenance/uiInterface" && r.Method == http.MethodGet:
		writeEnvelope(w, Result(map[string]any{"controllerName": "Test Controller"}))
	default:
		writeEnvelope(w, Error(ErrorCodeUnsupported, "Unsupported request path."))
	}
}

func (c *Controller) login(w http.ResponseWriter, r *http.Request, body []byte) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.Unmarshal(body, &creds)

	c.mu.Lock()
	delay := c.loginDelay
	c.mu.Unlock()
	if !sleep(r, delay) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if creds.Username != c.username || creds.Password != c.password {
		c.failed++
		writeEnvelope(w, Error(ErrorCodeLoginFailed, "Invalid username or password."))
		return
	}

	c.logins++
	id := randomHex(16)
	token := randomHex(16)
	c.sessions[id] = token
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true})
	writeEnvelope(w, Result(map[string]any{"roleType": 0, "token": token}))
}

func (c *Controller) logout(r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, cookie.Value)
}

func (c *Controller) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rejectAll {
		return false
	}
	token, ok := c.sessions[cookie.Value]
	return ok && token == r.Header.Get("Csrf-Token")
}

func (c *Controller) expired(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	mode := c.expiryMode
	c.mu.Unlock()

	switch mode {
	case ExpiryUnauthorized:
		w.WriteHeader(http.StatusUnauthorized)
	case ExpiryRedirect:
		http.Redirect(w, r, "/login", http.StatusFound)
	case ExpiryLoginPage:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<!DOCTYPE html><html><head><title>Omada Controller</title></head><body></body></html>")
	default:
		writeEnvelope(w, Error(ErrorCodeSessionTimeout, "Session timed out."))
	}
}

func writeEnvelope(w http.ResponseWriter, res Response) {
	env := map[string]any{
		"errorCode": res.ErrorCode,
		"msg":       res.Msg,
	}
	if env["msg"] == "" && res.ErrorCode == 0 {
		env["msg"] = "Success."
	}
	if res.Result != nil {
		env["result"] = res.Result
	}
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// sleep waits for d or until the client goes away; it reports whether the request should still be answered
func sleep(r *http.Request, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-r.Context().Done():
		return false
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
