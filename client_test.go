// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/netascode/go-omada/internal/omadatest"
)

// newTestClient returns a client for ctrl with the fake's default credentials
func newTestClient(t *testing.T, ctrl *omadatest.Controller, opts ...func(*Client)) *Client {
	t.Helper()
	base := []func(*Client){
		Username(omadatest.DefaultUsername),
		Password(omadatest.DefaultPassword),
	}
	client, err := NewClient(ctrl.URL(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// TestNewClient_Validation tests configuration errors reported by NewClient
func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		opts    []func(*Client)
		wantErr string
	}{
		{name: "empty URL", url: "  ", wantErr: "controller URL cannot be empty"},
		{name: "unsupported scheme", url: "ftp://omada.local", wantErr: "invalid controller URL scheme"},
		{name: "missing host", url: "https://", wantErr: "missing host"},
		{name: "zero request timeout", url: "omada.local", opts: []func(*Client){RequestTimeout(0)}, wantErr: "request timeout must be positive"},
		{name: "negative check interval", url: "omada.local", opts: []func(*Client){SessionCheckInterval(-time.Second)}, wantErr: "session check interval must be positive"},
		{name: "bad minimum version", url: "omada.local", opts: []func(*Client){MinControllerVersion("latest")}, wantErr: "invalid minimum controller version"},
		{name: "negative rate limit", url: "omada.local", opts: []func(*Client){RateLimit(-1, 1)}, wantErr: "rate limit must be non-negative"},
		{name: "zero burst", url: "omada.local", opts: []func(*Client){RateLimit(5, 0)}, wantErr: "rate limit burst must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.url, tt.opts...)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// TestNewClient_URLNormalization tests scheme defaulting and path stripping
func TestNewClient_URLNormalization(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "192.168.1.10:8043", want: "https://192.168.1.10:8043"},
		{input: "https://omada.local:8043/", want: "https://omada.local:8043"},
		{input: "http://omada.local:8088/login?x=1", want: "http://omada.local:8088"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			client, err := NewClient(tt.input)
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if client.URL != tt.want {
				t.Errorf("URL = %q, want %q", client.URL, tt.want)
			}
		})
	}
}

// TestHasCredentials tests that credentials are detected without exposing them
func TestHasCredentials(t *testing.T) {
	client, _ := NewClient("omada.local")
	if client.HasCredentials() {
		t.Error("HasCredentials() = true for client without credentials")
	}
	client, _ = NewClient("omada.local", Username("admin"))
	if !client.HasCredentials() {
		t.Error("HasCredentials() = false with username set")
	}
}

// TestClose tests that Close is idempotent and terminal
func TestClose(t *testing.T) {
	ctrl := omadatest.New()
	defer ctrl.Close()

	client := newTestClient(t, ctrl)
	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if _, ok := client.Session(); ok {
		t.Error("session should be dropped by Close")
	}
	_, err := client.Get(ctx, "users/current")
	if !errors.Is(err, ErrClientClosed) {
		t.Errorf("Get() after Close error = %v, want ErrClientClosed", err)
	}
}

// TestControllerInfo tests the unauthenticated info endpoint
func TestControllerInfo(t *testing.T) {
	ctrl := omadatest.New(omadatest.WithVersion("5.15.8.2"))
	defer ctrl.Close()

	client := newTestClient(t, ctrl)
	info, err := client.ControllerInfo(context.Background())
	if err != nil {
		t.Fatalf("ControllerInfo() error = %v", err)
	}
	if info.ControllerID != omadatest.DefaultControllerID {
		t.Errorf("ControllerID = %q", info.ControllerID)
	}
	if info.Version != "5.15.8.2" {
		t.Errorf("Version = %q", info.Version)
	}
	if ctrl.Logins() != 0 {
		t.Error("ControllerInfo must not log in")
	}
	if client.State() != StateUnauthenticated {
		t.Errorf("State() = %v, want unauthenticated", client.State())
	}
}
