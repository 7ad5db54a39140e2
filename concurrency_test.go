// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/netascode/go-omada/internal/omadatest"
)

// TestConcurrentFirstLogin tests that concurrent callers without a session share one login
func TestConcurrentFirstLogin(t *testing.T) {
	ctrl := omadatest.New(omadatest.WithLoginDelay(100 * time.Millisecond))
	defer ctrl.Close()

	client := newTestClient(t, ctrl)

	numOps := 20
	var wg sync.WaitGroup
	errChan := make(chan error, numOps)

	for i := 0; i < numOps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Get(context.Background(), "users/current"); err != nil {
				errChan <- err
			}
		}()
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("concurrent Get() error = %v", err)
	}
	if ctrl.Logins() != 1 {
		t.Errorf("Logins() = %d, want 1", ctrl.Logins())
	}
	if ctrl.Calls(http.MethodGet, "users/current") != numOps {
		t.Errorf("users/current calls = %d, want %d", ctrl.Calls(http.MethodGet, "users/current"), numOps)
	}
}

// TestConcurrentExpiry tests that callers hitting the same expired session trigger one re-login
func TestConcurrentExpiry(t *testing.T) {
	ctrl := omadatest.New(omadatest.WithLoginDelay(50 * time.Millisecond))
	defer ctrl.Close()

	client := newTestClient(t, ctrl)
	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	ctrl.ExpireSessions()

	numOps := 20
	var wg sync.WaitGroup
	errChan := make(chan error, numOps)

	for i := 0; i < numOps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Get(ctx, "maintenance/uiInterface"); err != nil {
				errChan <- err
			}
		}()
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("concurrent Get() after expiry error = %v", err)
	}
	if ctrl.Logins() != 2 {
		t.Errorf("Logins() = %d, want 2", ctrl.Logins())
	}
	if client.State() != StateAuthenticated {
		t.Errorf("State() = %v, want authenticated", client.State())
	}
}

// TestConcurrentInvalidate tests that Invalidate racing with calls is safe
func TestConcurrentInvalidate(t *testing.T) {
	ctrl := omadatest.New()
	defer ctrl.Close()

	client := newTestClient(t, ctrl)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = client.Get(context.Background(), "users/current") //nolint:errcheck // only checking for races
		}()
		go func() {
			defer wg.Done()
			client.Invalidate()
			_ = client.State()
			_, _ = client.Session()
		}()
	}
	wg.Wait()

	// whatever happened above, the client recovers on the next call
	if _, err := client.Get(context.Background(), "users/current"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
}

// TestConcurrentSites tests parallel site-level reads through one client
func TestConcurrentSites(t *testing.T) {
	ctrl := omadatest.New()
	defer ctrl.Close()
	ctrl.HandleResult(http.MethodGet, "sites/"+omadatest.DefaultSiteID+"/devices", []map[string]any{
		{"type": "ap", "mac": "AA-BB-CC-00-00-01", "name": "ap-lobby", "statusCategory": 1},
	})

	client := newTestClient(t, ctrl)
	site := client.SiteByID(omadatest.DefaultSiteID)

	var wg sync.WaitGroup
	errChan := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			devices, err := site.Devices(context.Background())
			if err != nil {
				errChan <- err
				return
			}
			if len(devices) != 1 {
				t.Errorf("expected 1 device, got %d", len(devices))
			}
		}()
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("Devices() error = %v", err)
	}
	if ctrl.Logins() != 1 {
		t.Errorf("Logins() = %d, want 1", ctrl.Logins())
	}
}
