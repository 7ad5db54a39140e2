// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

// TestBodySet tests basic Set operation
func TestBodySet(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		value    any
		wantJSON string
	}{
		{
			name:     "set string value",
			path:     "name",
			value:    "Uplink",
			wantJSON: `{"name":"Uplink"}`,
		},
		{
			name:     "set boolean value",
			path:     "profileOverrideEnable",
			value:    true,
			wantJSON: `{"profileOverrideEnable":true}`,
		},
		{
			name:     "set integer value",
			path:     "localVlanId",
			value:    20,
			wantJSON: `{"localVlanId":20}`,
		},
		{
			name:     "set enum value",
			path:     "poe",
			value:    PoEModeEnabled,
			wantJSON: `{"poe":1}`,
		},
		{
			name:     "set nested value",
			path:     "ipSetting.useFixedAddr",
			value:    false,
			wantJSON: `{"ipSetting":{"useFixedAddr":false}}`,
		},
		{
			name:     "set struct slice",
			path:     "poeSettings",
			value:    []GatewayPoESetting{{PortID: 5, Enable: true}},
			wantJSON: `{"poeSettings":[{"portId":5,"enable":true}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := Body{}.Set(tt.path, tt.value)
			json, err := body.String()
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if json != tt.wantJSON {
				t.Errorf("Expected JSON %s, got %s", tt.wantJSON, json)
			}
		})
	}
}

// TestBodySetChaining tests method chaining
func TestBodySetChaining(t *testing.T) {
	body := Body{}.
		Set("mac", "AA-BB-CC-DD-EE-FF").
		Set("ledSetting", int(LEDOn)).
		Set("name", "Office AP")

	json, err := body.String()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	for _, want := range []string{`"mac":"AA-BB-CC-DD-EE-FF"`, `"ledSetting":1`, `"name":"Office AP"`} {
		if !strings.Contains(json, want) {
			t.Errorf("Expected JSON to contain %s, got: %s", want, json)
		}
	}
}

// TestBodySetRaw tests inserting a raw JSON fragment
func TestBodySetRaw(t *testing.T) {
	body := Body{}.SetRaw("lanPortSettings", `[{"id":"ETH1","poeOutEnable":false}]`)

	json, err := body.String()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := gjson.Get(json, "lanPortSettings.0.id").String(); got != "ETH1" {
		t.Errorf("Expected lanPortSettings.0.id 'ETH1', got %q", got)
	}
	if gjson.Get(json, "lanPortSettings.0.poeOutEnable").Bool() {
		t.Error("Expected poeOutEnable to be false")
	}
}

// TestBodyDelete tests Delete operation
func TestBodyDelete(t *testing.T) {
	body := Body{}.
		Set("name", "Uplink").
		Set("nativeNetworkId", "temp").
		Set("profileOverrideEnable", true).
		Delete("nativeNetworkId")

	json, err := body.String()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if strings.Contains(json, "nativeNetworkId") {
		t.Errorf("Expected nativeNetworkId to be deleted, got: %s", json)
	}
	if !strings.Contains(json, `"name":"Uplink"`) {
		t.Errorf("Expected name field to remain")
	}
}

// TestBodyErrorPropagation tests that the first error is kept and later operations are no-ops
func TestBodyErrorPropagation(t *testing.T) {
	body := Body{}.
		Set("name", "value1").
		Set("", "invalid-empty-path").
		Set("other", "value2").
		Delete("name")

	json, err := body.String()
	if err == nil {
		t.Fatal("Expected error from empty path, got nil")
	}
	if !strings.Contains(err.Error(), "Set") {
		t.Errorf("Expected error message to contain 'Set', got: %v", err)
	}
	if !strings.Contains(json, "value1") {
		t.Errorf("Expected JSON to contain value1 (set before error)")
	}
	if strings.Contains(json, "value2") {
		t.Errorf("Expected JSON to NOT contain value2 (set after error)")
	}
	if body.Res() != "" {
		t.Errorf("Expected Res() to be empty on error, got %q", body.Res())
	}
	if b, err := body.Bytes(); err == nil || b != nil {
		t.Errorf("Expected Bytes() to fail, got %q, %v", b, err)
	}
}

// TestBodyImmutability tests that Body operations return new values
func TestBodyImmutability(t *testing.T) {
	body1 := Body{}.Set("name", "value1")
	body2 := body1.Set("name", "value2")

	if got := gjson.Get(body1.Res(), "name").String(); got != "value1" {
		t.Errorf("Expected body1 name 'value1', got %q", got)
	}
	if got := gjson.Get(body2.Res(), "name").String(); got != "value2" {
		t.Errorf("Expected body2 name 'value2', got %q", got)
	}
}

// TestBodyIsEmpty tests IsEmpty
func TestBodyIsEmpty(t *testing.T) {
	if !(Body{}).IsEmpty() {
		t.Error("Expected zero Body to be empty")
	}
	if (Body{}).Set("name", "x").IsEmpty() {
		t.Error("Expected Body with a field to be non-empty")
	}
	if !(Body{}).Set("name", "x").Delete("name").IsEmpty() {
		t.Error("Expected Body with every field deleted to be empty")
	}
}

// BenchmarkBodySet benchmarks building a typical PATCH payload
func BenchmarkBodySet(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Body{}.
			Set("name", "Uplink").
			Set("profileId", "5f0f8e2a").
			Set("profileOverrideEnable", true).
			Set("poe", PoEModeEnabled)
	}
}
