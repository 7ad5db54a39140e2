// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// Body provides a fluent interface for building JSON request payloads
// using sjson for path-based manipulation.
//
// The Body builder tracks errors internally to enable method chaining.
// Errors surface through String(), Err(), or when the Body is attached
// to a request with WithBody, in which case the request fails before it
// is sent.
//
// Example:
//
//	body := omada.Body{}.
//	    Set("name", "Uplink").
//	    Set("profileOverrideEnable", true).
//	    Set("poe", omada.PoEModeDisabled)
//
//	res, err := client.Patch(ctx, "sites/"+siteID+"/switches/"+mac+"/ports/1",
//	    omada.WithBody(body))
type Body struct {
	// str contains the JSON string being built
	str string
	// err tracks the first error encountered during building
	err error
}

// Set sets a value at the specified JSON path and returns a new Body
//
// The path uses dot notation for nested fields (e.g., "ipSetting.useFixedAddr").
// Slices, maps and structs are marshalled to JSON.
//
// Once an error occurs, all subsequent operations are no-ops that preserve the error.
func (b Body) Set(path string, value any) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.Set(b.str, path, value)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Set(%q): %w", path, err)}
	}
	return Body{str: result}
}

// SetRaw sets a raw JSON fragment at the specified path
//
// Example:
//
//	body := omada.Body{}.SetRaw("lanPortSettings", `[{"id":"ETH1","poeOutEnable":false}]`)
func (b Body) SetRaw(path, rawJSON string) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.SetRaw(b.str, path, rawJSON)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("SetRaw(%q): %w", path, err)}
	}
	return Body{str: result}
}

// Delete removes a value at the specified JSON path and returns a new Body
func (b Body) Delete(path string) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.Delete(b.str, path)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Delete(%q): %w", path, err)}
	}
	return Body{str: result}
}

// String returns the JSON string representation and any error encountered during building
func (b Body) String() (string, error) {
	return b.str, b.err
}

// Err returns any error that occurred during the building process
func (b Body) Err() error {
	return b.err
}

// Res returns the JSON string for further processing with gjson
//
// If an error occurred during building, this returns an empty string.
func (b Body) Res() string {
	if b.err != nil {
		return ""
	}
	return b.str
}

// Bytes returns the JSON byte slice representation and any error encountered during building
func (b Body) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return []byte(b.str), nil
}

// IsEmpty reports whether no field has been set
func (b Body) IsEmpty() bool {
	return b.str == "" || b.str == "{}"
}
