// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Res represents the result of a controller API call
//
// A successful Res has OK set and Result holding the unwrapped "result"
// member of the controller envelope. A failed Res has OK unset, Errors
// populated and no Result. A Res is never partially populated.
type Res struct {
	// OK indicates if the operation succeeded
	OK bool

	// StatusCode is the HTTP status code of the final attempt
	StatusCode int

	// Result is the raw JSON of the envelope "result" member
	Result string

	// RequestID identifies the final HTTP attempt in debug logs
	RequestID string

	// Errors contains any error information
	Errors []ErrorModel
}

// GetValue retrieves a value from the result using a gjson path.
//
// Example paths:
//   - "token" - Login token
//   - "data.#" - Number of entries in a paged result
//   - "data.#.mac" - All MAC addresses in a paged result
//   - "privilege.sites.0.key" - First site id of the current user
//
// Example:
//
//	res, err := client.Get(ctx, "users/current")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	firstSite := res.GetValue("privilege.sites.0.name").String()
func (r Res) GetValue(path string) gjson.Result {
	if r.Result == "" {
		return gjson.Result{}
	}
	return gjson.Get(r.Result, path)
}

// JSON returns the raw result JSON, or an empty string for a failed Res
func (r Res) JSON() string {
	if !r.OK {
		return ""
	}
	return r.Result
}

// Decode unmarshals the result into v
//
// Example:
//
//	var devices []omada.Device
//	if err := res.Decode(&devices); err != nil {
//	    log.Fatal(err)
//	}
func (r Res) Decode(v any) error {
	if !r.OK {
		return fmt.Errorf("cannot decode failed result")
	}
	if r.Result == "" {
		return fmt.Errorf("result is empty")
	}
	if err := json.Unmarshal([]byte(r.Result), v); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// failedRes builds the failure form of Res for err
func failedRes(statusCode int, requestID string, err error) Res {
	return Res{
		OK:         false,
		StatusCode: statusCode,
		RequestID:  requestID,
		Errors:     errorModels(err),
	}
}

// decodeRaw unmarshals a raw JSON fragment, leaving v untouched when raw is empty
func decodeRaw(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}
