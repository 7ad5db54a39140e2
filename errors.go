// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"context"
	"errors"
	"fmt"
)

// Controller error codes returned in the errorCode field of the response envelope
const (
	// ErrorCodeOK indicates success
	ErrorCodeOK = 0

	// ErrorCodeSessionTimeout is returned when the login session has expired
	ErrorCodeSessionTimeout = -1200

	// ErrorCodeLoginFailed is returned when the username or password is rejected
	ErrorCodeLoginFailed = -30109
)

// Sentinel errors returned by site and device helpers
var (
	// ErrSiteNotFound is returned when a site name does not match any site visible to the user
	ErrSiteNotFound = errors.New("omada: site not found")

	// ErrInvalidDevice is returned when a device has the wrong type for the operation
	ErrInvalidDevice = errors.New("omada: invalid device")

	// ErrNotFound is returned when a device, port or client lookup has no match
	ErrNotFound = errors.New("omada: not found")

	// ErrClientClosed is returned by every operation after Close
	ErrClientClosed = errors.New("omada: client closed")
)

// errSessionExpired marks a response that indicates the login session is no
// longer valid. It never leaves the package: Do converts it into a re-login or
// an AuthError.
var errSessionExpired = errors.New("session expired")

// TransportError reports that the controller could not be reached or that the
// HTTP exchange did not complete (DNS failure, connection refused, TLS failure,
// timeout). Transport errors are never retried by the client.
type TransportError struct {
	// Operation that failed (e.g. "GET sites/1/devices")
	Operation string

	// URL is the request URL without query parameters
	URL string

	// Err is the underlying network or context error
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("omada: %s failed: transport error: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error so errors.Is(err, context.DeadlineExceeded) works
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the transport error was caused by a timeout
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// AuthError reports that the controller rejected the credentials, or that a
// request was still rejected after the single re-authentication attempt.
type AuthError struct {
	// Operation that failed ("login" or the request operation)
	Operation string

	// ErrorCode is the controller error code, if one was returned
	ErrorCode int

	// Human-readable error message
	Message string

	// InternalMsg contains detailed error information for internal logging
	InternalMsg string
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return fmt.Sprintf("omada: %s failed: authentication error: %s", e.Operation, e.Message)
}

// DetailedError returns the full error message including internal details
//
// This should only be used in secure logging contexts where sensitive information
// disclosure is acceptable (e.g., server-side logs, debug output).
func (e *AuthError) DetailedError() string {
	if e.InternalMsg == "" {
		return e.Error()
	}
	return fmt.Sprintf("omada: %s failed: authentication error: %s (internal: %s)",
		e.Operation, e.Message, e.InternalMsg)
}

// APIError reports a controller-side failure: a non-2xx HTTP status or a
// non-zero errorCode in the response envelope. API errors are never retried.
type APIError struct {
	// Operation name that failed
	Operation string

	// StatusCode is the HTTP status code of the response
	StatusCode int

	// ErrorCode is the controller errorCode, 0 if the response had no envelope
	ErrorCode int

	// Human-readable error message
	Message string

	// InternalMsg contains detailed error information for internal logging
	InternalMsg string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.ErrorCode != 0 {
		return fmt.Sprintf("omada: %s failed: %s (errorCode: %d)", e.Operation, e.Message, e.ErrorCode)
	}
	return fmt.Sprintf("omada: %s failed: %s (status: %d)", e.Operation, e.Message, e.StatusCode)
}

// DetailedError returns the full error message including internal details
//
// Example:
//
//	if err != nil {
//	    var apiErr *omada.APIError
//	    if errors.As(err, &apiErr) {
//	        log.Debug(apiErr.DetailedError()) // internal logging
//	        return apiErr.Error()              // client-facing error
//	    }
//	}
func (e *APIError) DetailedError() string {
	if e.InternalMsg == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s (internal: %s)", e.Error(), e.InternalMsg)
}

// IncompatibleVersionError is returned when the controller runs a firmware
// version older than the minimum the client supports.
type IncompatibleVersionError struct {
	// Version reported by the controller
	Version string

	// Minimum version accepted by the client
	Minimum string
}

// Error implements the error interface
func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("omada: controller version %s is not supported (minimum: %s)", e.Version, e.Minimum)
}

// ErrorModel describes a single error attached to a failed Res
type ErrorModel struct {
	// Code is the controller errorCode or HTTP status code
	Code int

	// Message is the error message
	Message string

	// Details contains additional error information
	Details string
}

// errorModels converts an error from the taxonomy into the Errors slice of a failed Res
func errorModels(err error) []ErrorModel {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode
		if code == 0 {
			code = apiErr.StatusCode
		}
		return []ErrorModel{{Code: code, Message: apiErr.Message, Details: apiErr.InternalMsg}}
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return []ErrorModel{{Code: authErr.ErrorCode, Message: authErr.Message}}
	}
	return []ErrorModel{{Message: err.Error()}}
}
