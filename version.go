// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultMinControllerVersion is the oldest controller release whose v2 API the client speaks
const DefaultMinControllerVersion = "5.1.0"

// canonicalVersion converts a controller version such as "5.9.31" or
// "5.13.30.8" into a semver string. Only the first three numeric
// components take part in the comparison.
func canonicalVersion(version string) (string, error) {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	if v == "" {
		return "", fmt.Errorf("empty version")
	}
	parts := strings.Split(v, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	sv := "v" + strings.Join(parts, ".")
	if !semver.IsValid(sv) {
		return "", fmt.Errorf("invalid version: %q", version)
	}
	return semver.Canonical(sv), nil
}

// checkVersion returns an IncompatibleVersionError if version is older than minimum
func checkVersion(version, minimum string) error {
	minV, err := canonicalVersion(minimum)
	if err != nil {
		return fmt.Errorf("invalid minimum controller version: %w", err)
	}
	v, err := canonicalVersion(version)
	if err != nil {
		return &IncompatibleVersionError{Version: version, Minimum: minimum}
	}
	if semver.Compare(v, minV) < 0 {
		return &IncompatibleVersionError{Version: version, Minimum: minimum}
	}
	return nil
}
