// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package command

import (
	"fmt"
	"strconv"
	"time"

	"github.com/netascode/go-omada"
)

const (
	checked   = "☑"
	unchecked = "☐"
	power     = "⚡"
)

func checkbox(v bool) string {
	if v {
		return checked
	}
	return unchecked
}

func linkChar(s omada.LinkStatus) string {
	return checkbox(s == omada.LinkStatusUp)
}

// displayBytes formats a byte count with a binary unit
func displayBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// lastSeen formats a controller timestamp in milliseconds
func lastSeen(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.DateTime)
}
