// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Package flatgen provides the tool version.
package flatgen

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version of flatgen.
func Version() string {
	return strings.TrimSpace(version)
}
