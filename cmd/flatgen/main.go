// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Flatgen provisions a version-pinned flatc compiler and invokes it
// to generate sources from flatbuffers schemas.
// For details on how to use it just run:
//
//	flatgen --help
package main

import (
	"os"

	"github.com/terramate-io/flatgen/cmd/flatgen/cli"
)

func main() {
	cli.Exec(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}
