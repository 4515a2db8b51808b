// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/terramate-io/flatgen/shell"
)

// Probe invokes the cached flatc binary with --version and tells if
// the first emitted line contains expectedVersion. The match is a
// substring match so product name prefixes are tolerated, e.g.
// "flatc version 1.12.0" matches "1.12.0".
//
// A missing, unexecutable or silent binary is a normal miss that
// triggers provisioning, so every failure mode is reported as false.
func (c *DirCache) Probe(ctx context.Context, expectedVersion string) bool {
	logger := log.With().
		Str("action", "toolchain.Probe()").
		Str("binary", c.BinaryPath()).
		Str("version", expectedVersion).
		Logger()

	var firstLine string
	_, err := c.runner.Run(ctx, shell.Command{
		Path: c.BinaryPath(),
		Args: []string{"--version"},
		Dir:  c.dir,
	}, func(line string) {
		if firstLine == "" {
			firstLine = line
		}
	})
	if err != nil {
		logger.Info().Msg("no flatc version found - will need to compile")
		return false
	}

	if firstLine == "" {
		logger.Info().Msg("flatc emitted no version - will need to compile")
		return false
	}

	if !strings.Contains(firstLine, expectedVersion) {
		logger.Info().
			Str("reported", firstLine).
			Msg("flatc version mismatch - will need to compile")
		return false
	}

	logger.Info().Msg("flatc version is correct - no need to compile")
	return true
}
