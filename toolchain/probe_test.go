// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

package toolchain_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/madlambda/spells/assert"

	"github.com/terramate-io/flatgen/shell"
	"github.com/terramate-io/flatgen/toolchain"
)

func TestProbeMatchesVersionSubstring(t *testing.T) {
	cache := mkCacheWithBinary(t, "#!/bin/sh\necho 'flatc version 1.12.0'\n")
	if !cache.Probe(context.Background(), "1.12.0") {
		t.Fatal("probe must match version substring on the first line")
	}
}

func TestProbeMismatchingVersion(t *testing.T) {
	cache := mkCacheWithBinary(t, "#!/bin/sh\necho 'flatc version 1.11.0'\n")
	if cache.Probe(context.Background(), "1.12.0") {
		t.Fatal("probe must miss on version mismatch")
	}
}

func TestProbeOnlyFirstLineIsConsidered(t *testing.T) {
	cache := mkCacheWithBinary(t, "#!/bin/sh\necho 'flatc version 1.11.0'\necho 'built from 1.12.0 sources'\n")
	if cache.Probe(context.Background(), "1.12.0") {
		t.Fatal("probe must capture only the first emitted line")
	}
}

func TestProbeMissingBinary(t *testing.T) {
	cache := mkCache(t, t.TempDir())
	if cache.Probe(context.Background(), "1.12.0") {
		t.Fatal("probe must miss when the binary is absent")
	}
}

func TestProbeMissingCacheDir(t *testing.T) {
	cache := mkCache(t, filepath.Join(t.TempDir(), "never-created"))
	if cache.Probe(context.Background(), "1.12.0") {
		t.Fatal("probe must miss when the cache directory is absent")
	}
}

func TestProbeSilentBinary(t *testing.T) {
	cache := mkCacheWithBinary(t, "#!/bin/sh\nexit 0\n")
	if cache.Probe(context.Background(), "1.12.0") {
		t.Fatal("probe must miss when the binary emits nothing")
	}
}

func TestProbeFailingBinary(t *testing.T) {
	cache := mkCacheWithBinary(t, "#!/bin/sh\necho 'flatc version 1.12.0'\nexit 1\n")
	if cache.Probe(context.Background(), "1.12.0") {
		t.Fatal("probe must miss when the binary exits non-zero")
	}
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, toolchain.CheckVersion("1.12.0"))
	assert.NoError(t, toolchain.CheckVersion("23.5.26"))

	err := toolchain.CheckVersion("not-a-version")
	if err == nil {
		t.Fatal("bogus version string must be rejected")
	}
}

func mkCache(t *testing.T, dir string) *toolchain.DirCache {
	t.Helper()
	cache, err := toolchain.NewDirCache(dir, "https://example.com/flatbuffers.git", shell.Runner{})
	assert.NoError(t, err)
	return cache
}

func mkCacheWithBinary(t *testing.T, script string) *toolchain.DirCache {
	t.Helper()
	dir := t.TempDir()
	cache := mkCache(t, dir)
	err := os.WriteFile(filepath.Join(dir, toolchain.BinaryName), []byte(script), 0755)
	assert.NoError(t, err)
	return cache
}
