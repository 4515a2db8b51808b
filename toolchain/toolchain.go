// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Package toolchain provisions the flatc compiler: it probes a cached
// binary for the requested version and, on a miss, materializes the
// matching version from the flatbuffers source repository.
package toolchain

import (
	"context"
	"os"
	"path/filepath"

	hclversion "github.com/hashicorp/go-version"

	"github.com/terramate-io/flatgen/errors"
	"github.com/terramate-io/flatgen/git"
	"github.com/terramate-io/flatgen/shell"
)

const (
	// ErrInvalidVersion indicates the requested toolchain version is
	// not a valid version string.
	ErrInvalidVersion errors.Kind = "invalid toolchain version"

	// ErrNoUserHome indicates no user home directory could be found
	// to host the toolchain cache.
	ErrNoUserHome errors.Kind = "no user home directory could be found"
)

// CacheDirName is the name of the cache directory, relative to the
// user home directory.
const CacheDirName = ".flatbuffers"

// BinaryName is the name of the compiler executable produced by a
// successful build, at the top level of the cache directory.
const BinaryName = "flatc"

// Cache is the toolchain cache collaborator: global on-disk state
// shared across runs, injected so tests can substitute a fake.
type Cache interface {
	// Probe tells if the cached compiler binary already reports the
	// expected version. All failure modes (binary absent, broken,
	// silent, mismatching) are a plain false, never an error.
	Probe(ctx context.Context, expectedVersion string) bool

	// Ensure guarantees a working copy of the compiler source exists
	// in the cache, cloning it when absent or corrupt.
	Ensure(ctx context.Context) error

	// Reset brings the working copy back to a pristine state,
	// removing untracked and ignored files and restoring tracked
	// ones. It must run before every rebuild.
	Reset(ctx context.Context) error

	// Checkout checks out the tag corresponding to the given version.
	Checkout(ctx context.Context, version string) error

	// Dir is the cache directory holding the working copy.
	Dir() string

	// BinaryPath is the path of the compiler binary inside the cache.
	BinaryPath() string
}

// DirCache is the [Cache] implementation over a filesystem directory,
// by default <user home>/.flatbuffers. It assumes a single invoker at
// a time: concurrent runs provisioning the same directory are not
// defended against.
type DirCache struct {
	dir       string
	remoteURL string
	runner    shell.Runner
	git       *git.Git
}

// NewDirCache creates a cache over the given directory, cloning from
// remoteURL when provisioning is needed.
func NewDirCache(dir, remoteURL string, runner shell.Runner) (*DirCache, error) {
	// The wrapper starts on the process working directory since the
	// cache directory may not exist yet; operations on the working
	// copy rebase it with At().
	g, err := git.WithConfig(git.Config{
		InheritEnv: true,
	})
	if err != nil {
		return nil, err
	}
	return &DirCache{
		dir:       dir,
		remoteURL: remoteURL,
		runner:    runner,
		git:       g,
	}, nil
}

// DefaultDir returns the default cache directory, inside the user
// home directory.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.E(ErrNoUserHome, err)
	}
	return filepath.Join(home, CacheDirName), nil
}

// Dir is the cache directory holding the working copy.
func (c *DirCache) Dir() string {
	return c.dir
}

// BinaryPath is the path of the compiler binary inside the cache.
func (c *DirCache) BinaryPath() string {
	return filepath.Join(c.dir, BinaryName)
}

// CheckVersion validates that the requested version is a parseable
// version string, so a typo fails the run before any process spawns.
func CheckVersion(version string) error {
	if _, err := hclversion.NewSemver(version); err != nil {
		return errors.E(ErrInvalidVersion, err, "version %q", version)
	}
	return nil
}
