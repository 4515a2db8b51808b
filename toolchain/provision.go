// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"os"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog/log"

	"github.com/terramate-io/flatgen/errors"
)

const (
	// ErrClone indicates the source repository could not be cloned.
	ErrClone errors.Kind = "failed to clone toolchain repository"

	// ErrCheckout indicates the requested version tag could not be
	// checked out.
	ErrCheckout errors.Kind = "failed to checkout toolchain version"

	// ErrReset indicates the working copy could not be brought back
	// to a pristine state.
	ErrReset errors.Kind = "failed to reset toolchain working copy"
)

// Ensure guarantees the cache directory holds a working copy of the
// toolchain source. The directory is opened as a repository and, on
// any open failure (absent, not a repository or corrupted), deleted
// recursively and cloned fresh from the remote URL. The single
// delete-then-clone policy applies to all open failures alike.
func (c *DirCache) Ensure(ctx context.Context) error {
	logger := log.With().
		Str("action", "toolchain.Ensure()").
		Str("dir", c.dir).
		Logger()

	_, err := gogit.PlainOpen(c.dir)
	if err == nil {
		logger.Info().Msg("toolchain repository already present")
		return nil
	}

	logger.Info().
		Err(err).
		Msg("cannot open toolchain repository, recreating it")

	if err := os.RemoveAll(c.dir); err != nil {
		return errors.E(ErrClone, err, "deleting corrupt cache directory %q", c.dir)
	}

	logger.Info().
		Str("url", c.remoteURL).
		Msg("cloning toolchain repository")

	_, err = gogit.PlainCloneContext(ctx, c.dir, false, &gogit.CloneOptions{
		URL: c.remoteURL,
	})
	if err != nil {
		return errors.E(ErrClone, err, "cloning %q into %q", c.remoteURL, c.dir)
	}
	return nil
}

// Checkout checks out the tag of the given version. Tags follow the
// upstream convention of prefixing the version with "v", so version
// 1.12.0 resolves to tag v1.12.0.
func (c *DirCache) Checkout(_ context.Context, version string) error {
	tag := "v" + version

	log.Info().
		Str("action", "toolchain.Checkout()").
		Str("tag", tag).
		Msg("checking out toolchain version tag")

	repo, err := gogit.PlainOpen(c.dir)
	if err != nil {
		return errors.E(ErrCheckout, err, "opening repository %q", c.dir)
	}

	// Resolving through the revision machinery follows annotated
	// tags down to the commit they point at.
	hash, err := repo.ResolveRevision(plumbing.Revision("refs/tags/" + tag))
	if err != nil {
		return errors.E(ErrCheckout, err, "tag %q does not exist", tag)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return errors.E(ErrCheckout, err)
	}

	err = worktree.Checkout(&gogit.CheckoutOptions{
		Hash: *hash,
	})
	if err != nil {
		return errors.E(ErrCheckout, err, "checking out tag %q", tag)
	}
	return nil
}

// Reset brings the working copy back to a pristine state: untracked
// and ignored files are removed (so build artifacts of a previously
// built version never leak into the next build) and tracked files are
// restored to the checked out ref.
//
// go-git, like JGit, has no equivalent of `git clean -d -f -x`, so
// this delegates to the git program.
func (c *DirCache) Reset(_ context.Context) error {
	log.Info().
		Str("action", "toolchain.Reset()").
		Str("dir", c.dir).
		Msg("completely cleaning the working copy prior to rebuild")

	g := c.git.At(c.dir)

	if err := g.Clean(); err != nil {
		return errors.E(ErrReset, err)
	}
	if err := g.ResetHard(); err != nil {
		return errors.E(ErrReset, err)
	}
	return nil
}
