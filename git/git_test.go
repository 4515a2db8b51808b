// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

package git_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/madlambda/spells/assert"

	"github.com/terramate-io/flatgen/git"
)

func TestVersion(t *testing.T) {
	g := mustWrapper(t, t.TempDir())
	v, err := g.Version()
	assert.NoError(t, err)
	if v == "" {
		t.Fatal("git version must not be empty")
	}
}

func TestIsRepositoryOnPlainDir(t *testing.T) {
	g := mustWrapper(t, t.TempDir())
	if g.IsRepository() {
		t.Fatal("plain temp dir must not be a repository")
	}
}

func TestCleanRemovesUntrackedAndIgnoredFiles(t *testing.T) {
	repodir := mkRepoWithCommit(t)
	g := mustWrapper(t, repodir)

	mustWriteFile(t, repodir, "untracked.o", "junk")
	mustWriteFile(t, repodir, "ignored.log", "junk")

	assert.NoError(t, g.Clean())

	assertNotExists(t, filepath.Join(repodir, "untracked.o"))
	assertNotExists(t, filepath.Join(repodir, "ignored.log"))
	assertExists(t, filepath.Join(repodir, "tracked.txt"))
}

func TestResetHardRestoresTrackedFiles(t *testing.T) {
	repodir := mkRepoWithCommit(t)
	g := mustWrapper(t, repodir)

	mustWriteFile(t, repodir, "tracked.txt", "modified content")
	assert.NoError(t, g.ResetHard())

	got, err := os.ReadFile(filepath.Join(repodir, "tracked.txt"))
	assert.NoError(t, err)
	assert.EqualStrings(t, "tracked content", string(got))
}

func TestCleanPlusResetIsIdempotent(t *testing.T) {
	repodir := mkRepoWithCommit(t)
	g := mustWrapper(t, repodir)

	mustWriteFile(t, repodir, "untracked.o", "junk")

	for i := 0; i < 2; i++ {
		assert.NoError(t, g.Clean())
		assert.NoError(t, g.ResetHard())
	}

	entries, err := os.ReadDir(repodir)
	assert.NoError(t, err)

	var names []string
	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) != 2 {
		t.Fatalf("got files %v, want only tracked.txt and .gitignore", names)
	}
}

func TestFailedCommandGivesCmdError(t *testing.T) {
	g := mustWrapper(t, t.TempDir())
	_, err := g.RevParse("HEAD")
	if err == nil {
		t.Fatal("rev-parse outside a repository must fail")
	}
	cmdErr, ok := err.(*git.CmdError)
	if !ok {
		t.Fatalf("got %T, want *git.CmdError", err)
	}
	if cmdErr.Command() == "" {
		t.Fatal("CmdError must carry the failed command line")
	}
}

func mustWrapper(t *testing.T, dir string) *git.Git {
	t.Helper()
	g, err := git.WithConfig(git.Config{
		WorkingDir: dir,
		Isolated:   true,
		InheritEnv: true,
	})
	assert.NoError(t, err)
	return g
}

// mkRepoWithCommit creates a git repository with one commit holding
// tracked.txt and a .gitignore ignoring *.log files.
func mkRepoWithCommit(t *testing.T) string {
	t.Helper()
	repodir := t.TempDir()

	rawGit(t, repodir, "init", "-b", "main", ".")
	mustWriteFile(t, repodir, "tracked.txt", "tracked content")
	mustWriteFile(t, repodir, ".gitignore", "*.log\n")
	rawGit(t, repodir, "add", ".")
	rawGit(t, repodir, "commit", "-m", "initial commit")
	return repodir
}

func rawGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	baseArgs := []string{
		"-c", "user.name=flatgen tests",
		"-c", "user.email=tests@example.com",
		"-c", "commit.gpgsign=false",
	}
	cmd := exec.Command("git", append(baseArgs, args...)...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_CONFIG_SYSTEM=/dev/null",
		"GIT_CONFIG_GLOBAL=/dev/null",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v: %s", args, err, out)
	}
}

func mustWriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("%q must exist: %v", path, err)
	}
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("%q must not exist", path)
	}
}
