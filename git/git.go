// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Package git provides a thin wrapper around the git program for the
// plumbing operations that no Go library implements, most notably the
// full clean (untracked and ignored files included) that must run
// before every toolchain rebuild.
package git

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type (
	// Config configures the wrapper.
	Config struct {
		// ProgramPath is the absolute path of the git program.
		ProgramPath string

		// WorkingDir sets the directory where the commands will be
		// applied.
		WorkingDir string

		// InheritEnv tells if the parent environment variables must
		// be inherited by the git client.
		InheritEnv bool

		// Isolated tells if the wrapper should run with isolated
		// configurations, which means setting it to true will make
		// the wrapper not rely on the global/system configuration.
		// It's useful for reproducibility of scripts.
		Isolated bool
	}

	// Git is the wrapper object.
	Git struct {
		config Config
	}

	// Error is the sentinel error type.
	Error string

	// CmdError is the error for failed commands.
	CmdError struct {
		cmd    string // Command-line executed
		stdout []byte // stdout of the failed command
		stderr []byte // stderr of the failed command
	}
)

// ErrGitNotFound is the error that tells if git was not found.
const ErrGitNotFound Error = "git program not found"

// WithConfig creates a new git wrapper by providing the config.
func WithConfig(cfg Config) (*Git, error) {
	git := &Git{
		config: cfg,
	}

	err := git.applyDefaults()
	if err != nil {
		return nil, fmt.Errorf("applying default config values: %w", err)
	}

	_, err = git.Version()
	return git, err
}

func (git *Git) applyDefaults() error {
	cfg := &git.config

	if cfg.ProgramPath == "" {
		programPath, err := exec.LookPath("git")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGitNotFound, err)
		}

		cfg.ProgramPath = programPath
	}

	if cfg.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}

		cfg.WorkingDir = wd
	}

	return nil
}

// At returns a copy of the wrapper operating on the given directory.
func (git *Git) At(workingDir string) *Git {
	cfg := git.config
	cfg.WorkingDir = workingDir
	return &Git{config: cfg}
}

// Version of the git program.
func (git *Git) Version() (string, error) {
	out, err := git.exec("version")
	if err != nil {
		return "", err
	}

	const expected = "git version "

	// git version 2.33.1
	if strings.HasPrefix(out, expected) {
		return out[len(expected):], nil
	}

	return "", fmt.Errorf("unexpected \"git version\" output: %q", out)
}

// Clean removes all files not under version control from the working
// directory, including ignored files and untracked directories
// (git clean -d -f -x). Stale build artifacts do not survive it.
func (git *Git) Clean() error {
	_, err := git.exec("clean", "-d", "-f", "-x")
	return err
}

// ResetHard restores all tracked files to the state of the currently
// checked out ref, discarding local modifications.
func (git *Git) ResetHard() error {
	_, err := git.exec("reset", "--hard")
	return err
}

// RevParse parses the rev name and returns the commit id it points to.
func (git *Git) RevParse(rev string) (string, error) {
	return git.exec("rev-parse", rev)
}

// IsRepository tells if the wrapper working directory is inside a
// valid git repository.
func (git *Git) IsRepository() bool {
	_, err := git.exec("rev-parse", "--git-dir")
	return err == nil
}

func (git *Git) exec(command string, args ...string) (string, error) {
	cmd := exec.Cmd{
		Path: git.config.ProgramPath,
		Args: []string{git.config.ProgramPath, command},
		Dir:  git.config.WorkingDir,
		Env:  []string{},
	}

	cmd.Args = append(cmd.Args, args...)

	if git.config.InheritEnv {
		cmd.Env = os.Environ()
	}

	if git.config.Isolated {
		cmd.Env = append(cmd.Env, "GIT_CONFIG_SYSTEM=/dev/null")
		cmd.Env = append(cmd.Env, "GIT_CONFIG_GLOBAL=/dev/null")
		cmd.Env = append(cmd.Env, "GIT_ATTR_NOSYSTEM=1")
	}

	stdout, err := cmd.Output()
	if err != nil {
		stderr := []byte{}
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			stderr = exitError.Stderr
		}

		return "", NewCmdError(cmd.String(), stdout, stderr)
	}

	out := strings.TrimSpace(string(stdout))
	return out, nil
}

// Error string representation.
func (e Error) Error() string {
	return string(e)
}

// NewCmdError returns a new command line error.
func NewCmdError(cmd string, stdout, stderr []byte) error {
	return &CmdError{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
	}
}

// Is tells if err is of the type CmdError.
func (e *CmdError) Is(err error) bool {
	_, ok := err.(*CmdError)
	return ok
}

// Error string representation.
func (e *CmdError) Error() string {
	return fmt.Sprintf("failed to exec: %s : stderr=%q", e.cmd, string(e.stderr))
}

// Command is the failed command.
func (e *CmdError) Command() string { return e.cmd }

// Stdout of the failed command.
func (e *CmdError) Stdout() []byte { return e.stdout }

// Stderr of the failed command.
func (e *CmdError) Stderr() []byte { return e.stderr }
