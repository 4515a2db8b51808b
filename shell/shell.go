// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Package shell executes external commands, streaming their output
// line by line to a caller supplied sink.
package shell

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/terramate-io/flatgen/errors"
)

const (
	// ErrSpawn represents the error when the process cannot be
	// started at all.
	ErrSpawn errors.Kind = "failed to spawn process"

	// ErrFailed represents the error when the process exits with a
	// non-zero status.
	ErrFailed errors.Kind = "process exited with non-zero status"

	// ErrTimeout represents the error when the process is killed
	// for exceeding the runner timeout.
	ErrTimeout errors.Kind = "process timed out"
)

// Command describes a single external command invocation.
type Command struct {
	// Path is the program name or path, resolved against $PATH when
	// not absolute.
	Path string

	// Args are the program arguments, not including the program name.
	Args []string

	// Dir is the working directory of the process. When empty the
	// process inherits the caller's working directory.
	Dir string
}

// String returns the full command line.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// LineSink receives each line of the process combined output, in
// order, as it arrives.
type LineSink func(line string)

// Runner executes external commands.
// The zero value is ready to use and imposes no timeout.
type Runner struct {
	// Timeout is a hard limit on each command execution. Zero means
	// no limit and a stuck process hangs the run.
	Timeout time.Duration
}

// Run executes cmd, delivering every line of its combined stdout and
// stderr to sink in order. It returns the process exit code and a
// non-nil error if the process could not be spawned, timed out or
// exited non-zero. Output emitted before a failure is still delivered
// to sink: the output drain is always joined before the exit status
// is reported.
func (r Runner) Run(ctx context.Context, cmd Command, sink LineSink) (int, error) {
	logger := log.With().
		Str("action", "shell.Run()").
		Str("cmd", cmd.String()).
		Str("workingDir", cmd.Dir).
		Logger()

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Env = os.Environ()

	pr, pw := io.Pipe()
	execCmd.Stdout = pw
	execCmd.Stderr = pw

	if err := execCmd.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		return -1, errors.E(ErrSpawn, err, "spawning %q", cmd.String())
	}

	logger.Debug().Msg("process started")

	drain := &errgroup.Group{}
	drain.Go(func() error {
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			sink(scanner.Text())
		}
		return scanner.Err()
	})

	waitErr := execCmd.Wait()

	// Closing the write end unblocks the scanner; the drain must be
	// joined before the exit status is reported so no buffered output
	// is lost.
	_ = pw.Close()
	drainErr := drain.Wait()
	_ = pr.Close()

	exitCode := execCmd.ProcessState.ExitCode()

	if ctx.Err() == context.DeadlineExceeded {
		return exitCode, errors.E(ErrTimeout,
			"command %q exceeded timeout of %s", cmd.String(), r.Timeout)
	}

	if waitErr != nil {
		return exitCode, errors.E(ErrFailed, waitErr,
			"command %q exited with status %d", cmd.String(), exitCode)
	}

	if drainErr != nil {
		return exitCode, errors.E(ErrFailed, drainErr,
			"draining output of command %q", cmd.String())
	}

	logger.Debug().Int("exitCode", exitCode).Msg("process finished")
	return exitCode, nil
}

// DiscardSink is a sink dropping all lines, for callers that only
// care about the exit status.
func DiscardSink(string) {}
