// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Package flatc validates generation jobs and invokes the flatc
// compiler over schema files.
package flatc

import (
	"context"
	"os"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/terramate-io/flatgen/errors"
	"github.com/terramate-io/flatgen/shell"
)

const (
	// ErrInvalidJob indicates the generation job failed validation.
	ErrInvalidJob errors.Kind = "invalid generation job"

	// ErrGeneration indicates the compiler invocation failed.
	ErrGeneration errors.Kind = "flatc generation failed"
)

// GeneratorFlag is a flatc code generation option.
type GeneratorFlag string

// The fixed set of supported generator flags, emitted to flatc as
// --gen-<flag>.
const (
	FlagMutable   GeneratorFlag = "mutable"
	FlagGenerated GeneratorFlag = "generated"
	FlagNullable  GeneratorFlag = "nullable"
	FlagAll       GeneratorFlag = "all"
)

var allowedFlags = map[GeneratorFlag]bool{
	FlagMutable:   true,
	FlagGenerated: true,
	FlagNullable:  true,
	FlagAll:       true,
}

// Job is one request to invoke the compiler against a set of schema
// files with specific flags and output location.
type Job struct {
	// Sources are the schema files to compile. At least one is
	// required and all of them must exist.
	Sources []string

	// IncludeDirs are directories searched for included schemas.
	// All of them must exist.
	IncludeDirs []string

	// Flags are the requested generator options.
	Flags []GeneratorFlag

	// Destination is the directory receiving generated sources.
	Destination string
}

// Validate checks the job, failing on the first violation. The check
// order is fixed: generator flags, then include directories, then
// source files. It runs before any external process is spawned.
func (j Job) Validate() error {
	for _, flag := range j.Flags {
		if !allowedFlags[flag] {
			return errors.E(ErrInvalidJob, "generator %q is not valid", flag)
		}
	}

	for _, dir := range j.IncludeDirs {
		if _, err := os.Stat(dir); err != nil {
			return errors.E(ErrInvalidJob, "include directory %q does not exist", dir)
		}
	}

	if len(j.Sources) == 0 {
		return errors.E(ErrInvalidJob, "at least one source must be provided to generate from")
	}
	for _, source := range j.Sources {
		if _, err := os.Stat(source); err != nil {
			return errors.E(ErrInvalidJob, "source file %q does not exist", source)
		}
	}
	return nil
}

// Command constructs the compiler command line for the job:
//
//	<binary> --java -o <destination> [--gen-<flag> ...] [-I <dir> ...] <source> ...
//
// Generator flags and include directories are sorted
// lexicographically so the constructed command is deterministic
// run-to-run. flatc itself does not care about their order.
func Command(binaryPath string, job Job) shell.Command {
	args := []string{"--java", "-o", job.Destination}

	flags := make([]string, 0, len(job.Flags))
	for _, flag := range job.Flags {
		flags = append(flags, string(flag))
	}
	sort.Strings(flags)
	for _, flag := range flags {
		args = append(args, "--gen-"+flag)
	}

	includes := make([]string, 0, len(job.IncludeDirs))
	includes = append(includes, job.IncludeDirs...)
	sort.Strings(includes)
	for _, dir := range includes {
		args = append(args, "-I", dir)
	}

	args = append(args, job.Sources...)

	return shell.Command{
		Path: binaryPath,
		Args: args,
	}
}

// Invoker validates jobs and executes the resulting compiler
// invocations.
type Invoker struct {
	runner shell.Runner
}

// NewInvoker creates an Invoker executing commands with the given
// runner.
func NewInvoker(runner shell.Runner) *Invoker {
	return &Invoker{runner: runner}
}

// Invoke validates the job and runs the compiler at binaryPath over
// it. The command runs on the invocation root, not the cache
// directory. A non-zero exit is fatal and the returned error carries
// the full command line for diagnosis.
func (inv *Invoker) Invoke(ctx context.Context, binaryPath string, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	cmd := Command(binaryPath, job)

	logger := log.With().
		Str("action", "flatc.Invoke()").
		Str("cmd", cmd.String()).
		Logger()

	logger.Info().Msg("generating java sources")

	exitCode, err := inv.runner.Run(ctx, cmd, func(line string) {
		logger.Info().Msg(line)
	})
	if err != nil {
		return errors.E(ErrGeneration, err,
			"command %q exited with status %d", cmd.String(), exitCode)
	}

	logger.Info().Msg("class generation completed successfully")
	return nil
}
