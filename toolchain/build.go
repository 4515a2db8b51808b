// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/terramate-io/flatgen/errors"
	"github.com/terramate-io/flatgen/shell"
)

// ErrBuild indicates a native build step of the toolchain failed.
const ErrBuild errors.Kind = "toolchain build failed"

// Builder drives the native build that turns a provisioned working
// copy into a flatc binary.
type Builder struct {
	runner shell.Runner
}

// NewBuilder creates a Builder running its steps with the given
// runner.
func NewBuilder(runner shell.Runner) *Builder {
	return &Builder{runner: runner}
}

// Build runs the two native build steps, project file generation and
// compilation, inside the working copy directory. Steps are strictly
// sequential and the first failure aborts: no partial success state
// is retained, the next run's Reset cleans whatever the failed step
// left behind.
func (b *Builder) Build(ctx context.Context, workingCopyDir string) error {
	steps := []shell.Command{
		{Path: "cmake", Args: []string{"."}, Dir: workingCopyDir},
		{Path: "make", Dir: workingCopyDir},
	}

	for _, step := range steps {
		logger := log.With().
			Str("action", "toolchain.Build()").
			Str("cmd", step.String()).
			Logger()

		logger.Info().Msg("running build step")

		exitCode, err := b.runner.Run(ctx, step, func(line string) {
			logger.Info().Msg(line)
		})
		if err != nil {
			return errors.E(ErrBuild, err,
				"build step %q exited with status %d", step.String(), exitCode)
		}
	}
	return nil
}
