// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Package project models the host build system that consumes the
// generated sources.
package project

import "github.com/rs/zerolog/log"

// SourceRegistrar is the host build-system collaborator. On pipeline
// success the destination directory is registered with it as an
// additional compilable-source root.
type SourceRegistrar interface {
	AddGeneratedSourceRoot(dir string)
}

// Recorder is a [SourceRegistrar] keeping registered roots in memory,
// used by the CLI to report them and by tests to observe the pipeline
// outcome.
type Recorder struct {
	roots []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// AddGeneratedSourceRoot records dir as a generated-source root.
func (r *Recorder) AddGeneratedSourceRoot(dir string) {
	log.Info().
		Str("action", "project.AddGeneratedSourceRoot()").
		Str("dir", dir).
		Msg("generated source directory registered with the project")

	r.roots = append(r.roots, dir)
}

// Roots returns all registered generated-source roots, in
// registration order.
func (r *Recorder) Roots() []string {
	return r.roots
}
