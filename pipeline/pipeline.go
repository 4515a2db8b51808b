// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Package pipeline sequences the toolchain provisioning and schema
// generation steps: probe the cached compiler, provision and build it
// on a version miss, then invoke it over the generation job.
package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/terramate-io/flatgen/flatc"
	"github.com/terramate-io/flatgen/project"
	"github.com/terramate-io/flatgen/toolchain"
)

// State of the pipeline run.
type State int

// The pipeline walks Probing → {Satisfied | Provisioning} → Building
// → Invoking → Done, and any state may transition to Failed carrying
// the originating error.
const (
	StateProbing State = iota
	StateSatisfied
	StateProvisioning
	StateBuilding
	StateInvoking
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateSatisfied:
		return "satisfied"
	case StateProvisioning:
		return "provisioning"
	case StateBuilding:
		return "building"
	case StateInvoking:
		return "invoking"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Builder abstracts the toolchain native build step.
type Builder interface {
	Build(ctx context.Context, workingCopyDir string) error
}

// Invoker abstracts the compiler invocation step.
type Invoker interface {
	Invoke(ctx context.Context, binaryPath string, job flatc.Job) error
}

// Pipeline orchestrates one provisioning + generation run.
type Pipeline struct {
	cache     toolchain.Cache
	builder   Builder
	invoker   Invoker
	registrar project.SourceRegistrar

	state State
	err   error
}

// New creates a pipeline over the given collaborators.
func New(
	cache toolchain.Cache,
	builder Builder,
	invoker Invoker,
	registrar project.SourceRegistrar,
) *Pipeline {
	return &Pipeline{
		cache:     cache,
		builder:   builder,
		invoker:   invoker,
		registrar: registrar,
		state:     StateProbing,
	}
}

// State returns the current pipeline state. After [Pipeline.Run] it
// is either StateDone or StateFailed.
func (p *Pipeline) State() State {
	return p.state
}

// Err returns the error that moved the pipeline to StateFailed, if
// any.
func (p *Pipeline) Err() error {
	return p.err
}

// Run executes the pipeline for the requested toolchain version and
// generation job. The job is validated before any external process is
// spawned: an invalid job fails the whole run with no partial
// execution. When the cached compiler already reports the requested
// version the provisioning and building states are skipped entirely,
// so repeated runs with an unchanged version cost one probe plus the
// generation invocation.
func (p *Pipeline) Run(ctx context.Context, version string, job flatc.Job) error {
	logger := log.With().
		Str("action", "pipeline.Run()").
		Str("version", version).
		Logger()

	if err := toolchain.CheckVersion(version); err != nil {
		return p.fail(err)
	}
	if err := job.Validate(); err != nil {
		return p.fail(err)
	}

	logger.Info().Msgf("required version of flatc is %s", version)

	p.transition(StateProbing)
	if p.cache.Probe(ctx, version) {
		p.transition(StateSatisfied)
	} else {
		p.transition(StateProvisioning)
		if err := p.cache.Ensure(ctx); err != nil {
			return p.fail(err)
		}
		if err := p.cache.Reset(ctx); err != nil {
			return p.fail(err)
		}
		if err := p.cache.Checkout(ctx, version); err != nil {
			return p.fail(err)
		}

		p.transition(StateBuilding)
		if err := p.builder.Build(ctx, p.cache.Dir()); err != nil {
			return p.fail(err)
		}
	}

	p.transition(StateInvoking)
	if err := p.invoker.Invoke(ctx, p.cache.BinaryPath(), job); err != nil {
		return p.fail(err)
	}

	p.registrar.AddGeneratedSourceRoot(job.Destination)
	p.transition(StateDone)
	return nil
}

func (p *Pipeline) transition(next State) {
	log.Debug().
		Stringer("from", p.state).
		Stringer("to", next).
		Msg("pipeline state transition")

	p.state = next
}

func (p *Pipeline) fail(err error) error {
	p.transition(StateFailed)
	p.err = err
	return err
}
