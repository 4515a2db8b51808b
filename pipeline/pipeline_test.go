// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/madlambda/spells/assert"

	"github.com/terramate-io/flatgen/errors"
	"github.com/terramate-io/flatgen/flatc"
	"github.com/terramate-io/flatgen/pipeline"
	"github.com/terramate-io/flatgen/project"
	"github.com/terramate-io/flatgen/toolchain"
)

func TestSatisfiedProbeSkipsProvisioningAndBuilding(t *testing.T) {
	cache := &fakeCache{probeResult: true}
	builder := &fakeBuilder{}
	invoker := &fakeInvoker{}
	registrar := project.NewRecorder()

	p := pipeline.New(cache, builder, invoker, registrar)
	err := p.Run(context.Background(), "1.12.0", validJob(t))
	assert.NoError(t, err)

	want := []string{"probe"}
	if diff := cmp.Diff(want, cache.calls); diff != "" {
		t.Fatalf("cache calls mismatch (-want +got):\n%s", diff)
	}
	assert.EqualInts(t, 0, builder.calls)
	assert.EqualInts(t, 1, invoker.calls)
	if p.State() != pipeline.StateDone {
		t.Fatalf("got state %s, want done", p.State())
	}
}

func TestProbeMissRunsFullProvisioningSequence(t *testing.T) {
	cache := &fakeCache{probeResult: false}
	builder := &fakeBuilder{}
	invoker := &fakeInvoker{}
	registrar := project.NewRecorder()

	p := pipeline.New(cache, builder, invoker, registrar)
	err := p.Run(context.Background(), "1.12.0", validJob(t))
	assert.NoError(t, err)

	want := []string{"probe", "ensure", "reset", "checkout 1.12.0"}
	if diff := cmp.Diff(want, cache.calls); diff != "" {
		t.Fatalf("cache calls mismatch (-want +got):\n%s", diff)
	}
	assert.EqualInts(t, 1, builder.calls)
	assert.EqualInts(t, 1, invoker.calls)
}

func TestSatisfiedRunIsCheaperThanColdRun(t *testing.T) {
	job := validJob(t)

	cold := &fakeCache{probeResult: false}
	coldBuilder := &fakeBuilder{}
	coldInvoker := &fakeInvoker{}
	err := pipeline.New(cold, coldBuilder, coldInvoker, project.NewRecorder()).
		Run(context.Background(), "1.12.0", job)
	assert.NoError(t, err)

	warm := &fakeCache{probeResult: true}
	warmBuilder := &fakeBuilder{}
	warmInvoker := &fakeInvoker{}
	err = pipeline.New(warm, warmBuilder, warmInvoker, project.NewRecorder()).
		Run(context.Background(), "1.12.0", job)
	assert.NoError(t, err)

	coldOps := len(cold.calls) + coldBuilder.calls + coldInvoker.calls
	warmOps := len(warm.calls) + warmBuilder.calls + warmInvoker.calls
	if warmOps >= coldOps {
		t.Fatalf("warm run cost %d operations, cold run %d: warm must be cheaper", warmOps, coldOps)
	}
}

func TestDestinationRegisteredOnSuccess(t *testing.T) {
	registrar := project.NewRecorder()
	p := pipeline.New(&fakeCache{probeResult: true}, &fakeBuilder{}, &fakeInvoker{}, registrar)

	job := validJob(t)
	assert.NoError(t, p.Run(context.Background(), "1.12.0", job))

	roots := registrar.Roots()
	assert.EqualInts(t, 1, len(roots))
	assert.EqualStrings(t, job.Destination, roots[0])
}

func TestInvalidJobFailsBeforeAnyExternalProcess(t *testing.T) {
	cache := &fakeCache{probeResult: true}
	p := pipeline.New(cache, &fakeBuilder{}, &fakeInvoker{}, project.NewRecorder())

	err := p.Run(context.Background(), "1.12.0", flatc.Job{})

	errors.AssertIsKind(t, err, flatc.ErrInvalidJob)
	assert.EqualInts(t, 0, len(cache.calls))
	if p.State() != pipeline.StateFailed {
		t.Fatalf("got state %s, want failed", p.State())
	}
}

func TestInvalidVersionFailsBeforeAnyExternalProcess(t *testing.T) {
	cache := &fakeCache{probeResult: true}
	p := pipeline.New(cache, &fakeBuilder{}, &fakeInvoker{}, project.NewRecorder())

	err := p.Run(context.Background(), "not-a-version", validJob(t))

	errors.AssertIsKind(t, err, toolchain.ErrInvalidVersion)
	assert.EqualInts(t, 0, len(cache.calls))
}

func TestProvisioningFailureAbortsPipeline(t *testing.T) {
	cache := &fakeCache{
		probeResult: false,
		ensureErr:   errors.E(toolchain.ErrClone, "remote unreachable"),
	}
	builder := &fakeBuilder{}
	invoker := &fakeInvoker{}
	registrar := project.NewRecorder()

	p := pipeline.New(cache, builder, invoker, registrar)
	err := p.Run(context.Background(), "1.12.0", validJob(t))

	errors.AssertIsKind(t, err, toolchain.ErrClone)
	assert.EqualInts(t, 0, builder.calls)
	assert.EqualInts(t, 0, invoker.calls)
	assert.EqualInts(t, 0, len(registrar.Roots()))
	if p.State() != pipeline.StateFailed {
		t.Fatalf("got state %s, want failed", p.State())
	}
	errors.AssertIsKind(t, p.Err(), toolchain.ErrClone)
}

func TestBuildFailureAbortsPipeline(t *testing.T) {
	cache := &fakeCache{probeResult: false}
	builder := &fakeBuilder{err: errors.E(toolchain.ErrBuild, "make exited with status 2")}
	invoker := &fakeInvoker{}

	p := pipeline.New(cache, builder, invoker, project.NewRecorder())
	err := p.Run(context.Background(), "1.12.0", validJob(t))

	errors.AssertIsKind(t, err, toolchain.ErrBuild)
	assert.EqualInts(t, 0, invoker.calls)
}

func TestInvocationFailureGivesNoRegistration(t *testing.T) {
	invoker := &fakeInvoker{err: errors.E(flatc.ErrGeneration, "flatc exited with status 1")}
	registrar := project.NewRecorder()

	p := pipeline.New(&fakeCache{probeResult: true}, &fakeBuilder{}, invoker, registrar)
	err := p.Run(context.Background(), "1.12.0", validJob(t))

	errors.AssertIsKind(t, err, flatc.ErrGeneration)
	assert.EqualInts(t, 0, len(registrar.Roots()))
}

type fakeCache struct {
	probeResult bool
	ensureErr   error
	resetErr    error
	checkoutErr error
	calls       []string
}

func (f *fakeCache) Probe(_ context.Context, _ string) bool {
	f.calls = append(f.calls, "probe")
	return f.probeResult
}

func (f *fakeCache) Ensure(context.Context) error {
	f.calls = append(f.calls, "ensure")
	return f.ensureErr
}

func (f *fakeCache) Reset(context.Context) error {
	f.calls = append(f.calls, "reset")
	return f.resetErr
}

func (f *fakeCache) Checkout(_ context.Context, version string) error {
	f.calls = append(f.calls, "checkout "+version)
	return f.checkoutErr
}

func (f *fakeCache) Dir() string        { return "/cache/.flatbuffers" }
func (f *fakeCache) BinaryPath() string { return "/cache/.flatbuffers/flatc" }

type fakeBuilder struct {
	calls int
	err   error
}

func (f *fakeBuilder) Build(context.Context, string) error {
	f.calls++
	return f.err
}

type fakeInvoker struct {
	calls int
	err   error
}

func (f *fakeInvoker) Invoke(context.Context, string, flatc.Job) error {
	f.calls++
	return f.err
}

func validJob(t *testing.T) flatc.Job {
	t.Helper()
	schema := filepath.Join(t.TempDir(), "schema.fbs")
	assert.NoError(t, os.WriteFile(schema, []byte("table T {}\n"), 0644))
	return flatc.Job{
		Sources:     []string{schema},
		Destination: "target/generated-sources",
	}
}
