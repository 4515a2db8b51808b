// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Package config loads the flatgen project configuration file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/terramate-io/flatgen/errors"
	"github.com/terramate-io/flatgen/flatc"
	"github.com/terramate-io/flatgen/toolchain"
)

// ErrInvalidConfig indicates a bad or unreadable configuration.
const ErrInvalidConfig errors.Kind = "invalid configuration"

// Defaults used when the configuration omits the corresponding field.
const (
	// DefaultVersion is the baseline flatbuffers release.
	DefaultVersion = "1.12.0"

	// DefaultRepository is the canonical upstream source repository.
	DefaultRepository = "https://github.com/google/flatbuffers.git"

	// DefaultDestination is the build-output location receiving
	// generated sources.
	DefaultDestination = "target/generated-sources"

	// DefaultFilename is the configuration file looked up on the
	// invocation root.
	DefaultFilename = "flatgen.yml"
)

// Config is the flatgen project configuration.
type Config struct {
	// Version of flatbuffers to be used.
	Version string `yaml:"version"`

	// Repository is the URL of the flatbuffers source repository.
	Repository string `yaml:"repository"`

	// Destination is the directory for generated files.
	Destination string `yaml:"destination"`

	// Sources are the schema files to be compiled by flatc.
	Sources []string `yaml:"sources"`

	// Includes are directories searched for schemas included during
	// compilation.
	Includes []string `yaml:"includes"`

	// Generators are the generator options, from the allowed list:
	// mutable, generated, nullable and all.
	Generators []string `yaml:"generators"`
}

// Load reads the configuration from path. A missing file is not an
// error: it yields a configuration holding only defaults, to be
// completed by command line flags.
func Load(path string) (Config, error) {
	cfg := Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return Config{}, errors.E(ErrInvalidConfig, err, "reading %q", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.E(ErrInvalidConfig, err, "parsing %q", path)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Repository == "" {
		c.Repository = DefaultRepository
	}
	if c.Destination == "" {
		c.Destination = DefaultDestination
	}
}

// Validate checks the configuration fields that can be rejected
// without touching the filesystem. Path existence is the generation
// job's validation concern.
func (c Config) Validate() error {
	if err := toolchain.CheckVersion(c.Version); err != nil {
		return errors.E(ErrInvalidConfig, err)
	}
	if c.Repository == "" {
		return errors.E(ErrInvalidConfig, "repository URL must not be empty")
	}
	return nil
}

// Job builds the generation job described by the configuration.
func (c Config) Job() flatc.Job {
	flags := make([]flatc.GeneratorFlag, 0, len(c.Generators))
	for _, generator := range c.Generators {
		flags = append(flags, flatc.GeneratorFlag(generator))
	}
	return flatc.Job{
		Sources:     c.Sources,
		IncludeDirs: c.Includes,
		Flags:       flags,
		Destination: c.Destination,
	}
}
