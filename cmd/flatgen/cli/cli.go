// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Package cli provides the flatgen command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/terramate-io/flatgen"
	"github.com/terramate-io/flatgen/config"
	"github.com/terramate-io/flatgen/flatc"
	"github.com/terramate-io/flatgen/pipeline"
	"github.com/terramate-io/flatgen/printer"
	"github.com/terramate-io/flatgen/project"
	"github.com/terramate-io/flatgen/shell"
	"github.com/terramate-io/flatgen/toolchain"
)

const (
	defaultLogLevel = "warn"
	defaultLogFmt   = "console"
)

type cliSpec struct {
	VersionFlag bool   `name:"version" help:"Flatgen version"`
	Chdir       string `short:"C" optional:"true" help:"Sets working directory"`
	LogLevel    string `optional:"true" default:"warn" enum:"trace,debug,info,warn,error,fatal" help:"Log level to use: 'trace', 'debug', 'info', 'warn', 'error', or 'fatal'"`
	LogFmt      string `optional:"true" default:"console" enum:"console,text,json" help:"Log format to use: 'console', 'text', or 'json'"`

	Version struct{} `cmd:"" help:"Flatgen version"`

	Generate struct {
		Config       string        `optional:"true" default:"flatgen.yml" help:"Path of the flatgen configuration file"`
		FlatcVersion string        `optional:"true" help:"Version of flatc to provision (overrides the configuration file)"`
		Repository   string        `optional:"true" help:"URL of the flatbuffers source repository (overrides the configuration file)"`
		Destination  string        `short:"o" optional:"true" help:"Destination directory for generated sources (overrides the configuration file)"`
		Include      []string      `short:"I" optional:"true" help:"Directories searched for included schemas"`
		Gen          []string      `optional:"true" help:"Generator options: mutable, generated, nullable or all"`
		Timeout      time.Duration `optional:"true" default:"0" help:"Hard timeout applied to each external command (0 disables it)"`
		Sources      []string      `arg:"" optional:"true" name:"sources" help:"Schema files to compile"`
	} `cmd:"" help:"Provision flatc and generate sources from schemas"`
}

type cli struct {
	ctx        *kong.Context
	parsedArgs *cliSpec
	stdout     *printer.Printer
	stderr     *printer.Printer
	exit       bool
}

// Exec will execute flatgen with the provided flags defined on args.
// Only flags should be on the args slice.
//
// Results will be written on stdout, according to the command flags
// and errors/warnings written on stderr. Exec will abort the process
// with a status code different than zero in the case of fatal errors.
func Exec(args []string, stdin io.Reader, stdout, stderr io.Writer) {
	configureLogging(defaultLogLevel, defaultLogFmt, stderr)
	c := newCLI(args, stdin, stdout, stderr)
	c.run()
}

func newCLI(args []string, _ io.Reader, stdout, stderr io.Writer) *cli {
	if len(args) == 0 {
		// WHY: avoid default kong error, print help
		args = []string{"--help"}
	}

	logger := log.With().
		Str("action", "newCLI()").
		Logger()

	kongExit := false
	kongExitStatus := 0

	parsedArgs := cliSpec{}
	parser, err := kong.New(&parsedArgs,
		kong.Name("flatgen"),
		kong.Description("A tool for provisioning flatc and generating sources from flatbuffers schemas"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Exit(func(status int) {
			// Avoid kong aborting entire process since we designed CLI as lib
			kongExit = true
			kongExitStatus = status
		}),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("failed to create cli parser")
	}

	ctx, err := parser.Parse(args)

	if kongExit && kongExitStatus == 0 {
		return &cli{exit: true}
	}

	// When we run flatgen --version the kong parser just fails
	// since no subcommand was provided, so the version flag is
	// checked before the parse error.
	if parsedArgs.VersionFlag {
		fmt.Fprintln(stdout, flatgen.Version())
		return &cli{exit: true}
	}

	if err != nil {
		logger.Fatal().
			Err(err).
			Msgf("failed to parse cli args: %v", args)
	}

	configureLogging(parsedArgs.LogLevel, parsedArgs.LogFmt, stderr)
	// If we don't re-create the logger after configuring we get some
	// log entries with a mix of default fmt and selected fmt.
	logger = log.With().
		Str("action", "newCLI()").
		Logger()

	if parsedArgs.Chdir != "" {
		logger.Debug().
			Str("dir", parsedArgs.Chdir).
			Msg("changing working directory")

		if err := os.Chdir(parsedArgs.Chdir); err != nil {
			logger.Fatal().
				Str("dir", parsedArgs.Chdir).
				Err(err).
				Msg("changing working directory failed")
		}
	}

	return &cli{
		ctx:        ctx,
		parsedArgs: &parsedArgs,
		stdout:     printer.NewPrinter(stdout),
		stderr:     printer.NewPrinter(stderr),
	}
}

func (c *cli) run() {
	if c.exit {
		// WHY: parser called exit but with no error (like help)
		return
	}

	logger := log.With().
		Str("action", "run()").
		Str("cmd", c.ctx.Command()).
		Logger()

	logger.Debug().Msg("handle command")

	switch c.ctx.Command() {
	case "version":
		c.stdout.Println(flatgen.Version())
	case "generate", "generate <sources>":
		c.generate()
	default:
		logger.Fatal().Msg("unexpected command")
	}
}

func (c *cli) generate() {
	args := c.parsedArgs.Generate

	cfg, err := config.Load(args.Config)
	if err != nil {
		c.fatal("loading configuration", err)
	}

	if args.FlatcVersion != "" {
		cfg.Version = args.FlatcVersion
	}
	if args.Repository != "" {
		cfg.Repository = args.Repository
	}
	if args.Destination != "" {
		cfg.Destination = args.Destination
	}
	if len(args.Include) > 0 {
		cfg.Includes = args.Include
	}
	if len(args.Gen) > 0 {
		cfg.Generators = args.Gen
	}
	if len(args.Sources) > 0 {
		cfg.Sources = args.Sources
	}

	if err := cfg.Validate(); err != nil {
		c.fatal("invalid configuration", err)
	}

	cacheDir, err := toolchain.DefaultDir()
	if err != nil {
		c.fatal("resolving toolchain cache directory", err)
	}

	runner := shell.Runner{Timeout: args.Timeout}

	cache, err := toolchain.NewDirCache(cacheDir, cfg.Repository, runner)
	if err != nil {
		c.fatal("creating toolchain cache", err)
	}

	registrar := project.NewRecorder()
	p := pipeline.New(
		cache,
		toolchain.NewBuilder(runner),
		flatc.NewInvoker(runner),
		registrar,
	)

	if err := p.Run(context.Background(), cfg.Version, cfg.Job()); err != nil {
		c.fatal("generation pipeline failed", err)
	}

	for _, root := range registrar.Roots() {
		c.stdout.Successln(fmt.Sprintf("Generated sources available on %s", root))
	}
}

func (c *cli) fatal(title string, err error) {
	c.stderr.ErrorWithDetailsln(title, err)
	os.Exit(1)
}

func configureLogging(logLevel string, logFmt string, output io.Writer) {
	zloglevel, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		zloglevel = zerolog.FatalLevel
	}

	zerolog.SetGlobalLevel(zloglevel)

	if logFmt == "json" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(output)
	} else if logFmt == "text" { // no color
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: output, NoColor: true, TimeFormat: time.RFC3339})
	} else { // default: console mode using color
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: output, NoColor: false, TimeFormat: time.RFC3339})
	}
}
