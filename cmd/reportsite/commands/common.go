package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/reportsite/internal/config"
)

// Global carries process-wide state into every command.
type Global struct {
	Ctx context.Context
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"reportsite.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build       BuildCmd   `cmd:"" help:"Build the site once"`
	Watch       WatchCmd   `cmd:"" help:"Build, then rebuild whenever an input changes"`
	Init        InitCmd    `cmd:"" help:"Write a configuration file with the default settings"`
	VersionInfo VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// BuildFlags override configuration for a single invocation.
type BuildFlags struct {
	Output     string `short:"o" help:"Output directory (overrides paths.build)" type:"path"`
	Only       string `help:"Generate the detail page of this report only" placeholder:"NUMBER"`
	SkipTopics bool   `name:"skip-topics" help:"Skip per-topic pages" xor:"topics"`
	WithTopics bool   `name:"with-topics" help:"Render per-topic pages even with --only" xor:"topics"`
}

// LoadConfig loads the configuration file and applies the flag overrides.
func LoadConfig(configPath string, flags BuildFlags) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if flags.Output != "" {
		cfg.Paths.Build = flags.Output
	}
	if flags.Only != "" {
		cfg.Debug.Only = flags.Only
	}
	switch {
	case flags.SkipTopics:
		skip := true
		cfg.Debug.SkipTopics = &skip
	case flags.WithTopics:
		skip := false
		cfg.Debug.SkipTopics = &skip
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (g *Global) context() context.Context {
	if g == nil || g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
