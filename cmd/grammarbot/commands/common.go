// Package commands implements the grammarbot command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"github.com/askiada/go-grammarbot/internal/config"
)

// Global holds the streams shared by every command.
type Global struct {
	Out io.Writer
	In  io.Reader
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"grammarbot.yml" type:"path"`
	EnvFile []string         `name:"env-file" help:"Dotenv files loaded before reading the environment" default:".env" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Check CheckCmd `cmd:"" help:"Check texts and files for grammar issues"`
	CI    CICmd    `cmd:"" name:"ci" help:"Manage the CircleCI pipeline definition"`
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

// LoadConfig reads the dotenv files, the configuration file and the environment, in
// that order, and validates the result.
func (c *CLI) LoadConfig() (*config.Config, error) {
	err := config.LoadDotEnv(c.EnvFile...)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	err = cfg.Validate()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid configuration %s", c.Config)
	}

	return cfg, nil
}
