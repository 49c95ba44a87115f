// Package common provides shared initialization for command implementations.
package common

import (
	"errors"
	"fmt"

	"github.com/jonesrussell/powerdraw/internal/config"
	"github.com/jonesrussell/powerdraw/internal/logger"
)

var (
	// ErrLoggerRequired is returned when CommandDeps.Logger is nil.
	ErrLoggerRequired = errors.New("logger is required")
	// ErrConfigRequired is returned when CommandDeps.Config is nil.
	ErrConfigRequired = errors.New("config is required")
)

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// NewCommandDeps creates CommandDeps by loading config and creating the
// logger. InitializeViper must already have run.
func NewCommandDeps() (CommandDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	return CommandDeps{Logger: log, Config: cfg}, nil
}
