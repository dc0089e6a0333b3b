package app

import (
	"errors"
	"fmt"

	"github.com/vk/cashgrid/internal/node"
	"github.com/vk/cashgrid/internal/table"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPath string // hcl file or directory

	// Steps overrides the model's own step count when set, zero included.
	Steps    *int
	Format   table.Format
	MaxDepth int
	Memoize  bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("ModelPath is a required configuration field and cannot be empty")
	}
	if cfg.Steps != nil && *cfg.Steps < 0 {
		return nil, fmt.Errorf("steps must not be negative, got %d", *cfg.Steps)
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative, got %d", cfg.MaxDepth)
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = node.DefaultMaxDepth
	}

	if cfg.Format == "" {
		cfg.Format = table.FormatText
	}
	format, err := table.ParseFormat(string(cfg.Format))
	if err != nil {
		return nil, err
	}
	cfg.Format = format

	return &cfg, nil
}
