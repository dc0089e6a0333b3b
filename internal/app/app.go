package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/cashgrid/internal/ctxlog"
	"github.com/vk/cashgrid/internal/hcl"
)

// Loader reads model files into a loaded model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*hcl.Result, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader Loader
}

// NewApp is the constructor for the main application. Rendered tables go to
// outW and logs to logW. A nil loader selects the HCL loader.
func NewApp(outW, logW io.Writer, cfg *Config, loader Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		var opts []hcl.LoaderOption
		if cfg.Memoize {
			opts = append(opts, hcl.WithMemoization())
		}
		loader = hcl.NewLoader(opts...)
	}

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader,
	}
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// context attaches the application's logger to ctx.
func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
