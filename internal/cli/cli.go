package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/vk/cashgrid/internal/app"
	"github.com/vk/cashgrid/internal/table"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Defaults are the option values taken from the environment before flags
// are applied.
type Defaults struct {
	LogLevel  string `env:"CASHGRID_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"CASHGRID_LOG_FORMAT" envDefault:"text"`
	Format    string `env:"CASHGRID_FORMAT"     envDefault:"text"`
	MaxDepth  int    `env:"CASHGRID_MAX_DEPTH"  envDefault:"10000"`
	Memoize   bool   `env:"CASHGRID_MEMOIZE"    envDefault:"false"`
}

// Parse processes command-line arguments with defaults from the process
// environment. It returns a populated Config, a boolean indicating if the
// program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return ParseWithEnv(args, nil, output)
}

// ParseWithEnv is Parse with an explicit environment. A nil environ means
// the process environment.
func ParseWithEnv(args []string, environ map[string]string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var defaults Defaults
	if err := env.ParseWithOptions(&defaults, env.Options{Environment: environ}); err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid environment: %v", err)}
	}

	flagSet := flag.NewFlagSet("cashgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
cashgrid - Evaluate financial line-item models step by step.

Usage:
  cashgrid [options] [MODEL_PATH]

Arguments:
  MODEL_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
		fmt.Fprint(output, `
Environment:
  CASHGRID_LOG_LEVEL, CASHGRID_LOG_FORMAT, CASHGRID_FORMAT,
  CASHGRID_MAX_DEPTH, CASHGRID_MEMOIZE set the defaults of the matching options.
`)
	}

	formats := make([]string, len(table.Formats))
	for i, f := range table.Formats {
		formats[i] = string(f)
	}

	modelFlag := flagSet.String("model", "", "Path to the model file or directory.")
	mFlag := flagSet.String("m", "", "Path to the model file or directory (shorthand).")
	stepsFlag := flagSet.Int("steps", 0, "Number of steps to evaluate. When omitted, the steps of the model block are used.")
	formatFlag := flagSet.String("format", defaults.Format, "Table output format. Options: "+strings.Join(formats, ", ")+".")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	maxDepthFlag := flagSet.Int("max-depth", defaults.MaxDepth, "Evaluation depth budget per cell.")
	memoizeFlag := flagSet.Bool("memoize", defaults.Memoize, "Cache every entry's values per step.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var steps *int
	flagSet.Visit(func(f *flag.Flag) {
		if f.Name == "steps" {
			steps = stepsFlag
		}
	})

	path := ""
	if *modelFlag != "" {
		path = *modelFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Model path determined.", "path", path)

	if path == "" {
		slog.Debug("No model path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	format, err := table.ParseFormat(*formatFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid format: %v", err)}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ModelPath: path,
		Steps:     steps,
		Format:    format,
		MaxDepth:  *maxDepthFlag,
		Memoize:   *memoizeFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
