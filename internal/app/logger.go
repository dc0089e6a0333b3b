package app

import (
	"io"
	"log/slog"
	"strings"
)

// newLogger builds an isolated logger writing to w. Unknown levels fall back
// to info; any format other than json yields text output.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	if strings.EqualFold(level, "warning") {
		level = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("app", "cashgrid")
}
