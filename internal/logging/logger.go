// Package logging builds the structured loggers the ledger writes its
// request audit trail and commit diagnostics with.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates a JSON logger on stdout at the given level ("debug", "info",
// "warn", "error"). An unrecognized level falls back to info so a bad
// LOG_LEVEL can never silence the audit trail.
func New(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// Discard returns a logger that drops everything. Tests use it where log
// output is noise.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
