// Package logging assembles structured slog loggers and formatting helpers used
// across ecgnote commands.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so session code can tag log
// lines with the session identifier. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging
