// Package log provides the unitedatom loggers, built on top of the standard
// slog package.
//
// This package extends slog to provide:
//   - Repeat limiting of warnings, so a bad PMF table or a degenerate
//     integral reported once per sample does not flood stderr
//   - Configurable log levels with verbose mode support
//   - Text and JSON output
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//	slog.SetDefault(logger)
//
//	logger.Warn("non-finite potential value", "residue", 12)
package log
