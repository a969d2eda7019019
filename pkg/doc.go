// Package pkg provides shared utilities for the softsd controller emulator.
//
// This package contains common functionality used by the controller, the
// image table, the transports and the client, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for the controller's error taxonomy
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with per-component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentController, "image registered", "index", 1)
//
// # Errors
//
// Errors are defined as sentinel values and wrapped with context:
//
//	if errors.Is(err, pkg.ErrOutOfRange) {
//	    // sector beyond the end of the image
//	}
package pkg
