// Package logging provides structured logging utilities for arkon components.
//
// # Overview
//
// This package wraps the standard library slog package with arkon-specific
// defaults and conventions for consistent logging across all components. It
// supports environment-based log level configuration, module/version context
// injection, and automatic source location tracking for debug logs.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("arkon", "v1.0.0")
//
//	    slog.Info("applying profile", "profile", "baseline")
//	    slog.Debug("detailed state", "diff", diff)
//	    slog.Error("apply failed", "error", err)
//	}
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("arkon", "v1.0.0", "warn")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug arkon apply baseline
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "transaction applied",
//	    "module": "arkon",
//	    "version": "v1.0.0",
//	    "backend": "grub"
//	}
//
// Debug logs additionally include source location.
package logging
