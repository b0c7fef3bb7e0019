// Package logging provides structured logging for huekeep.
//
// This package wraps Go's standard log/slog package to provide consistent,
// structured logging across the entire application.
//
// # Features
//
//   - Text output for console use (default), JSON for machine consumption
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig section of the config file:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stderr"   # stderr, stdout
//
// Diagnostics go to stderr by default so that the restore summary written to
// stdout stays clean and pipeable.
//
// # Security
//
// Never log the bridge API key. When a request path must be logged, log the
// resource path relative to the API root, which does not embed the key.
package logging
