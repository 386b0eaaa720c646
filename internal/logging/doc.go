// Package logging provides structured logging utilities for mydos.
//
// All packages log through log/slog. This package keeps attribute names
// consistent across the handler, the upstream clients and the CLI, and
// builds the process-wide logger from configuration.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithService(slog.Default(), "notion")
//	logger.Info("query completed",
//	    logging.Operation("fetch_open_tasks"),
//	    logging.Status(logging.StatusSuccess))
//
// Never log API keys directly; use SanitizeToken:
//
//	logger.Debug("using key", "key", logging.SanitizeToken(apiKey))
package logging
