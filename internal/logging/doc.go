// Package logging provides structured logging utilities for multical.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "registry.fetch")
//	logger.Warn("listing calendars failed",
//	    logging.Account(accountID),
//	    logging.Err(err))
//
// Account identifiers are Google email addresses and are hashed by Account()
// so that log lines can be correlated without exposing PII.
//
// CronLogger routes robfig/cron scheduler output into slog.
package logging
