// Package logging assembles structured slog loggers and formatting helpers used
// across vconv.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so orchestrator and backend
// code tag log lines with conversion IDs, backends, and stages. The package
// also provides a no-op logger for tests and a progress sampler that keeps
// log-line progress output readable.
package logging
