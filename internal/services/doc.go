// Package services defines shared utilities consumed by the conversion
// orchestrator, the backends, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp conversion IDs, backend labels, stage names,
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is (invalid input vs tool failure vs cancellation).
//
// Use these helpers when wiring new backend logic so error handling and
// observability stay uniform across attempts.
package services
