// Package history keeps a SQLite log of finished conversions.
//
// Store implements convert.Recorder so the orchestrator records every outcome,
// including rejected and cancelled requests. `vconv history` reads it back
// newest first.
package history
