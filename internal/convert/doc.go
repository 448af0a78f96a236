// Package convert runs conversion requests against the available backends.
//
// An Orchestrator probes the backends in priority order (Native, then
// External, with Simulated always available), starts the first usable one,
// and falls back to Simulated when that attempt fails. Every request gets its
// own progress.Stream that survives backend swaps, a supervisor goroutine, and
// a Conversion handle exposing a done channel and a cancel function. Events
// from an attempt that has already ended are dropped.
package convert
