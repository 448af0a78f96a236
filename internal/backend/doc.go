// Package backend implements the three conversion backends vconv can
// dispatch to.
//
// Native rewrites the source into a container-shaped placeholder in-process.
// External drives ffmpeg and turns its -progress output into events.
// Simulated only reports phases on a timer and never fails.
//
// Every backend exposes a Run method matching RunFunc: synchronous setup
// checks, then one goroutine that reports on a progress.Sender and ends with
// exactly one complete or error event, even if it panics.
package backend
