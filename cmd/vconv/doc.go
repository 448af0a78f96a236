// Package main hosts the vconv CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the logger, and
// hands conversions to the orchestrator in internal/convert. The convert
// command is a polling consumer: it drains the progress stream on a fixed
// tick and renders either a progress bar (interactive terminals) or sampled
// progress lines. The remaining commands are read-only views over backend
// availability, formats, directories, history, and configuration.
package main
