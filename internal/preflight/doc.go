// Package preflight provides readiness checks for the filesystem paths and
// tools vconv depends on.
//
// `vconv status` runs RunAll to show directory access next to the backend
// probes, and `vconv convert` calls CheckOutputDirectory before taking the
// output lock so a read-only destination fails fast with a clear message.
package preflight
