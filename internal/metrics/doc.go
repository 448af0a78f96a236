// Package metrics counts conversion outcomes, backend fallbacks, and probe
// results with Prometheus collectors, and exports them as a textfile for
// node_exporter since vconv has no long-running HTTP surface.
package metrics
