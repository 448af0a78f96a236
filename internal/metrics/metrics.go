package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the conversion counters for one process. Each instance owns
// its registry so tests and short-lived CLI runs never share state.
type Metrics struct {
	registry    *prometheus.Registry
	conversions *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	probes      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New registers the vconv collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		conversions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vconv_conversions_total",
			Help: "Finished conversions by the backend that ran last and the result",
		}, []string{"backend", "result"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vconv_fallbacks_total",
			Help: "Backend failures that moved a conversion to the next backend",
		}, []string{"from", "to"}),
		probes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vconv_backend_probes_total",
			Help: "Backend availability probes by outcome",
		}, []string{"backend", "available"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vconv_conversion_duration_seconds",
			Help:    "Wall time from request to terminal event",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"backend"}),
	}
}

// Registry exposes the underlying registry for export.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ProbeResult counts one availability probe.
func (m *Metrics) ProbeResult(backend string, available bool) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(normalizeBackendLabel(backend), strconv.FormatBool(available)).Inc()
}

// Fallback counts a move from one backend to the next.
func (m *Metrics) Fallback(from, to string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(normalizeBackendLabel(from), normalizeBackendLabel(to)).Inc()
}

// ConversionFinished counts a finished conversion and its wall time.
func (m *Metrics) ConversionFinished(backend, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := normalizeBackendLabel(backend)
	m.conversions.WithLabelValues(label, normalizeResultLabel(result)).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// WriteTextfile writes every metric in the Prometheus text format for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func normalizeBackendLabel(backend string) string {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "native", "external", "simulated":
		return strings.ToLower(strings.TrimSpace(backend))
	case "":
		return "none"
	default:
		return "unknown"
	}
}

func normalizeResultLabel(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "succeeded", "failed", "invalid_input", "cancelled", "tool", "timeout", "configuration":
		return strings.ToLower(strings.TrimSpace(result))
	default:
		return "unknown"
	}
}
