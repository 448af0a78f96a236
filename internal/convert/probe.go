package convert

import (
	"context"
	"log/slog"

	"vconv/internal/backend"
	"vconv/internal/config"
	"vconv/internal/deps"
	"vconv/internal/logging"
)

// ProbeFunc reports whether a backend can run right now. It must not have
// side effects. A non-nil error is logged and treated as unavailable.
type ProbeFunc func(ctx context.Context) (bool, error)

// Availability is one probe result as shown by `vconv status`.
type Availability struct {
	Kind      backend.Kind
	Available bool
	Err       error
}

func nativeProbe(cfg *config.Config) ProbeFunc {
	enabled := cfg.Backends.NativeEnabled
	return func(context.Context) (bool, error) {
		return enabled, nil
	}
}

func externalProbe(cfg *config.Config) ProbeFunc {
	binary := cfg.Tools.FFmpeg
	timeout := cfg.ProbeTimeout()
	return func(ctx context.Context) (bool, error) {
		ok, _, err := deps.ProbeVersion(ctx, binary, timeout)
		return ok, err
	}
}

// probe runs kind's probe under the configured timeout. Backends without a
// probe or runner are unavailable; Simulated without an explicit probe is
// always available.
func (o *Orchestrator) probe(ctx context.Context, kind backend.Kind, logger *slog.Logger) Availability {
	result := Availability{Kind: kind}
	if _, ok := o.runners[kind]; !ok {
		return result
	}
	fn, ok := o.probes[kind]
	if !ok {
		result.Available = kind == backend.Simulated
		return result
	}
	probeCtx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()
	result.Available, result.Err = fn(probeCtx)
	if result.Err != nil {
		result.Available = false
		logging.WarnWithContext(logger, "backend probe failed; treating as unavailable", "backend_probe_failed",
			logging.String(logging.FieldBackend, kind.String()),
			logging.Error(result.Err),
			logging.String(logging.FieldErrorHint, "run `vconv status` to check tool paths"),
			logging.String(logging.FieldImpact, "a lower-priority backend is used"),
		)
	} else {
		logger.Debug("backend probed",
			logging.String(logging.FieldBackend, kind.String()),
			logging.Bool("available", result.Available),
		)
	}
	o.observer.ProbeResult(kind.String(), result.Available)
	return result
}

// ProbeAll probes every backend without short-circuiting.
func (o *Orchestrator) ProbeAll(ctx context.Context) []Availability {
	logger := logging.WithContext(ctx, o.logger)
	out := make([]Availability, 0, len(backend.Kinds()))
	for _, kind := range backend.Kinds() {
		out = append(out, o.probe(ctx, kind, logger))
	}
	return out
}

// Select returns the first available backend in priority order. External is
// only probed when Native is unavailable.
func (o *Orchestrator) Select(ctx context.Context) backend.Kind {
	logger := logging.WithContext(ctx, o.logger)
	for _, kind := range []backend.Kind{backend.Native, backend.External} {
		if o.probe(ctx, kind, logger).Available {
			logger.Info("backend selected", logging.Args(logging.DecisionAttrs("backend", kind.String(), "highest priority available")...)...)
			return kind
		}
	}
	logger.Info("backend selected", logging.Args(logging.DecisionAttrs("backend", backend.Simulated.String(), "no real backend available")...)...)
	return backend.Simulated
}
