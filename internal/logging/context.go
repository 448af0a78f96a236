package logging

import (
	"context"
	"log/slog"

	"vconv/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldConversionID identifies one Convert request across all of its attempts.
	FieldConversionID = "conversion_id"
	// FieldStage is the standardized structured logging key for orchestration stages.
	FieldStage = "stage"
	// FieldBackend names the backend running the current attempt.
	FieldBackend = "backend"
	// FieldAttempt is the 1-based attempt number within a conversion.
	FieldAttempt = "attempt"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldDecisionType marks a log line that records a selection decision.
	FieldDecisionType = "decision_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldProgressPercent carries a progress percentage.
	FieldProgressPercent = "progress_percent"
	// FieldProgressStep carries the human-readable progress step.
	FieldProgressStep = "progress_step"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.ConversionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldConversionID, id))
	}
	if backend, ok := services.BackendFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBackend, backend))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
