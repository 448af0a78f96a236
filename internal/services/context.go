package services

import "context"

type contextKey string

const (
	conversionIDKey contextKey = "conversion_id"
	stageKey        contextKey = "stage"
	backendKey      contextKey = "backend"
	requestIDKey    contextKey = "request_id"
)

// WithConversionID annotates context with the conversion identifier.
func WithConversionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, conversionIDKey, id)
}

// ConversionIDFromContext extracts the conversion identifier if present.
func ConversionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(conversionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the orchestration stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithBackend annotates context with the backend running the current attempt.
func WithBackend(ctx context.Context, backend string) context.Context {
	if backend == "" {
		return ctx
	}
	return context.WithValue(ctx, backendKey, backend)
}

// BackendFromContext returns the backend label if present.
func BackendFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(backendKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
