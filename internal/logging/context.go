package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldOT is the structured logging key for work order identifiers.
	FieldOT = "ot"
	// FieldStage is the structured logging key for stage names.
	FieldStage = "stage"
	// FieldActor is the structured logging key for the acting user id.
	FieldActor = "actor"
	// FieldCorrelationID is the structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
)

type contextKey int

const (
	otKey contextKey = iota
	stageKey
	actorKey
	requestIDKey
)

// WithOT tags ctx with a work order identifier.
func WithOT(ctx context.Context, ot string) context.Context {
	return context.WithValue(ctx, otKey, ot)
}

// WithStage tags ctx with a stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// WithActor tags ctx with the acting user id.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// WithRequestID tags ctx with a correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation id stored on ctx.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	for _, entry := range []struct {
		key   contextKey
		field string
	}{
		{otKey, FieldOT},
		{stageKey, FieldStage},
		{actorKey, FieldActor},
		{requestIDKey, FieldCorrelationID},
	} {
		if v, ok := stringValue(ctx, entry.key); ok {
			fields = append(fields, slog.String(entry.field, v))
		}
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
	return logger.With(Args(fields...)...)
}
