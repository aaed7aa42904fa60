package services

import "context"

type contextKey int

const (
	stageKey contextKey = iota
	requestIDKey
	operationKey
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithStage records the pipeline stage (validating, extracting, ...).
// Blank values leave ctx unchanged.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, stageKey) }

// WithOperation records the conversion kind (audio or text).
func WithOperation(ctx context.Context, operation string) context.Context {
	return withString(ctx, operationKey, operation)
}

func OperationFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, operationKey) }

// WithRequestID records the correlation identifier echoed in X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, requestIDKey) }
