package services

import "context"

type contextKey string

const (
	titleIDKey   contextKey = "title_id"
	requestIDKey contextKey = "request_id"
)

// WithTitleID annotates context with the cache title identifier.
func WithTitleID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, titleIDKey, id)
}

// TitleIDFromContext extracts the title identifier if present.
func TitleIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(titleIDKey).(string); ok && v != "" {
		return v, true
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
