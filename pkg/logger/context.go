package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// Attribute keys attached to request-scoped loggers so that every log line
// of one payment flow correlates.
const (
	TraceIDKey  = "traceID"
	ProviderKey = "provider"
	OrderIDKey  = "order_id"
)

// With returns a context whose logger carries the given attributes in
// addition to those already attached.
func With(ctx context.Context, fields ...any) context.Context {
	l := From(ctx).With(fields...)
	return context.WithValue(ctx, loggerKey, l)
}

// From returns the logger stored in context, or the process logger when the
// context carries none.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
