package slogx

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/vonage/pkg/idx"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, slog.Default())
}

// FromContextOr returns the logger stored in ctx, or fallback when there is none.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}

// WithRequestID derives a logger tagged with a fresh request id (and the
// active trace id, if any) and stores it in the returned context.
func WithRequestID(ctx context.Context, base *slog.Logger) (context.Context, *slog.Logger, idx.ID) {
	id := idx.New()
	l := FromContextOr(ctx, base).With("req_id", id.String())
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		l = l.With("trace_id", sc.TraceID().String())
	}
	return WithContext(ctx, l), l, id
}
