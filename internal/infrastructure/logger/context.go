package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type (
	loggerKey    struct{}
	requestIDKey struct{}
)

// WithContext stores log in ctx
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored in ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

// WithRequestID records the request ID on ctx for loggers scoped later
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request ID recorded on ctx
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithBatchID scopes log to an upload batch, adds the request and trace IDs
// found on ctx, and stores the result in ctx
func WithBatchID(ctx context.Context, log *zap.Logger, batchID string) (context.Context, *zap.Logger) {
	return scoped(ctx, log, zap.String("batch_id", batchID))
}

// WithProposalID scopes log to a proposal like WithBatchID
func WithProposalID(ctx context.Context, log *zap.Logger, proposalID string) (context.Context, *zap.Logger) {
	return scoped(ctx, log, zap.String("proposal_id", proposalID))
}

func scoped(ctx context.Context, log *zap.Logger, field zap.Field) (context.Context, *zap.Logger) {
	if log == nil {
		log = FromContext(ctx)
	}
	fields := append([]zap.Field{field}, TraceFields(ctx)...)
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	log = log.With(fields...)
	return WithContext(ctx, log), log
}

// TraceFields returns trace_id and span_id for the span in ctx, or nothing
// when ctx carries no valid span
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
