package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for service spans
const TracerName = "flowsales"

// Service span attribute keys
const (
	SpanAttrBatchID   = "batch_id"
	SpanAttrFileName  = "file_name"
	SpanAttrRowCount  = "row_count"
	SpanAttrStaged    = "staged_reused"
	SpanAttrApplied   = "applied_count"
	SpanAttrStale     = "stale_count"
	SpanAttrFailed    = "failed_count"
	SpanAttrApproved  = "approved_count"
	SpanAttrConflicts = "conflict_count"

	SpanAttrProposalID = "proposal_id"
	SpanAttrLineCount  = "line_count"
	SpanAttrTotal      = "total"
	SpanAttrCurrency   = "currency"
)

// SpanOption adjusts a span before it starts
type SpanOption func(*spanConfig)

type spanConfig struct {
	attrs []attribute.KeyValue
	kind  trace.SpanKind
}

// WithAttribute sets an attribute at span start
func WithAttribute(key string, value any) SpanOption {
	return func(c *spanConfig) {
		c.attrs = append(c.attrs, toAttribute(key, value))
	}
}

// WithSpanKind overrides the default internal span kind
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// StartServiceSpan starts a span named "<service>.<method>" on the global
// provider. The caller ends it.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "import_service", "commit",
//	    telemetry.WithAttribute(telemetry.SpanAttrBatchID, id.String()))
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	cfg := spanConfig{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}
	startOpts := []trace.SpanStartOption{trace.WithSpanKind(cfg.kind)}
	if len(cfg.attrs) > 0 {
		startOpts = append(startOpts, trace.WithAttributes(cfg.attrs...))
	}
	return otel.Tracer(TracerName).Start(ctx, service+"."+method, startOpts...)
}

// SetAttributes sets attributes from alternating key/value arguments.
// Pairs whose key is not a string are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(pairsToAttributes(keyValues)...)
}

// RecordError records err on the span and marks the span failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func pairsToAttributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
