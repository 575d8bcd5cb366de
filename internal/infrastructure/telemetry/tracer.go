package telemetry

import (
	"context"
	"fmt"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config configures trace export
type Config struct {
	Enabled bool
	Collector
	SamplingRatio float64
	// SpanProfiles tags CPU samples with the active span ID so Pyroscope can
	// show the profile of a single trace. Start the profiler first.
	SpanProfiles bool
}

// TracerProvider owns the SDK tracer provider installed as the global one
type TracerProvider struct {
	sdk          *sdktrace.TracerProvider
	installed    trace.TracerProvider
	logger       *zap.Logger
	spanProfiles bool
}

// NewTracerProvider exports spans to the collector and installs the provider
// and a W3C propagator globally. Disabled tracing leaves the otel no-op in
// place.
func NewTracerProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*TracerProvider, error) {
	tp := &TracerProvider{logger: logger}
	if !cfg.Enabled {
		logger.Info("Tracing disabled")
		return tp, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP trace exporter: %w", err)
	}

	res, err := serviceResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	tp.sdk = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
	)
	tp.installed = tp.sdk
	if cfg.SpanProfiles {
		tp.installed = otelpyroscope.NewTracerProvider(tp.sdk)
		tp.spanProfiles = true
	}

	otel.SetTracerProvider(tp.installed)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Tracing enabled",
		zap.String("collector_endpoint", cfg.Endpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
		zap.Bool("span_profiles", cfg.SpanProfiles),
	)
	return tp, nil
}

// samplerFor respects the caller's sampling decision and samples root spans
// at ratio
func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// Tracer returns a named tracer from the installed provider
func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if tp.installed == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return tp.installed.Tracer(name, opts...)
}

// IsEnabled reports whether spans are exported
func (tp *TracerProvider) IsEnabled() bool {
	return tp.sdk != nil
}

// SpanProfilesEnabled reports whether spans carry profile labels
func (tp *TracerProvider) SpanProfilesEnabled() bool {
	return tp.spanProfiles
}

// Shutdown flushes pending spans
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.sdk == nil {
		return nil
	}
	return shutdownProvider(ctx, tp.logger, "trace", tp.sdk.Shutdown)
}
