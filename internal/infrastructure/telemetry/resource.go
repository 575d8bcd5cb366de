// Package telemetry wires OpenTelemetry traces, metrics and logs, Pyroscope
// profiling, and the GORM instrumentation used by the FlowSales server.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// Version is reported as service.version on every exported signal. The
// server overrides it at link time.
var Version = "dev"

// shutdownTimeout bounds the final flush of each provider
const shutdownTimeout = 10 * time.Second

// Collector is the OTLP gRPC endpoint signals are exported to
type Collector struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
}

func serviceResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}
	return res, nil
}

// shutdownProvider runs a provider's Shutdown under shutdownTimeout
func shutdownProvider(ctx context.Context, logger *zap.Logger, signal string, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		logger.Error("Telemetry provider shutdown failed", zap.String("signal", signal), zap.Error(err))
		return fmt.Errorf("shut down %s provider: %w", signal, err)
	}
	logger.Info("Telemetry provider stopped", zap.String("signal", signal))
	return nil
}
