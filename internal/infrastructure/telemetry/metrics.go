package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const defaultExportInterval = time.Minute

// MetricsConfig configures metric export
type MetricsConfig struct {
	Enabled bool
	Collector
	ExportInterval time.Duration
	// Reader replaces the periodic OTLP push, e.g. with a manual reader
	Reader sdkmetric.Reader
}

// MeterProvider owns the SDK meter provider installed as the global one.
// A nil or disabled provider hands out no-op meters.
type MeterProvider struct {
	sdk    *sdkmetric.MeterProvider
	logger *zap.Logger
}

func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		logger.Info("Metrics disabled")
		return mp, nil
	}

	reader := cfg.Reader
	if reader == nil {
		var err error
		if reader, err = otlpReader(ctx, cfg); err != nil {
			return nil, err
		}
	}
	res, err := serviceResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	mp.sdk = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp.sdk)

	logger.Info("Metrics enabled", zap.String("collector_endpoint", cfg.Endpoint))
	return mp, nil
}

func otlpReader(ctx context.Context, cfg MetricsConfig) (sdkmetric.Reader, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP metric exporter: %w", err)
	}
	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = defaultExportInterval
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), nil
}

// Meter returns a named meter
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if !mp.IsEnabled() {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.sdk.Meter(name, opts...)
}

func (mp *MeterProvider) IsEnabled() bool {
	return mp != nil && mp.sdk != nil
}

// Shutdown exports the last collection cycle
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if !mp.IsEnabled() {
		return nil
	}
	return shutdownProvider(ctx, mp.logger, "metric", mp.sdk.Shutdown)
}
