package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestDisabledProviders(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	collector := telemetry.Collector{Endpoint: "localhost:4317", Insecure: true, ServiceName: "flowsales-test"}

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{Collector: collector, SamplingRatio: 1}, logger)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.False(t, tp.SpanProfilesEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{Collector: collector}, logger)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	counter, err := telemetry.NewCounter(mp.Meter("test"), "noop_total", "", "1")
	require.NoError(t, err)
	counter.Inc(ctx)
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{Collector: collector}, logger)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestLoggerProvider_BridgeDisabledReturnsBase(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zap.NewNop())
	require.NoError(t, err)

	bridged := lp.Bridge(base, "flowsales", zap.WarnLevel)
	assert.Same(t, base, bridged)

	bridged.Info("row normalized")
	assert.Equal(t, 1, logs.Len())
}

func TestNewProfiler(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("missing server address", func(t *testing.T) {
		_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:         true,
			ApplicationName: "flowsales",
		}, zap.NewNop())
		assert.EqualError(t, err, "profiler server address is required")
	})

	t.Run("missing application name", func(t *testing.T) {
		_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:       true,
			ServerAddress: "http://localhost:4040",
		}, zap.NewNop())
		assert.EqualError(t, err, "profiler application name is required")
	})
}

func TestInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	meter := provider.Meter("test")
	ctx := context.Background()

	counter, err := telemetry.NewCounter(meter, "uploads_total", "Uploads", "{upload}")
	require.NoError(t, err)
	counter.Inc(ctx, telemetry.AttrBatchID.String("b1"))
	counter.Add(ctx, 2, telemetry.AttrBatchID.String("b1"))
	assert.Equal(t, map[string]int64{"b1": 3}, sumByAttr(t, reader, "uploads_total", telemetry.AttrBatchID))

	gauge, err := telemetry.NewGauge(meter, "pending_entries", "Pending entries", "{entry}")
	require.NoError(t, err)
	gauge.Record(ctx, 7)
	v, ok := gaugeValue(t, reader, "pending_entries")
	require.True(t, ok)
	assert.Equal(t, int64(7), v)

	h, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:       "stage_seconds",
		Unit:       "s",
		Boundaries: telemetry.StageDurationBuckets,
	})
	require.NoError(t, err)
	h.RecordDuration(ctx, 1500*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "stage_seconds" {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			require.Len(t, hist.DataPoints, 1)
			assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
			assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 1e-9)
			assert.Equal(t, telemetry.StageDurationBuckets, hist.DataPoints[0].Bounds)
			found = true
		}
	}
	assert.True(t, found)
}
