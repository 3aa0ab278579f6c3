package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordCheck(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
	})

	ResetMetricsForTest()

	RecordCheck(ctx, CheckMetrics{
		Source:     "server",
		Passed:     false,
		Violations: map[string]int{"footer-ticket": 1, "type-enum": 2},
		Duration:   30 * time.Millisecond,
	})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	metrics := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			metrics[m.Name] = m
		}
	}

	checks, ok := metrics["commitcheck.checks_total"]
	require.True(t, ok, "missing checks_total")
	checksData, ok := checks.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, checksData.DataPoints, 1)
	assert.Equal(t, int64(1), checksData.DataPoints[0].Value)
	outcome, ok := checksData.DataPoints[0].Attributes.Value(attribute.Key("lint.outcome"))
	require.True(t, ok)
	assert.Equal(t, "fail", outcome.AsString())

	violations, ok := metrics["commitcheck.violations_total"]
	require.True(t, ok, "missing violations_total")
	violationsData := violations.Data.(metricdata.Sum[int64])
	var total int64
	for _, dp := range violationsData.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)

	latency, ok := metrics["commitcheck.check_duration_ms"]
	require.True(t, ok, "missing check_duration_ms")
	latencyData := latency.Data.(metricdata.Histogram[float64])
	require.Len(t, latencyData.DataPoints, 1)
	assert.Equal(t, uint64(1), latencyData.DataPoints[0].Count)
	assert.Equal(t, float64(30), latencyData.DataPoints[0].Sum)
}
