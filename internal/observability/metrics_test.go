package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/schemaconv/internal/observability"
)

func setupTestMeter(t *testing.T) (*observability.ConversionMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	cm, err := observability.NewConversionMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return cm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()

	found := findMetric(rm, name)
	require.NotNil(t, found, "%s metric not found", name)

	sum, ok := found.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", name)

	want := attribute.NewSet(attrs...)

	var total int64

	for _, dp := range sum.DataPoints {
		if len(attrs) == 0 || dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}

	return total
}

func TestConversionMetrics_RecordFile(t *testing.T) {
	t.Parallel()

	cm, reader := setupTestMeter(t)
	ctx := context.Background()

	cm.RecordFile(ctx, observability.FileStats{
		Status:          "converted",
		Duration:        2 * time.Millisecond,
		FieldsWrapped:   3,
		FieldsPruned:    1,
		FieldsetsPruned: 1,
	})
	cm.RecordFile(ctx, observability.FileStats{Status: "unchanged", Duration: time.Millisecond})
	cm.RecordFile(ctx, observability.FileStats{Status: "converted", FieldsWrapped: 2, ImportsRewritten: 4})

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumOf(t, rm, "schemaconv.files.total", attribute.String("status", "converted")))
	assert.Equal(t, int64(1), sumOf(t, rm, "schemaconv.files.total", attribute.String("status", "unchanged")))
	assert.Equal(t, int64(5), sumOf(t, rm, "schemaconv.fields.wrapped.total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "schemaconv.fields.pruned.total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "schemaconv.fieldsets.pruned.total"))
	assert.Equal(t, int64(4), sumOf(t, rm, "schemaconv.imports.rewritten.total"))
	require.NotNil(t, findMetric(rm, "schemaconv.file.duration.seconds"))
}

func TestConversionMetrics_RecordCacheLookup(t *testing.T) {
	t.Parallel()

	cm, reader := setupTestMeter(t)
	ctx := context.Background()

	cm.RecordCacheLookup(ctx, true)
	cm.RecordCacheLookup(ctx, false)
	cm.RecordCacheLookup(ctx, true)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumOf(t, rm, "schemaconv.cache.lookups.total", attribute.String("result", "hit")))
	assert.Equal(t, int64(1), sumOf(t, rm, "schemaconv.cache.lookups.total", attribute.String("result", "miss")))
}

func TestConversionMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var cm *observability.ConversionMetrics

	assert.NotPanics(t, func() {
		cm.RecordFile(context.Background(), observability.FileStats{Status: "failed"})
		cm.RecordCacheLookup(context.Background(), true)
	})
}
