package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal            = "schemaconv.files.total"
	metricFileDuration          = "schemaconv.file.duration.seconds"
	metricFieldsWrappedTotal    = "schemaconv.fields.wrapped.total"
	metricFieldsPrunedTotal     = "schemaconv.fields.pruned.total"
	metricFieldsetsPrunedTotal  = "schemaconv.fieldsets.pruned.total"
	metricImportsRewrittenTotal = "schemaconv.imports.rewritten.total"
	metricCacheLookupsTotal     = "schemaconv.cache.lookups.total"

	attrStatus = "status"
	attrResult = "result"

	cacheHit  = "hit"
	cacheMiss = "miss"
)

// durationBucketBoundaries covers 100µs to 10s: most schema files convert in
// well under a millisecond, generated ones can take seconds.
var durationBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// FileStats is what one file contributed to a run, decoupled from the
// transform types.
type FileStats struct {
	Status           string
	Duration         time.Duration
	FieldsWrapped    int
	FieldsPruned     int
	FieldsetsPruned  int
	ImportsRewritten int
}

// ConversionMetrics holds the OTel instruments of a conversion run.
type ConversionMetrics struct {
	filesTotal       metric.Int64Counter
	fileDuration     metric.Float64Histogram
	fieldsWrapped    metric.Int64Counter
	fieldsPruned     metric.Int64Counter
	fieldsetsPruned  metric.Int64Counter
	importsRewritten metric.Int64Counter
	cacheLookups     metric.Int64Counter
}

// NewConversionMetrics creates conversion metric instruments from the given meter.
func NewConversionMetrics(mt metric.Meter) (*ConversionMetrics, error) {
	b := newMetricBuilder(mt)

	cm := &ConversionMetrics{
		filesTotal:       b.counter(metricFilesTotal, "Files processed by status", "{file}"),
		fileDuration:     b.histogram(metricFileDuration, "Per-file conversion duration in seconds", "s", durationBucketBoundaries...),
		fieldsWrapped:    b.counter(metricFieldsWrappedTotal, "Field objects wrapped in the field factory", "{field}"),
		fieldsPruned:     b.counter(metricFieldsPrunedTotal, "Schema objects pruned for an excluded type", "{field}"),
		fieldsetsPruned:  b.counter(metricFieldsetsPrunedTotal, "Fieldsets pruned for having no fields", "{fieldset}"),
		importsRewritten: b.counter(metricImportsRewrittenTotal, "Legacy import declarations rewritten", "{import}"),
		cacheLookups:     b.counter(metricCacheLookupsTotal, "Conversion cache lookups by result", "{lookup}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return cm, nil
}

// RecordFile records the outcome of one file.
// Safe to call on a nil receiver (no-op).
func (cm *ConversionMetrics) RecordFile(ctx context.Context, stats FileStats) {
	if cm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, stats.Status))

	cm.filesTotal.Add(ctx, 1, attrs)
	cm.fileDuration.Record(ctx, stats.Duration.Seconds(), attrs)
	cm.fieldsWrapped.Add(ctx, int64(stats.FieldsWrapped))
	cm.fieldsPruned.Add(ctx, int64(stats.FieldsPruned))
	cm.fieldsetsPruned.Add(ctx, int64(stats.FieldsetsPruned))
	cm.importsRewritten.Add(ctx, int64(stats.ImportsRewritten))
}

// RecordCacheLookup records a conversion cache hit or miss.
// Safe to call on a nil receiver (no-op).
func (cm *ConversionMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if cm == nil {
		return
	}

	result := cacheMiss
	if hit {
		result = cacheHit
	}

	cm.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
