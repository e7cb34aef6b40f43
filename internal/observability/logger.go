package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Log attribute keys.
const (
	AttrFile   = "file"
	AttrSchema = "schema"

	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
)

type logKey int

const (
	fileKey logKey = iota
	schemaKey
)

// WithFile marks ctx as belonging to the conversion of the source file path.
func WithFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, fileKey, path)
}

// WithSchema marks ctx as belonging to the root schema name.
func WithSchema(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, schemaKey, name)
}

// FileFromContext returns the source file set by [WithFile].
func FileFromContext(ctx context.Context) (string, bool) {
	path, ok := ctx.Value(fileKey).(string)

	return path, ok
}

// SchemaFromContext returns the schema name set by [WithSchema].
func SchemaFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(schemaKey).(string)

	return name, ok
}

// ConversionHandler is an [slog.Handler] for conversion runs. Every record
// gets the file and schema carried by its context and the ids of the active
// span; keys the record already has are left alone. Service, env and mode are
// fixed at construction.
type ConversionHandler struct {
	inner slog.Handler
}

// NewConversionHandler wraps inner with the run identity from cfg.
func NewConversionHandler(inner slog.Handler, cfg Config) *ConversionHandler {
	attrs := []slog.Attr{
		slog.String(attrService, cfg.ServiceName),
		slog.String(attrMode, string(cfg.Mode)),
	}

	if cfg.Environment != "" {
		attrs = append(attrs, slog.String(attrEnv, cfg.Environment))
	}

	return &ConversionHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (ch *ConversionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return ch.inner.Enabled(ctx, level)
}

// Handle implements [slog.Handler].
func (ch *ConversionHandler) Handle(ctx context.Context, record slog.Record) error {
	present := make(map[string]bool, record.NumAttrs())

	record.Attrs(func(attr slog.Attr) bool {
		present[attr.Key] = true

		return true
	})

	if path, ok := FileFromContext(ctx); ok && !present[AttrFile] {
		record.AddAttrs(slog.String(AttrFile, path))
	}

	if name, ok := SchemaFromContext(ctx); ok && !present[AttrSchema] {
		record.AddAttrs(slog.String(AttrSchema, name))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	err := ch.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("conversion handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (ch *ConversionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ConversionHandler{inner: ch.inner.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (ch *ConversionHandler) WithGroup(name string) slog.Handler {
	return &ConversionHandler{inner: ch.inner.WithGroup(name)}
}
