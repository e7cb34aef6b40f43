// Package transform converts plain object-literal schema files into the
// factory-wrapped module form.
//
// A conversion parses one file, detects its root schema and runs a fixed
// sequence of passes over the tree: deprecated attributes are stripped,
// excluded field types and the fieldsets left without fields are pruned, the
// root and its fields are wrapped in the type and field factories, the
// default export becomes a named export and legacy imports are migrated
// before the factory import is prepended.
package transform

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/schemaconv/internal/observability"
	"github.com/Sumatoshi-tech/schemaconv/pkg/schema"
	"github.com/Sumatoshi-tech/schemaconv/pkg/syntax"
)

const tracerName = "schemaconv/transform"

// Status tells whether a conversion changed the file.
type Status int

const (
	// StatusUnchanged means no root schema was found; the output is the input.
	StatusUnchanged Status = iota
	// StatusConverted means the passes ran and the output is the rewritten file.
	StatusConverted
)

func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusConverted:
		return "converted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stats counts the edits of one conversion.
type Stats struct {
	FieldsWrapped      int `json:"fields_wrapped"      yaml:"fields_wrapped"`
	FieldsPruned       int `json:"fields_pruned"       yaml:"fields_pruned"`
	FieldsetsPruned    int `json:"fieldsets_pruned"    yaml:"fieldsets_pruned"`
	AttributesStripped int `json:"attributes_stripped" yaml:"attributes_stripped"`
	ImportsRewritten   int `json:"imports_rewritten"   yaml:"imports_rewritten"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.FieldsWrapped += other.FieldsWrapped
	s.FieldsPruned += other.FieldsPruned
	s.FieldsetsPruned += other.FieldsetsPruned
	s.AttributesStripped += other.AttributesStripped
	s.ImportsRewritten += other.ImportsRewritten
}

// Result is the outcome of converting one file.
type Result struct {
	Output []byte
	Status Status
	// Schema is the name of the root schema, "" when unchanged.
	Schema string
	Stats  Stats
}

// Transformer converts schema files. It is safe for concurrent use: every
// call owns its tree and the options are never mutated.
type Transformer struct {
	opts   Options
	parser *syntax.Parser
}

// New creates a transformer.
func New(opts Options) *Transformer {
	opts = opts.withDefaults()

	return &Transformer{opts: opts, parser: syntax.NewParser()}
}

// Options returns the effective options.
func (t *Transformer) Options() Options {
	return t.opts
}

// Convert rewrites one file. The grammar is picked from filename. Source
// without a root schema comes back byte for byte with [StatusUnchanged];
// source that does not parse yields an error wrapping [syntax.ErrParse].
func (t *Transformer) Convert(ctx context.Context, filename string, src []byte) (Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, observability.SpanConvertFile,
		trace.WithAttributes(
			attribute.String("file.name", filename),
			attribute.Int("file.size", len(src)),
		))
	defer span.End()

	result, err := t.convert(ctx, filename, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversion failed")

		return Result{}, err
	}

	span.SetAttributes(
		attribute.String("convert.status", result.Status.String()),
		attribute.Int("convert.fields_wrapped", result.Stats.FieldsWrapped),
		attribute.Int("convert.fields_pruned", result.Stats.FieldsPruned),
	)

	return result, nil
}

func (t *Transformer) convert(ctx context.Context, filename string, src []byte) (Result, error) {
	unchanged := Result{Output: src, Status: StatusUnchanged}

	err := ctx.Err()
	if err != nil {
		return Result{}, err
	}

	tree, err := t.parser.Parse(ctx, filename, src)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", filename, err)
	}

	detector := schema.Detector{Heuristic: t.opts.Heuristic}

	root, ok := detector.Detect(tree)
	if !ok {
		t.opts.Logger.DebugContext(ctx, "no root schema", "file", filename)

		return unchanged, nil
	}

	ctx = observability.WithSchema(ctx, root.Name)

	st := &state{
		tree:     tree,
		opts:     &t.opts,
		detector: detector,
		rules:    importRules,
		root:     root.Node,
		rootName: root.Name,
	}

	for _, p := range pipeline {
		err = p.apply(st)
		if err != nil {
			return Result{}, fmt.Errorf("%s: pass %s: %w", filename, p.name, err)
		}
	}

	if st.exported != "" && st.exported != schema.Identifier(root.Name) {
		t.opts.Logger.WarnContext(ctx, "export name already bound, renamed",
			"file", filename, "export", st.exported)
	}

	t.opts.Logger.DebugContext(ctx, "converted schema",
		"file", filename,
		"fields_wrapped", st.stats.FieldsWrapped,
		"fields_pruned", st.stats.FieldsPruned,
		"fieldsets_pruned", st.stats.FieldsetsPruned,
	)

	return Result{
		Output: []byte(tree.String()),
		Status: StatusConverted,
		Schema: root.Name,
		Stats:  st.stats,
	}, nil
}
