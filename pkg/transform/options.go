package transform

import (
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/schemaconv/pkg/schema"
)

// Default factory names and the module they are imported from.
const (
	DefaultTypeFactory   = "defineType"
	DefaultFieldFactory  = "defineField"
	DefaultFactorySource = "sanity"
)

// DefaultDeprecatedAttributes are the properties stripped wherever they occur.
var DefaultDeprecatedAttributes = []string{"__experimental_actions"}

// ExclusionSet is a set of field types to prune. The zero value is empty and
// prunes nothing.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds a set from types, ignoring blank entries.
func NewExclusionSet(types ...string) ExclusionSet {
	set := make(ExclusionSet, len(types))

	for _, typ := range types {
		typ = strings.TrimSpace(typ)
		if typ != "" {
			set[typ] = struct{}{}
		}
	}

	return set
}

// ParseExclusionSet splits a comma-separated list of field types.
func ParseExclusionSet(list string) ExclusionSet {
	return NewExclusionSet(strings.Split(list, ",")...)
}

// Contains reports whether typ is excluded.
func (s ExclusionSet) Contains(typ string) bool {
	_, ok := s[typ]

	return ok
}

// Sorted returns the excluded types in lexical order.
func (s ExclusionSet) Sorted() []string {
	types := make([]string, 0, len(s))
	for typ := range s {
		types = append(types, typ)
	}

	slices.Sort(types)

	return types
}

// ImportRule migrates one legacy module path. Imports whose source contains
// Match are pointed at Source; when Specifier is set the default import is
// renamed to it while keeping its local binding.
type ImportRule struct {
	Match     string
	Source    string
	Specifier string
}

// importRules is ordered: the first matching rule wins, so specific paths
// come before their prefixes.
var importRules = []ImportRule{
	{Match: "@sanity/desk-tool/structure-builder", Source: "sanity/desk", Specifier: "StructureBuilder"},
	{Match: "@sanity/form-builder/PatchEvent", Source: "sanity", Specifier: "PatchEvent"},
	{Match: "part:@sanity/base/client", Source: "sanity", Specifier: "useClient"},
	{Match: "@sanity/form-builder", Source: "sanity"},
	{Match: "@sanity/base/components", Source: "sanity"},
	{Match: "@sanity/types", Source: "sanity"},
}

// ImportRules returns a copy of the fixed import migration table.
func ImportRules() []ImportRule {
	return slices.Clone(importRules)
}

// Options configures a [Transformer]. Empty factory names fall back to the
// defaults.
type Options struct {
	// Exclude lists the field types pruned from every schema.
	Exclude   ExclusionSet
	Heuristic schema.Heuristic

	TypeFactory   string
	FieldFactory  string
	FactorySource string

	// DeprecatedAttributes are property names removed wherever they occur.
	// Nil means [DefaultDeprecatedAttributes]; an empty slice strips nothing.
	DeprecatedAttributes []string

	// Logger receives per-file debug records. When nil, a discard logger is used.
	Logger *slog.Logger
}

// DefaultOptions returns options that convert without pruning.
func DefaultOptions() Options {
	return Options{
		Exclude:              ExclusionSet{},
		TypeFactory:          DefaultTypeFactory,
		FieldFactory:         DefaultFieldFactory,
		FactorySource:        DefaultFactorySource,
		DeprecatedAttributes: slices.Clone(DefaultDeprecatedAttributes),
	}
}

func (o Options) withDefaults() Options {
	if o.Exclude == nil {
		o.Exclude = ExclusionSet{}
	}

	if o.TypeFactory == "" {
		o.TypeFactory = DefaultTypeFactory
	}

	if o.FieldFactory == "" {
		o.FieldFactory = DefaultFieldFactory
	}

	if o.FactorySource == "" {
		o.FactorySource = DefaultFactorySource
	}

	if o.DeprecatedAttributes == nil {
		o.DeprecatedAttributes = slices.Clone(DefaultDeprecatedAttributes)
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return o
}
