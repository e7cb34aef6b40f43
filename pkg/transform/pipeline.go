package transform

import (
	"github.com/Sumatoshi-tech/schemaconv/pkg/schema"
	"github.com/Sumatoshi-tech/schemaconv/pkg/syntax"
)

// Pass names, in pipeline order.
const (
	PassStripDeprecated = "strip-deprecated"
	PassPruneFieldTypes = "prune-field-types"
	PassPruneFieldsets  = "prune-fieldsets"
	PassWrap            = "wrap"
	PassExport          = "export"
	PassRewriteImports  = "rewrite-imports"
	PassInjectImports   = "inject-imports"
)

// state is what the passes of one conversion share. Only the root's node
// and name are kept: descriptors are re-derived from the tree when needed.
type state struct {
	tree     *syntax.Tree
	opts     *Options
	detector schema.Detector
	rules    []ImportRule
	root     syntax.NodeID
	rootName string
	stats    Stats

	// exported is the binding chosen for the root, once exported.
	exported string
}

type pass struct {
	name  string
	apply func(st *state) error
}

// pipeline is the fixed pass order. Field-type pruning runs before fieldset
// pruning so that fieldsets only referenced by pruned fields go too.
var pipeline = []pass{
	{name: PassStripDeprecated, apply: stripDeprecated},
	{name: PassPruneFieldTypes, apply: pruneFieldTypes},
	{name: PassPruneFieldsets, apply: pruneFieldsets},
	{name: PassWrap, apply: wrapNodes},
	{name: PassExport, apply: transformExport},
	{name: PassRewriteImports, apply: rewriteImports},
	{name: PassInjectImports, apply: injectImports},
}

// Passes returns the pass names in the order they run.
func Passes() []string {
	names := make([]string, len(pipeline))
	for idx, p := range pipeline {
		names[idx] = p.name
	}

	return names
}
