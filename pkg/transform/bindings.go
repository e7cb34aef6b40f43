package transform

import (
	"strconv"

	"github.com/Sumatoshi-tech/schemaconv/pkg/schema"
	"github.com/Sumatoshi-tech/schemaconv/pkg/syntax"
)

const exportSuffix = "Type"

// declarationTypes bind their name field at the top level.
var declarationTypes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"class_declaration":              true,
}

// topLevelBindings collects the names bound by the module's own statements:
// imports, variable declarations, functions and classes, exported or not.
func topLevelBindings(tree *syntax.Tree) map[string]bool {
	bound := make(map[string]bool)

	for _, stmt := range tree.Children(tree.Root()) {
		switch tree.Kind(stmt) {
		case syntax.KindImport:
			importBindings(tree, stmt, bound)
		case syntax.KindExportNamed:
			if decl := tree.Child(stmt, "declaration"); decl != syntax.NoNode {
				declarationBindings(tree, decl, bound)
			}
		default:
			declarationBindings(tree, stmt, bound)
		}
	}

	return bound
}

func importBindings(tree *syntax.Tree, id syntax.NodeID, bound map[string]bool) {
	for _, child := range tree.Children(id) {
		switch tree.Type(child) {
		case "import_clause", "named_imports":
			importBindings(tree, child, bound)
		case "namespace_import":
			for _, name := range tree.Children(child) {
				bound[tree.Text(name)] = true
			}
		case "identifier":
			bound[tree.Text(child)] = true
		case "import_specifier":
			local := tree.Child(child, syntax.FieldAlias)
			if local == syntax.NoNode {
				local = tree.Child(child, syntax.FieldName)
			}

			if local != syntax.NoNode {
				bound[tree.Text(local)] = true
			}
		}
	}
}

func declarationBindings(tree *syntax.Tree, decl syntax.NodeID, bound map[string]bool) {
	switch typ := tree.Type(decl); {
	case declarationTypes[typ]:
		if name := tree.Child(decl, syntax.FieldName); name != syntax.NoNode {
			bound[tree.Text(name)] = true
		}
	case typ == "lexical_declaration" || typ == "variable_declaration":
		for _, declarator := range tree.Children(decl) {
			if tree.Type(declarator) == "variable_declarator" {
				patternBindings(tree, tree.Child(declarator, syntax.FieldName), bound)
			}
		}
	}
}

// patternBindings adds a plain name or every name a destructuring pattern
// introduces.
func patternBindings(tree *syntax.Tree, id syntax.NodeID, bound map[string]bool) {
	if id == syntax.NoNode {
		return
	}

	switch tree.Type(id) {
	case "identifier", "shorthand_property_identifier_pattern":
		bound[tree.Text(id)] = true

		return
	case "property_identifier":
		return
	}

	for _, child := range tree.Children(id) {
		patternBindings(tree, child, bound)
	}
}

// exportName picks the binding for the root schema. A name already bound in
// the module or by the factory import gets the "Type" suffix, then a counter
// until it is free.
func exportName(st *state) string {
	name := schema.Identifier(st.rootName)

	taken := topLevelBindings(st.tree)
	taken[st.opts.TypeFactory] = true
	taken[st.opts.FieldFactory] = true

	if !taken[name] {
		return name
	}

	candidate := name + exportSuffix
	for n := 2; taken[candidate]; n++ {
		candidate = name + exportSuffix + strconv.Itoa(n)
	}

	return candidate
}
