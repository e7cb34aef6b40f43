package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/schemaconv/pkg/schema"
	"github.com/Sumatoshi-tech/schemaconv/pkg/syntax"
)

// Grammar types inside import declarations.
const (
	typeImportClause    = "import_clause"
	typeNamedImports    = "named_imports"
	typeNamespaceImport = "namespace_import"
	typeImportSpecifier = "import_specifier"
	typeIdentifier      = "identifier"

	defaultExportName = "default"
)

// rewriteImports points legacy module paths at their replacements. Every
// declaration is matched on its own against the first applicable rule.
func rewriteImports(st *state) error {
	for _, imp := range st.tree.FindKind(syntax.KindImport) {
		source := st.tree.Child(imp, syntax.FieldSource)

		path, ok := schema.StringValue(st.tree, source)
		if !ok {
			continue
		}

		idx := slices.IndexFunc(st.rules, func(rule ImportRule) bool {
			return strings.Contains(path, rule.Match)
		})
		if idx < 0 {
			continue
		}

		rule := st.rules[idx]

		if rule.Specifier != "" {
			err := renameDefaultImport(st.tree, imp, rule.Specifier)
			if err != nil {
				return fmt.Errorf("rewrite import %q: %w", path, err)
			}
		}

		_, err := st.tree.ReplaceText(source, schema.Quote(rule.Source, schema.QuoteOf(st.tree, source)))
		if err != nil {
			return fmt.Errorf("rewrite import %q: %w", path, err)
		}

		st.stats.ImportsRewritten++
	}

	return nil
}

// renameDefaultImport replaces the default import of imp, written either as
// `X` or `{default as X}`, with the named import `{specifier as X}`. Other
// named imports are kept; namespace imports leave the clause untouched.
func renameDefaultImport(tree *syntax.Tree, imp syntax.NodeID, specifier string) error {
	clause := childOfType(tree, imp, typeImportClause)
	if clause == syntax.NoNode {
		return nil
	}

	var (
		local string
		named []string
	)

	for _, child := range tree.Children(clause) {
		switch tree.Type(child) {
		case typeIdentifier:
			local = tree.Text(child)
		case typeNamespaceImport:
			return nil
		case typeNamedImports:
			for _, spec := range tree.Children(child) {
				if tree.Type(spec) != typeImportSpecifier {
					continue
				}

				alias := tree.Child(spec, syntax.FieldAlias)
				if tree.Text(tree.Child(spec, syntax.FieldName)) == defaultExportName && alias != syntax.NoNode {
					local = tree.Text(alias)

					continue
				}

				named = append(named, tree.Text(spec))
			}
		}
	}

	if local == "" {
		return nil
	}

	binding := specifier
	if local != specifier {
		binding += " as " + local
	}

	_, err := tree.ReplaceText(clause, "{"+strings.Join(append([]string{binding}, named...), ", ")+"}")

	return err
}

// injectImports prepends the factory import. The field factory is only
// imported when a field was wrapped; names the file already imports from
// the factory module are left out.
func injectImports(st *state) error {
	fieldCalls := st.tree.Find(func(id syntax.NodeID) bool {
		return st.tree.Kind(id) == syntax.KindCall && st.tree.Callee(id) == st.opts.FieldFactory
	})

	names := []string{st.opts.TypeFactory}
	if len(fieldCalls) > 0 {
		names = append(names, st.opts.FieldFactory)
	}

	slices.Sort(names)

	imported := importedNames(st.tree, st.opts.FactorySource)
	names = slices.DeleteFunc(names, func(name string) bool { return imported[name] })

	if len(names) == 0 {
		return nil
	}

	decl := fmt.Sprintf("import {%s} from %s;", strings.Join(names, ", "), schema.Quote(st.opts.FactorySource, '"'))

	_, err := st.tree.Insert(st.tree.Root(), 0, syntax.KindImport, decl)
	if err != nil {
		return fmt.Errorf("inject factory import: %w", err)
	}

	return nil
}

// importedNames returns the names bound unaliased by named imports from
// source.
func importedNames(tree *syntax.Tree, source string) map[string]bool {
	names := make(map[string]bool)

	for _, imp := range tree.FindKind(syntax.KindImport) {
		path, ok := schema.StringValue(tree, tree.Child(imp, syntax.FieldSource))
		if !ok || path != source {
			continue
		}

		named := childOfType(tree, childOfType(tree, imp, typeImportClause), typeNamedImports)

		for _, spec := range tree.Children(named) {
			if tree.Type(spec) != typeImportSpecifier {
				continue
			}

			name := tree.Text(tree.Child(spec, syntax.FieldName))
			alias := tree.Child(spec, syntax.FieldAlias)

			if alias == syntax.NoNode || tree.Text(alias) == name {
				names[name] = true
			}
		}
	}

	return names
}

func childOfType(tree *syntax.Tree, id syntax.NodeID, typ string) syntax.NodeID {
	for _, child := range tree.Children(id) {
		if tree.Type(child) == typ {
			return child
		}
	}

	return syntax.NoNode
}
