package transform

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/schemaconv/pkg/schema"
	"github.com/Sumatoshi-tech/schemaconv/pkg/syntax"
)

// wrapNodes wraps the root in the type factory and every field object in
// the field factory. The root check wins when both apply.
func wrapNodes(st *state) error {
	for _, obj := range st.tree.FindKind(syntax.KindObject) {
		switch {
		case obj == st.root:
			parent := st.tree.Parent(obj)
			if st.tree.Kind(parent) == syntax.KindCall && st.tree.Callee(parent) == st.opts.TypeFactory {
				continue
			}

			_, err := st.tree.WrapCall(obj, st.opts.TypeFactory)
			if err != nil {
				return fmt.Errorf("wrap root %q: %w", st.rootName, err)
			}
		case schema.IsField(st.tree, obj):
			_, err := st.tree.WrapCall(obj, st.opts.FieldFactory)
			if err != nil {
				return fmt.Errorf("wrap field: %w", err)
			}

			st.stats.FieldsWrapped++
		}
	}

	return nil
}

// transformExport turns `export default <call>` into
// `export const <name> = <call>`. Exports of anything but a call are left
// as they are.
func transformExport(st *state) error {
	exports := st.tree.FindKind(syntax.KindExportDefault)
	if len(exports) == 0 {
		return nil
	}

	export := exports[0]

	value := st.tree.Child(export, syntax.FieldValue)
	if st.tree.Kind(value) != syntax.KindCall {
		return nil
	}

	suffix := ""
	if strings.HasSuffix(strings.TrimSpace(st.tree.Text(export)), ";") {
		suffix = ";"
	}

	st.exported = exportName(st)
	prefix := "export const " + st.exported + " = "

	_, err := st.tree.Splice(export, value, syntax.KindExportNamed, prefix, suffix)
	if err != nil {
		return fmt.Errorf("export %q: %w", st.rootName, err)
	}

	return nil
}
