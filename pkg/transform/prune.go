package transform

import (
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/schemaconv/pkg/schema"
	"github.com/Sumatoshi-tech/schemaconv/pkg/syntax"
)

// stripDeprecated removes every property entry named after a deprecated
// attribute, at any depth.
func stripDeprecated(st *state) error {
	if len(st.opts.DeprecatedAttributes) == 0 {
		return nil
	}

	for _, prop := range st.tree.FindKind(syntax.KindProperty) {
		if !slices.Contains(st.opts.DeprecatedAttributes, schema.KeyName(st.tree, prop)) {
			continue
		}

		// An enclosing deprecated property may already have gone.
		if !st.tree.Attached(prop) {
			continue
		}

		err := st.tree.Remove(prop)
		if err != nil {
			return fmt.Errorf("strip %s: %w", schema.KeyName(st.tree, prop), err)
		}

		st.stats.AttributesStripped++
	}

	return nil
}

// pruneFieldTypes removes every non-root schema object whose type is
// excluded.
func pruneFieldTypes(st *state) error {
	if len(st.opts.Exclude) == 0 {
		return nil
	}

	for _, obj := range st.tree.FindKind(syntax.KindObject) {
		if obj == st.root || !st.tree.Attached(obj) || schema.IsRoot(st.tree, obj) {
			continue
		}

		desc, ok := st.detector.Inspect(st.tree, obj)
		if !ok || !st.opts.Exclude.Contains(desc.Type) {
			continue
		}

		removed, err := removeObject(st.tree, obj)
		if err != nil {
			return fmt.Errorf("prune field %q: %w", desc.Name, err)
		}

		if removed {
			st.stats.FieldsPruned++
		}
	}

	return nil
}

// pruneFieldsets removes fieldset entries no surviving field refers to.
// Entries without a string-literal name are kept.
func pruneFieldsets(st *state) error {
	objects := st.tree.FindKind(syntax.KindObject)
	referenced := make(map[string]bool)

	for _, obj := range objects {
		if !schema.InList(st.tree, schema.Slot(st.tree, obj), schema.PropFields) {
			continue
		}

		desc, ok := st.detector.Inspect(st.tree, obj)
		if ok && desc.Fieldset != "" {
			referenced[desc.Fieldset] = true
		}
	}

	for _, obj := range objects {
		if !schema.IsFieldsetEntry(st.tree, obj) {
			continue
		}

		name, ok := schema.StringProperty(st.tree, obj, schema.PropName)
		if !ok || referenced[name] {
			continue
		}

		err := st.tree.Remove(obj)
		if err != nil {
			return fmt.Errorf("prune fieldset %q: %w", name, err)
		}

		st.stats.FieldsetsPruned++
	}

	return nil
}

// removeObject drops obj, or the call wrapping it, from its container. An
// element of an array is removed from the array; the value of a property
// takes the property with it. Any other position is left alone.
func removeObject(tree *syntax.Tree, obj syntax.NodeID) (bool, error) {
	target := schema.Slot(tree, obj)
	container := tree.Parent(target)

	switch tree.Kind(container) {
	case syntax.KindArray:
	case syntax.KindProperty:
		if tree.Field(target) != syntax.FieldValue {
			return false, nil
		}

		target = container
	default:
		return false, nil
	}

	err := tree.Remove(target)
	if err != nil {
		return false, err
	}

	return true, nil
}
