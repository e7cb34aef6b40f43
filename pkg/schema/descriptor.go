// Package schema recognises schema-definition object literals inside a
// [syntax.Tree]: the root schema a file exports, the field objects listed in
// `fields` arrays and the groups listed in `fieldsets` arrays.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/schemaconv/pkg/syntax"
)

// Property names the detector reads.
const (
	PropName      = "name"
	PropType      = "type"
	PropTitle     = "title"
	PropFields    = "fields"
	PropFieldsets = "fieldsets"
	PropFieldset  = "fieldset"
)

// ErrUnknownHeuristic is returned by [ParseHeuristic] for unknown names.
var ErrUnknownHeuristic = errors.New("unknown detection heuristic")

// Heuristic selects the sibling properties that mark an object literal as
// schema-shaped.
type Heuristic int

const (
	// HeuristicTypeName requires string-literal `type` and `name` properties.
	HeuristicTypeName Heuristic = iota
	// HeuristicTitleName requires string-literal `title` and `name` properties.
	HeuristicTitleName
)

// String returns the configuration name of the heuristic.
func (h Heuristic) String() string {
	switch h {
	case HeuristicTypeName:
		return "type-name"
	case HeuristicTitleName:
		return "title-name"
	default:
		return fmt.Sprintf("Heuristic(%d)", int(h))
	}
}

// ParseHeuristic maps a configuration name to a [Heuristic].
func ParseHeuristic(name string) (Heuristic, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "type-name":
		return HeuristicTypeName, nil
	case "title-name":
		return HeuristicTitleName, nil
	default:
		return HeuristicTypeName, fmt.Errorf("%w: %q", ErrUnknownHeuristic, name)
	}
}

// Descriptor is a view of one schema-shaped object literal. It is derived
// from the tree on demand and goes stale as soon as the tree is edited.
type Descriptor struct {
	Node syntax.NodeID
	Name string
	Type string
	// Fieldset is the string-literal `fieldset` property, "" when absent.
	Fieldset  string
	IsRoot    bool
	HasFields bool
}

// Detector inspects object literals with a fixed heuristic.
type Detector struct {
	Heuristic Heuristic
}

// Inspect returns the descriptor of obj. ok is false when obj is not an
// object literal or lacks the string-literal properties the heuristic
// requires; such nodes are simply not schemas.
func (d Detector) Inspect(tree *syntax.Tree, obj syntax.NodeID) (Descriptor, bool) {
	if tree.Kind(obj) != syntax.KindObject {
		return Descriptor{}, false
	}

	name, ok := StringProperty(tree, obj, PropName)
	if !ok {
		return Descriptor{}, false
	}

	typ, hasType := StringProperty(tree, obj, PropType)

	switch d.Heuristic {
	case HeuristicTitleName:
		if _, hasTitle := StringProperty(tree, obj, PropTitle); !hasTitle {
			return Descriptor{}, false
		}
	default:
		if !hasType {
			return Descriptor{}, false
		}
	}

	fieldset, _ := StringProperty(tree, obj, PropFieldset)

	return Descriptor{
		Node:      obj,
		Name:      name,
		Type:      typ,
		Fieldset:  fieldset,
		IsRoot:    IsRoot(tree, obj),
		HasFields: HasFields(tree, obj),
	}, true
}

// Detect returns the root schema of the file: the first schema-shaped
// object literal exported by default, directly or through one call.
func (d Detector) Detect(tree *syntax.Tree) (Descriptor, bool) {
	for _, obj := range tree.FindKind(syntax.KindObject) {
		if !IsRoot(tree, obj) {
			continue
		}

		if desc, ok := d.Inspect(tree, obj); ok {
			return desc, true
		}
	}

	return Descriptor{}, false
}

// Inspect uses the default `type`+`name` heuristic.
func Inspect(tree *syntax.Tree, obj syntax.NodeID) (Descriptor, bool) {
	return Detector{}.Inspect(tree, obj)
}

// Detect uses the default `type`+`name` heuristic.
func Detect(tree *syntax.Tree) (Descriptor, bool) {
	return Detector{}.Detect(tree)
}

// IsRoot reports whether obj is the value of a default export, either
// directly or as an argument of a call that is.
func IsRoot(tree *syntax.Tree, obj syntax.NodeID) bool {
	parent := tree.Parent(obj)

	switch tree.Kind(parent) {
	case syntax.KindExportDefault:
		return tree.Field(obj) == syntax.FieldValue
	case syntax.KindCall:
		return tree.Field(obj) == syntax.FieldArguments &&
			tree.Kind(tree.Parent(parent)) == syntax.KindExportDefault &&
			tree.Field(parent) == syntax.FieldValue
	default:
		return false
	}
}

// IsField reports whether obj is a direct element of a `fields` array.
func IsField(tree *syntax.Tree, obj syntax.NodeID) bool {
	return tree.Kind(obj) == syntax.KindObject && InList(tree, obj, PropFields)
}

// IsFieldsetEntry reports whether obj is a direct element of a `fieldsets`
// array.
func IsFieldsetEntry(tree *syntax.Tree, obj syntax.NodeID) bool {
	return tree.Kind(obj) == syntax.KindObject && InList(tree, obj, PropFieldsets)
}

// InList reports whether id is a direct element of an array literal that is
// the value of a property named key.
func InList(tree *syntax.Tree, id syntax.NodeID, key string) bool {
	arr := tree.Parent(id)
	if tree.Kind(arr) != syntax.KindArray || tree.Field(arr) != syntax.FieldValue {
		return false
	}

	prop := tree.Parent(arr)

	return tree.Kind(prop) == syntax.KindProperty && KeyName(tree, prop) == key
}

// Slot returns the node standing in for obj inside its container: the call
// obj is an argument of, or obj itself.
func Slot(tree *syntax.Tree, obj syntax.NodeID) syntax.NodeID {
	parent := tree.Parent(obj)
	if tree.Kind(parent) == syntax.KindCall && tree.Field(obj) == syntax.FieldArguments {
		return parent
	}

	return obj
}

// HasFields reports whether obj has a `fields` property holding a non-empty
// array literal.
func HasFields(tree *syntax.Tree, obj syntax.NodeID) bool {
	arr := PropertyValue(tree, obj, PropFields)
	if tree.Kind(arr) != syntax.KindArray {
		return false
	}

	for _, elem := range tree.Children(arr) {
		if tree.Type(elem) != "comment" {
			return true
		}
	}

	return false
}
