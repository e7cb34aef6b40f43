// Package syntax provides a mutable, index-addressed syntax tree for
// JavaScript and TypeScript sources parsed with tree-sitter.
//
// Nodes live in an arena owned by the [Tree] and are addressed by [NodeID].
// Parent links are plain indices, so replacing or removing a node never
// leaves dangling owners behind. Serialization re-emits the original source
// for every untouched span and splices synthetic text where the tree was
// edited, which keeps the formatting of unrelated code intact.
package syntax

import (
	"errors"
	"fmt"
)

// NodeID addresses a node inside a [Tree].
type NodeID int

// NoNode is the null node reference.
const NoNode NodeID = -1

// Kind is the closed set of node kinds the rewrite pipeline inspects.
// Every other grammar node maps to [KindOther].
type Kind uint8

// Node kinds.
const (
	KindOther Kind = iota
	KindProgram
	KindObject
	KindProperty
	KindArray
	KindImport
	KindExportDefault
	KindExportNamed
	KindIdentifier
	KindString
	KindCall
)

var kindNames = [...]string{
	KindOther:         "Other",
	KindProgram:       "Program",
	KindObject:        "ObjectLiteral",
	KindProperty:      "PropertyEntry",
	KindArray:         "ArrayLiteral",
	KindImport:        "ImportDeclaration",
	KindExportDefault: "ExportDefaultDeclaration",
	KindExportNamed:   "ExportNamedDeclaration",
	KindIdentifier:    "Identifier",
	KindString:        "StringLiteral",
	KindCall:          "CallExpression",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", k)
}

// Field names recorded on children of the nodes the pipeline inspects.
const (
	FieldKey       = "key"
	FieldValue     = "value"
	FieldFunction  = "function"
	FieldArguments = "arguments"
	FieldSource    = "source"
	FieldName      = "name"
	FieldAlias     = "alias"
)

// Sentinel errors for tree edits.
var (
	ErrInvalidNode = errors.New("syntax: invalid node reference")
	ErrDetached    = errors.New("syntax: node is not attached to the tree")
	ErrNotDetached = errors.New("syntax: replacement node already has a parent")
)

// part is one piece of a synthetic node: literal text or an embedded child.
type part struct {
	text  string
	child NodeID
}

type node struct {
	kind     Kind
	typ      string
	field    string
	callee   string
	parent   NodeID
	children []NodeID
	parts    []part
	start    int
	end      int

	synthetic bool
	inserted  bool
	removed   bool
}

// Tree is a parsed source file. It is owned by a single conversion and is
// not safe for concurrent use.
type Tree struct {
	src   string
	lang  Language
	nodes []node
	root  NodeID
}

// Source returns the text the tree was parsed from.
func (t *Tree) Source() string { return t.src }

// Language returns the grammar used to parse the tree.
func (t *Tree) Language() Language { return t.lang }

// Root returns the program node.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of nodes ever allocated in the arena, including
// detached and removed ones.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

func (t *Tree) add(nd node) NodeID {
	t.nodes = append(t.nodes, nd)

	return NodeID(len(t.nodes) - 1)
}

// Kind returns the node kind, or [KindOther] for an invalid reference.
func (t *Tree) Kind(id NodeID) Kind {
	if !t.valid(id) {
		return KindOther
	}

	return t.nodes[id].kind
}

// Type returns the grammar node type ("pair", "object", ...). Synthetic
// nodes have an empty type.
func (t *Tree) Type(id NodeID) string {
	if !t.valid(id) {
		return ""
	}

	return t.nodes[id].typ
}

// Field returns the grammar field name under which id hangs off its parent.
func (t *Tree) Field(id NodeID) string {
	if !t.valid(id) {
		return ""
	}

	return t.nodes[id].field
}

// Parent returns the parent of id, or [NoNode] for the root and for
// detached nodes.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.valid(id) {
		return NoNode
	}

	return t.nodes[id].parent
}

// Synthetic reports whether id was created by an edit rather than parsed.
func (t *Tree) Synthetic(id NodeID) bool {
	return t.valid(id) && t.nodes[id].synthetic
}

// Children returns the live (not removed) children of id in source order.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}

	nd := &t.nodes[id]
	out := make([]NodeID, 0, len(nd.children))

	for _, child := range nd.children {
		if !t.nodes[child].removed {
			out = append(out, child)
		}
	}

	return out
}

// Child returns the first live child of id recorded under field.
func (t *Tree) Child(id NodeID, field string) NodeID {
	if !t.valid(id) {
		return NoNode
	}

	for _, child := range t.nodes[id].children {
		if !t.nodes[child].removed && t.nodes[child].field == field {
			return child
		}
	}

	return NoNode
}

// Callee returns the name of the function invoked by a call node: the
// factory name for synthetic calls, the identifier text for parsed ones, and
// "" when the callee is not a plain identifier.
func (t *Tree) Callee(id NodeID) string {
	if t.Kind(id) != KindCall {
		return ""
	}

	if t.nodes[id].synthetic {
		return t.nodes[id].callee
	}

	fn := t.Child(id, FieldFunction)
	if t.Kind(fn) != KindIdentifier {
		return ""
	}

	return t.Text(fn)
}

// Attached reports whether id is still reachable from the root.
func (t *Tree) Attached(id NodeID) bool {
	for cur := id; t.valid(cur); cur = t.nodes[cur].parent {
		if t.nodes[cur].removed {
			return false
		}

		if cur == t.root {
			return true
		}
	}

	return false
}

// Find returns all attached nodes for which pred is true, in pre-order.
// Removed subtrees are not visited.
func (t *Tree) Find(pred func(NodeID) bool) []NodeID {
	var result []NodeID

	stack := []NodeID{t.root}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if t.nodes[cur].removed {
			continue
		}

		if pred(cur) {
			result = append(result, cur)
		}

		stack = t.pushReversed(cur, stack)
	}

	return result
}

// FindKind returns all attached nodes of the given kind, in pre-order.
func (t *Tree) FindKind(kind Kind) []NodeID {
	return t.Find(func(id NodeID) bool { return t.nodes[id].kind == kind })
}

func (t *Tree) pushReversed(id NodeID, stack []NodeID) []NodeID {
	children := t.nodes[id].children

	for idx := len(children) - 1; idx >= 0; idx-- {
		stack = append(stack, children[idx])
	}

	return stack
}
