package syntax

import "fmt"

// Replace puts repl into the slot occupied by old. repl must be detached
// (freshly created or previously replaced); old becomes detached.
func (t *Tree) Replace(old, repl NodeID) error {
	if !t.valid(old) || !t.valid(repl) {
		return fmt.Errorf("%w: replace %d with %d", ErrInvalidNode, old, repl)
	}

	parent := t.nodes[old].parent
	if parent == NoNode || t.nodes[old].removed {
		return fmt.Errorf("%w: %d", ErrDetached, old)
	}

	if t.nodes[repl].parent != NoNode || repl == t.root {
		return fmt.Errorf("%w: %d", ErrNotDetached, repl)
	}

	t.swapChild(parent, old, repl)

	t.nodes[repl].parent = parent
	t.nodes[repl].field = t.nodes[old].field
	t.nodes[repl].start = t.nodes[old].start
	t.nodes[repl].end = t.nodes[old].end
	t.nodes[old].parent = NoNode

	return nil
}

// WrapCall replaces id with a synthetic call expression `callee(<id>)` and
// returns the new call node. id becomes the call's sole argument.
func (t *Tree) WrapCall(id NodeID, callee string) (NodeID, error) {
	wrapped, err := t.wrap(id, KindCall, callee+"(", ")", FieldArguments)
	if err != nil {
		return NoNode, err
	}

	t.nodes[wrapped].callee = callee

	return wrapped, nil
}

// WrapText replaces id with a synthetic node of the given kind that prints
// as prefix, the text of id, then suffix. id is re-parented under the new
// node with field.
func (t *Tree) WrapText(id NodeID, kind Kind, prefix, suffix, field string) (NodeID, error) {
	return t.wrap(id, kind, prefix, suffix, field)
}

func (t *Tree) wrap(id NodeID, kind Kind, prefix, suffix, field string) (NodeID, error) {
	if !t.valid(id) {
		return NoNode, fmt.Errorf("%w: wrap %d", ErrInvalidNode, id)
	}

	parent := t.nodes[id].parent
	if parent == NoNode || t.nodes[id].removed {
		return NoNode, fmt.Errorf("%w: %d", ErrDetached, id)
	}

	wrapper := t.add(node{
		kind:      kind,
		field:     t.nodes[id].field,
		parent:    parent,
		children:  []NodeID{id},
		parts:     []part{{text: prefix, child: NoNode}, {child: id}, {text: suffix, child: NoNode}},
		start:     t.nodes[id].start,
		end:       t.nodes[id].end,
		synthetic: true,
	})

	t.swapChild(parent, id, wrapper)

	t.nodes[id].parent = wrapper
	t.nodes[id].field = field

	return wrapper, nil
}

// Splice replaces id with a synthetic node of the given kind that prints
// prefix, keep, then suffix. keep must be a descendant of id; it moves under
// the new node with the value field and everything else in id is dropped.
func (t *Tree) Splice(id, keep NodeID, kind Kind, prefix, suffix string) (NodeID, error) {
	if !t.valid(id) || !t.valid(keep) {
		return NoNode, fmt.Errorf("%w: splice %d keeping %d", ErrInvalidNode, id, keep)
	}

	if !t.descends(keep, id) {
		return NoNode, fmt.Errorf("%w: %d is not inside %d", ErrInvalidNode, keep, id)
	}

	spliced := t.add(node{
		kind:      kind,
		parent:    NoNode,
		children:  []NodeID{keep},
		parts:     []part{{text: prefix, child: NoNode}, {child: keep}, {text: suffix, child: NoNode}},
		synthetic: true,
	})

	err := t.Replace(id, spliced)
	if err != nil {
		return NoNode, err
	}

	t.nodes[keep].parent = spliced
	t.nodes[keep].field = FieldValue

	return spliced, nil
}

func (t *Tree) descends(id, ancestor NodeID) bool {
	for cur := t.nodes[id].parent; t.valid(cur); cur = t.nodes[cur].parent {
		if cur == ancestor {
			return true
		}
	}

	return false
}

// ReplaceText swaps id for a synthetic leaf of the same kind printing text.
func (t *Tree) ReplaceText(id NodeID, text string) (NodeID, error) {
	if !t.valid(id) {
		return NoNode, fmt.Errorf("%w: replace text of %d", ErrInvalidNode, id)
	}

	leaf := t.add(node{
		kind:      t.nodes[id].kind,
		typ:       t.nodes[id].typ,
		parent:    NoNode,
		parts:     []part{{text: text, child: NoNode}},
		synthetic: true,
	})

	err := t.Replace(id, leaf)
	if err != nil {
		return NoNode, err
	}

	return leaf, nil
}

// Remove detaches id from the output. The node keeps its slot so that list
// separators around it can be dropped when the tree is printed.
func (t *Tree) Remove(id NodeID) error {
	if !t.valid(id) {
		return fmt.Errorf("%w: remove %d", ErrInvalidNode, id)
	}

	if id == t.root || t.nodes[id].parent == NoNode {
		return fmt.Errorf("%w: %d", ErrDetached, id)
	}

	t.nodes[id].removed = true

	return nil
}

// Insert adds a synthetic node of the given kind printing text as the
// index-th child of parent. Inserted statements are followed by a newline
// when printed.
func (t *Tree) Insert(parent NodeID, index int, kind Kind, text string) (NodeID, error) {
	if !t.valid(parent) || t.nodes[parent].synthetic {
		return NoNode, fmt.Errorf("%w: insert into %d", ErrInvalidNode, parent)
	}

	children := t.nodes[parent].children
	index = max(0, min(index, len(children)))

	at := t.nodes[parent].start
	if index < len(children) {
		at = t.nodes[children[index]].start
	} else if len(children) > 0 {
		at = t.nodes[children[len(children)-1]].end
	}

	inserted := t.add(node{
		kind:      kind,
		parent:    parent,
		parts:     []part{{text: text, child: NoNode}},
		start:     at,
		end:       at,
		synthetic: true,
		inserted:  true,
	})

	grown := make([]NodeID, 0, len(children)+1)
	grown = append(grown, children[:index]...)
	grown = append(grown, inserted)
	grown = append(grown, children[index:]...)
	t.nodes[parent].children = grown

	return inserted, nil
}

func (t *Tree) swapChild(parent, old, repl NodeID) {
	pn := &t.nodes[parent]

	for idx, child := range pn.children {
		if child == old {
			pn.children[idx] = repl
		}
	}

	for idx := range pn.parts {
		if pn.parts[idx].child == old {
			pn.parts[idx].child = repl
		}
	}
}
