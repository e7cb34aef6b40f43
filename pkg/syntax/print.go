package syntax

import "strings"

// listTypes are delimited, comma-separated containers. Removing an element
// from one of them also removes its separator.
var listTypes = map[string]bool{
	"array":          true,
	"object":         true,
	"named_imports":  true,
	"object_pattern": true,
	"array_pattern":  true,
	"export_clause":  true,
}

// String serializes the tree, including the source around the program node.
func (t *Tree) String() string {
	var buf strings.Builder

	root := &t.nodes[t.root]

	buf.Grow(len(t.src) + len(t.src)/4)
	buf.WriteString(t.src[:root.start])
	t.write(&buf, t.root)
	buf.WriteString(t.src[root.end:])

	return buf.String()
}

// Text serializes the subtree rooted at id, including pending edits.
func (t *Tree) Text(id NodeID) string {
	if !t.valid(id) {
		return ""
	}

	nd := &t.nodes[id]
	if !nd.synthetic && len(nd.children) == 0 {
		return t.src[nd.start:nd.end]
	}

	var buf strings.Builder

	t.write(&buf, id)

	return buf.String()
}

func (t *Tree) write(buf *strings.Builder, id NodeID) {
	nd := &t.nodes[id]

	if nd.synthetic {
		for _, pt := range nd.parts {
			if pt.child != NoNode {
				t.write(buf, pt.child)
			} else {
				buf.WriteString(pt.text)
			}
		}

		return
	}

	if listTypes[nd.typ] && t.hasRemoved(id) {
		t.writeList(buf, id)

		return
	}

	cursor := nd.start

	for _, child := range nd.children {
		cn := &t.nodes[child]

		if cn.inserted {
			if !cn.removed {
				buf.WriteString(t.src[cursor:cn.start])
				cursor = cn.start

				t.write(buf, child)
				buf.WriteString(t.insertSeparator(id))
			}

			continue
		}

		buf.WriteString(t.src[cursor:cn.start])

		if !cn.removed {
			t.write(buf, child)
		}

		cursor = cn.end
	}

	buf.WriteString(t.src[cursor:nd.end])
}

// writeList prints a delimited list that lost at least one element. The gap
// that followed each surviving element is kept as its separator, and the
// tail after the last original element closes the list.
func (t *Tree) writeList(buf *strings.Builder, id NodeID) {
	nd := &t.nodes[id]

	var originals, live []NodeID

	for _, child := range nd.children {
		if !t.nodes[child].inserted {
			originals = append(originals, child)
		}

		if !t.nodes[child].removed {
			live = append(live, child)
		}
	}

	if len(live) == 0 || len(originals) == 0 {
		buf.WriteString(t.src[nd.start : nd.start+1])

		for idx, child := range live {
			if idx > 0 {
				buf.WriteString(t.separator(live[idx-1]))
			}

			t.write(buf, child)
		}

		closing := t.src[nd.end-1 : nd.end]
		if len(live) > 0 {
			t.breakLine(buf, live[len(live)-1], closing)
		}

		buf.WriteString(closing)

		return
	}

	next := make(map[NodeID]NodeID, len(originals))
	for idx := range len(originals) - 1 {
		next[originals[idx]] = originals[idx+1]
	}

	buf.WriteString(t.src[nd.start:t.nodes[originals[0]].start])

	for idx, child := range live {
		t.write(buf, child)

		if idx == len(live)-1 {
			tail := t.src[t.nodes[originals[len(originals)-1]].end:nd.end]

			t.breakLine(buf, child, tail)
			buf.WriteString(tail)

			break
		}

		following, ok := next[child]
		if t.nodes[child].inserted || !ok {
			buf.WriteString(t.separator(child))

			continue
		}

		buf.WriteString(t.src[t.nodes[child].end:t.nodes[following].start])
	}
}

// lineComment reports whether id is a `//` comment. It runs to the end of
// its line, so nothing may follow it there.
func (t *Tree) lineComment(id NodeID) bool {
	nd := &t.nodes[id]

	return nd.typ == "comment" && !nd.synthetic && strings.HasPrefix(t.src[nd.start:nd.end], "//")
}

// breakLine ends the line after a line comment when text would otherwise
// continue it.
func (t *Tree) breakLine(buf *strings.Builder, prev NodeID, text string) {
	if !t.lineComment(prev) {
		return
	}

	line, _, _ := strings.Cut(text, "\n")
	if strings.TrimSpace(line) != "" {
		buf.WriteString("\n")
	}
}

// separator goes between prev and a list element that has no original gap.
func (t *Tree) separator(prev NodeID) string {
	if t.lineComment(prev) {
		return "\n"
	}

	return ", "
}

func (t *Tree) hasRemoved(id NodeID) bool {
	for _, child := range t.nodes[id].children {
		if t.nodes[child].removed {
			return true
		}
	}

	return false
}

func (t *Tree) insertSeparator(parent NodeID) string {
	if listTypes[t.nodes[parent].typ] {
		return ", "
	}

	return "\n"
}
