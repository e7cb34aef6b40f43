package schema

import (
	"strings"

	"github.com/Sumatoshi-tech/schemaconv/pkg/syntax"
)

var simpleEscapes = map[byte]byte{
	'n': '\n',
	't': '\t',
	'r': '\r',
	'b': '\b',
	'f': '\f',
	'v': '\v',
	'0': 0,
}

// StringValue returns the decoded value of a string literal node.
func StringValue(tree *syntax.Tree, id syntax.NodeID) (string, bool) {
	if tree.Kind(id) != syntax.KindString {
		return "", false
	}

	return unquote(tree.Text(id))
}

func unquote(text string) (string, bool) {
	if len(text) < 2 || text[0] != text[len(text)-1] || (text[0] != '"' && text[0] != '\'') {
		return "", false
	}

	body := text[1 : len(text)-1]
	if !strings.Contains(body, `\`) {
		return body, true
	}

	var buf strings.Builder

	for idx := 0; idx < len(body); idx++ {
		ch := body[idx]
		if ch != '\\' || idx == len(body)-1 {
			buf.WriteByte(ch)

			continue
		}

		idx++

		next := body[idx]
		if mapped, ok := simpleEscapes[next]; ok {
			buf.WriteByte(mapped)

			continue
		}

		// Line continuation.
		if next == '\n' {
			continue
		}

		// \x and \u sequences are kept verbatim.
		if next == 'x' || next == 'u' {
			buf.WriteByte('\\')
		}

		buf.WriteByte(next)
	}

	return buf.String(), true
}

// Quote renders value as a string literal using the given quote character.
func Quote(value string, quote byte) string {
	if quote != '\'' {
		quote = '"'
	}

	var buf strings.Builder

	buf.Grow(len(value) + 2)
	buf.WriteByte(quote)

	for idx := range len(value) {
		ch := value[idx]
		if ch == quote || ch == '\\' {
			buf.WriteByte('\\')
		}

		buf.WriteByte(ch)
	}

	buf.WriteByte(quote)

	return buf.String()
}

// QuoteOf returns the quote character used by a string literal node,
// defaulting to a double quote.
func QuoteOf(tree *syntax.Tree, id syntax.NodeID) byte {
	text := tree.Text(id)
	if text != "" && text[0] == '\'' {
		return '\''
	}

	return '"'
}

// KeyName returns the static name of a property entry's key: identifiers
// and string or number literals. Computed keys yield "".
func KeyName(tree *syntax.Tree, prop syntax.NodeID) string {
	key := tree.Child(prop, syntax.FieldKey)

	switch tree.Kind(key) {
	case syntax.KindIdentifier:
		return tree.Text(key)
	case syntax.KindString:
		value, _ := StringValue(tree, key)

		return value
	default:
		if tree.Type(key) == "number" {
			return tree.Text(key)
		}

		return ""
	}
}

// Property returns the direct property entry of obj named key. When the key
// repeats, the last entry wins, as it does when the literal is evaluated.
func Property(tree *syntax.Tree, obj syntax.NodeID, key string) syntax.NodeID {
	children := tree.Children(obj)

	for idx := len(children) - 1; idx >= 0; idx-- {
		if tree.Kind(children[idx]) == syntax.KindProperty && KeyName(tree, children[idx]) == key {
			return children[idx]
		}
	}

	return syntax.NoNode
}

// PropertyValue returns the value node of the direct property key of obj.
func PropertyValue(tree *syntax.Tree, obj syntax.NodeID, key string) syntax.NodeID {
	prop := Property(tree, obj, key)
	if prop == syntax.NoNode {
		return syntax.NoNode
	}

	return tree.Child(prop, syntax.FieldValue)
}

// StringProperty returns the decoded value of a direct string-literal
// property of obj.
func StringProperty(tree *syntax.Tree, obj syntax.NodeID, key string) (string, bool) {
	return StringValue(tree, PropertyValue(tree, obj, key))
}
