package syntax

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fortio.org/safecast"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for parsing.
var (
	// ErrParse marks source text that is not syntactically valid.
	ErrParse = errors.New("syntax: parse failure")

	errNoRootNode = errors.New("no root node")
	errPoolType   = errors.New("parser pool returned unexpected type")
)

// flattenTypes are grammar wrappers whose named children are lifted into the
// parent. The source text they own survives in the gaps between siblings.
var flattenTypes = map[string]bool{
	"arguments":                true,
	"parenthesized_expression": true,
}

// recordedFields lists, per grammar type, the fields whose children the
// pipeline addresses by name.
var recordedFields = map[string][]string{
	"pair":                {FieldKey, FieldValue},
	"export_statement":    {FieldValue, "declaration", FieldSource},
	"call_expression":     {FieldFunction},
	"import_statement":    {FieldSource},
	"import_specifier":    {FieldName, FieldAlias},
	"variable_declarator": {FieldName, FieldValue},

	"function_declaration":           {FieldName},
	"generator_function_declaration": {FieldName},
	"class_declaration":              {FieldName},
}

// Parser turns source text into a [Tree]. It is safe for concurrent use:
// each grammar keeps a pool of tree-sitter parsers.
type Parser struct {
	mu    sync.Mutex
	pools map[Language]*sync.Pool
}

// NewParser creates a parser for the JavaScript family of grammars.
func NewParser() *Parser {
	return &Parser{pools: make(map[Language]*sync.Pool, len(languageFuncs))}
}

func (p *Parser) pool(lang Language) (*sync.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pool, ok := p.pools[lang]; ok {
		return pool, nil
	}

	tsLang, err := sitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	pool := &sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(tsLang)

			return tsParser
		},
	}
	p.pools[lang] = pool

	return pool, nil
}

// Parse parses content, picking the grammar from filename. Syntax errors are
// reported as [ErrParse].
func (p *Parser) Parse(ctx context.Context, filename string, content []byte) (*Tree, error) {
	lang, err := DetectLanguage(filename, content)
	if err != nil {
		return nil, err
	}

	return p.ParseLanguage(ctx, lang, content)
}

// ParseLanguage parses content with an explicit grammar.
func (p *Parser) ParseLanguage(ctx context.Context, lang Language, content []byte) (*Tree, error) {
	pool, err := p.pool(lang)
	if err != nil {
		return nil, err
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	tsTree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root.IsNull() {
		return nil, fmt.Errorf("%w: %w", ErrParse, errNoRootNode)
	}

	if root.HasError() {
		return nil, fmt.Errorf("%w: %s", ErrParse, describeError(root))
	}

	b := &builder{tree: &Tree{src: string(content), lang: lang}}

	b.tree.root = b.build(root, NoNode, "")
	if b.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, b.err)
	}

	return b.tree, nil
}

// describeError locates the first error or missing node in pre-order.
func describeError(root sitter.Node) string {
	stack := []sitter.Node{root}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.Type() == "ERROR" || cur.IsMissing() {
			pt := cur.StartPoint()

			if cur.IsMissing() {
				return fmt.Sprintf("missing %q at line %d, column %d", cur.Type(), pt.Row+1, pt.Column+1)
			}

			return fmt.Sprintf("unexpected input at line %d, column %d", pt.Row+1, pt.Column+1)
		}

		for idx := cur.ChildCount(); idx > 0; idx-- {
			stack = append(stack, cur.Child(idx-1))
		}
	}

	return "syntax error"
}

type builder struct {
	tree *Tree
	err  error
}

func (b *builder) offset(v uint) int {
	off, err := safecast.Conv[int](v)
	if err != nil && b.err == nil {
		b.err = err
	}

	return off
}

func (b *builder) build(tsNode sitter.Node, parent NodeID, field string) NodeID {
	id := b.tree.add(node{
		kind:   classify(tsNode),
		typ:    tsNode.Type(),
		field:  field,
		parent: parent,
		start:  b.offset(tsNode.StartByte()),
		end:    b.offset(tsNode.EndByte()),
	})

	b.appendChildren(id, tsNode, "")

	return id
}

// appendChildren adds the named children of tsNode to id. Children of
// flattened wrappers are added directly, inheriting liftedField.
func (b *builder) appendChildren(id NodeID, tsNode sitter.Node, liftedField string) {
	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)
		if child.IsNull() {
			continue
		}

		field := liftedField
		if field == "" {
			field = fieldOf(tsNode, child)
		}

		if flattenTypes[child.Type()] {
			lifted := field
			if child.Type() == "arguments" {
				lifted = FieldArguments
			}

			b.appendChildren(id, child, lifted)

			continue
		}

		if child.Type() == "comment" {
			field = ""
		}

		childID := b.build(child, id, field)
		b.tree.nodes[id].children = append(b.tree.nodes[id].children, childID)
	}
}

func fieldOf(parent, child sitter.Node) string {
	for _, name := range recordedFields[parent.Type()] {
		fieldNode := parent.ChildByFieldName(name)
		if fieldNode.IsNull() {
			continue
		}

		if fieldNode.StartByte() == child.StartByte() &&
			fieldNode.EndByte() == child.EndByte() &&
			fieldNode.Type() == child.Type() {
			return name
		}
	}

	return ""
}

func classify(tsNode sitter.Node) Kind {
	switch tsNode.Type() {
	case "program":
		return KindProgram
	case "object":
		return KindObject
	case "pair":
		return KindProperty
	case "array":
		return KindArray
	case "import_statement":
		return KindImport
	case "export_statement":
		if hasDefaultKeyword(tsNode) {
			return KindExportDefault
		}

		return KindExportNamed
	case "identifier", "property_identifier", "shorthand_property_identifier":
		return KindIdentifier
	case "string":
		return KindString
	case "call_expression":
		return KindCall
	default:
		return KindOther
	}
}

func hasDefaultKeyword(tsNode sitter.Node) bool {
	for idx := range tsNode.ChildCount() {
		child := tsNode.Child(idx)
		if !child.IsNamed() && child.Type() == "default" {
			return true
		}
	}

	return false
}
