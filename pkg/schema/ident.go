package schema

import (
	"strings"
	"unicode"
)

const fallbackIdentifier = "schema"

// reservedWords cannot be used as binding names in module code.
var reservedWords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"implements": true, "import": true, "in": true, "instanceof": true, "interface": true,
	"let": true, "new": true, "null": true, "package": true, "private": true,
	"protected": true, "public": true, "return": true, "static": true, "super": true,
	"switch": true, "this": true, "throw": true, "true": true, "try": true,
	"typeof": true, "var": true, "void": true, "while": true, "with": true,
	"yield": true, "arguments": true, "eval": true,
}

// Identifier normalises a schema name into a binding name. Runs of
// characters that cannot appear in an identifier start a new camel-case
// word ("blog-post" becomes "blogPost"), a leading digit gets an underscore
// prefix and reserved words get a "Type" suffix.
func Identifier(name string) string {
	var buf strings.Builder

	upperNext := false

	for _, r := range name {
		if !isIdentPart(r) {
			upperNext = buf.Len() > 0

			continue
		}

		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}

		buf.WriteRune(r)
	}

	ident := buf.String()

	switch {
	case ident == "":
		return fallbackIdentifier
	case unicode.IsDigit([]rune(ident)[0]):
		ident = "_" + ident
	case reservedWords[ident]:
		ident += "Type"
	}

	return ident
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
