package syntax

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"
)

// Language names a tree-sitter grammar of the JavaScript family.
type Language string

// Supported grammars.
const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

// ErrUnsupportedLanguage is returned when a file cannot be mapped to a grammar.
var ErrUnsupportedLanguage = errors.New("syntax: unsupported language")

// languageFuncs maps grammars to their tree-sitter GetLanguage functions.
var languageFuncs = map[Language]func() unsafe.Pointer{
	LangJavaScript: javascript.GetLanguage,
	LangTypeScript: typescript.GetLanguage,
	LangTSX:        tsx.GetLanguage,
}

var extensionLanguages = map[string]Language{
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
}

// enryLanguages maps linguist language names to grammars.
var enryLanguages = map[string]Language{
	"JavaScript": LangJavaScript,
	"JSX":        LangJavaScript,
	"TypeScript": LangTypeScript,
	"TSX":        LangTSX,
}

// DetectLanguage picks the grammar for filename. Known extensions win;
// anything else falls back to content-based detection.
func DetectLanguage(filename string, content []byte) (Language, error) {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(filename))]; ok {
		return lang, nil
	}

	if lang, ok := enryLanguages[enry.GetLanguage(filepath.Base(filename), content)]; ok {
		return lang, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filename)
}

func sitterLanguage(lang Language) (*sitter.Language, error) {
	fn, ok := languageFuncs[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	return sitter.NewLanguage(fn()), nil
}
