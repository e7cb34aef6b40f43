package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Sentinel errors.
var (
	ErrInputNotDir = errors.New("input is not a directory")
	ErrBadPattern  = errors.New("invalid glob pattern")
)

// outputExtensions maps source extensions to their typed counterparts.
var outputExtensions = map[string]string{
	".js":  ".ts",
	".jsx": ".tsx",
	".mjs": ".mts",
	".cjs": ".cts",
}

// Discover lists the files under input matching any include glob and no
// ignore glob. Paths are slash-separated, relative to input and sorted.
func Discover(input string, include, ignore []string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputNotDir, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotDir, input)
	}

	include = normalizePatterns(include)
	ignore = normalizePatterns(ignore)

	for _, pattern := range slices.Concat(include, ignore) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
		}
	}

	fsys := os.DirFS(input)
	seen := make(map[string]struct{})

	for _, pattern := range include {
		walkErr := doublestar.GlobWalk(fsys, pattern, func(match string, _ fs.DirEntry) error {
			if !matchesAny(ignore, match) {
				seen[match] = struct{}{}
			}

			return nil
		}, doublestar.WithFilesOnly())
		if walkErr != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, walkErr)
		}
	}

	files := make([]string, 0, len(seen))
	for match := range seen {
		files = append(files, match)
	}

	slices.Sort(files)

	return files, nil
}

// OutputName renames the extension of a JavaScript module to its typed
// counterpart. Other names are returned unchanged.
func OutputName(name string) string {
	ext := path.Ext(name)

	renamed, ok := outputExtensions[strings.ToLower(ext)]
	if !ok {
		return name
	}

	return strings.TrimSuffix(name, ext) + renamed
}

func normalizePatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		out = append(out, strings.TrimPrefix(strings.ReplaceAll(pattern, `\`, "/"), "./"))
	}

	return out
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}

	return false
}
