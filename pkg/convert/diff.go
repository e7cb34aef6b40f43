package convert

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines kept around each change.
const diffContext = 3

// Diff renders a line diff from before to after. Unchanged runs longer than
// the context window collapse into a "@@" marker. Identical inputs give "".
func Diff(from, to string, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}

	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var out strings.Builder

	fmt.Fprintf(&out, "--- %s\n+++ %s\n", from, to)

	for idx, chunk := range diffs {
		chunkLines := splitLines(chunk.Text)

		switch chunk.Type {
		case diffmatchpatch.DiffDelete:
			writeLines(&out, "-", chunkLines)
		case diffmatchpatch.DiffInsert:
			writeLines(&out, "+", chunkLines)
		case diffmatchpatch.DiffEqual:
			writeContext(&out, chunkLines, idx == 0, idx == len(diffs)-1)
		}
	}

	return out.String()
}

func writeContext(out *strings.Builder, lines []string, first, last bool) {
	head, tail := diffContext, diffContext
	if first {
		head = 0
	}

	if last {
		tail = 0
	}

	if len(lines) <= head+tail {
		writeLines(out, " ", lines)

		return
	}

	writeLines(out, " ", lines[:head])
	out.WriteString("@@\n")
	writeLines(out, " ", lines[len(lines)-tail:])
}

func writeLines(out *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		out.WriteString(prefix)
		out.WriteString(line)
		out.WriteByte('\n')
	}
}

func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for idx, line := range lines {
		lines[idx] = strings.TrimSuffix(line, "\n")
	}

	return lines
}

// Colorize paints a [Diff] for a terminal. It honours color.NoColor.
func Colorize(diff string) string {
	var (
		added   = color.New(color.FgGreen)
		removed = color.New(color.FgRed)
		header  = color.New(color.FgCyan, color.Bold)
	)

	var out strings.Builder

	for _, line := range splitLines(diff) {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), line == "@@":
			out.WriteString(header.Sprint(line))
		case strings.HasPrefix(line, "+"):
			out.WriteString(added.Sprint(line))
		case strings.HasPrefix(line, "-"):
			out.WriteString(removed.Sprint(line))
		default:
			out.WriteString(line)
		}

		out.WriteByte('\n')
	}

	return out.String()
}
