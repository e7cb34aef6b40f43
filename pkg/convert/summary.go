package convert

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderSummary writes a per-file table followed by the batch totals.
func RenderSummary(w io.Writer, summary *Summary) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"File", "Status", "Schema", "Wrapped", "Pruned", "Fieldsets", "Imports", "Size"})

	for idx := range summary.Files {
		file := &summary.Files[idx]

		tbl.AppendRow(table.Row{
			file.Output,
			statusCell(file),
			file.Schema,
			file.Stats.FieldsWrapped,
			file.Stats.FieldsPruned,
			file.Stats.FieldsetsPruned,
			file.Stats.ImportsRewritten,
			sizeCell(int64(file.BytesIn), int64(file.BytesOut)),
		})
	}

	totals := summary.Totals

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d files", totals.Files),
		fmt.Sprintf("%d converted, %d failed", totals.Converted, totals.Failed),
		"",
		totals.Stats.FieldsWrapped,
		totals.Stats.FieldsPruned,
		totals.Stats.FieldsetsPruned,
		totals.Stats.ImportsRewritten,
		sizeCell(totals.BytesIn, totals.BytesOut),
	})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	return nil
}

func statusCell(file *FileResult) string {
	status := string(file.Status)
	if file.Cached {
		status += " (cached)"
	}

	return status
}

func sizeCell(in, out int64) string {
	if in == 0 && out == 0 {
		return "-"
	}

	return fmt.Sprintf("%s → %s (%+d)",
		humanize.Bytes(uint64(max(in, 0))), humanize.Bytes(uint64(max(out, 0))), out-in)
}
