package commands

import (
	"io"
	"strings"
)

// RenderTable renders rows under headers in fixed-width columns. In quiet
// mode the header is omitted and cells are tab-separated for piping.
func RenderTable(w io.Writer, headers []string, rows [][]string, quiet bool) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		if quiet {
			Writef(w, "%s\n", strings.Join(cells, "\t"))
			return
		}
		var b strings.Builder
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < len(cells)-1 && i < len(widths) {
				b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
			}
		}
		Writef(w, "%s\n", b.String())
	}

	if !quiet {
		writeRow(headers)
	}
	for _, row := range rows {
		writeRow(row)
	}
}
