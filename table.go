package main

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// renderTable writes rows as space-padded columns aligned by display width
func renderTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if width := runewidth.StringWidth(row[i]); width > widths[i] {
				widths[i] = width
			}
		}
	}

	writeRow := func(cells []string) {
		var sb strings.Builder
		for i := range widths {
			content := ""
			if i < len(cells) {
				content = cells[i]
			}
			sb.WriteString(content)
			if i < len(widths)-1 {
				// Pad with spaces based on display width
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(content)+2))
			}
		}
		io.WriteString(w, strings.TrimRight(sb.String(), " ")+"\n")
	}

	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
}
