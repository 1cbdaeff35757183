package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table buffers rows and renders them in aligned columns. Widths are
// measured on visible text, so styled cells line up.
type Table struct {
	out     io.Writer
	palette *Palette
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers. A nil palette
// renders plain text.
func NewTable(out io.Writer, p *Palette, headers ...string) *Table {
	if p == nil {
		p = NewPalette(out, ColorNever)
	}
	return &Table{out: out, palette: p, headers: headers}
}

// Row appends a row of values. Missing trailing values render empty.
func (t *Table) Row(values ...any) {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprint(v)
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Flush writes the header and all rows.
func (t *Table) Flush() error {
	widths := make([]int, len(t.headers))
	measure := func(row []string) {
		for i, c := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	measure(t.headers)
	for _, r := range t.rows {
		measure(r)
	}

	var b strings.Builder
	line := func(row []string, style func(string) string) {
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(style(cell))
			if i < len(widths)-1 {
				b.WriteString(strings.Repeat(" ", w-lipgloss.Width(cell)+2))
			}
		}
		b.WriteString("\n")
	}
	line(t.headers, t.palette.Header)
	for _, r := range t.rows {
		line(r, func(s string) string { return s })
	}
	_, err := io.WriteString(t.out, b.String())
	return err
}
