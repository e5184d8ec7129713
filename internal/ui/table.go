package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const tableGap = "  "

// Table lays out borderless listings such as the scenario catalog and the
// stage breakdown. Widths are measured with lipgloss so styled cells align.
type Table struct {
	widths []int
	align  []lipgloss.Position
	rows   [][]string
}

// NewTable creates a table with a fixed number of left-aligned columns.
func NewTable(cols int) *Table {
	t := &Table{widths: make([]int, cols), align: make([]lipgloss.Position, cols)}
	for i := range t.align {
		t.align[i] = lipgloss.Left
	}
	return t
}

// AlignRight right-aligns column col, for counts and points.
func (t *Table) AlignRight(col int) *Table {
	if col >= 0 && col < len(t.align) {
		t.align[col] = lipgloss.Right
	}
	return t
}

// AddRow appends a row. Extra cells are dropped and missing ones left blank.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.widths))
	copy(row, cells)
	for i, cell := range row {
		t.widths[i] = max(t.widths[i], lipgloss.Width(cell))
	}
	t.rows = append(t.rows, row)
}

func (t *Table) String() string {
	var sb strings.Builder
	for _, row := range t.rows {
		line := make([]string, len(row))
		for i, cell := range row {
			line[i] = lipgloss.PlaceHorizontal(t.widths[i], t.align[i], cell)
		}
		sb.WriteString(strings.TrimRight(strings.Join(line, tableGap), " "))
		sb.WriteString("\n")
	}
	return sb.String()
}
