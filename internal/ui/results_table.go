package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/realnamesareboring/KQLified/internal/dataset"
)

const (
	minCellWidth = 8
	maxCellWidth = 48
	cellPadding  = 2
)

// Highlighter reports whether a cell should stand out.
type Highlighter func(column string, v dataset.Value) bool

// attackRanges are the documentation address blocks scenario datasets use
// for attacker infrastructure.
var attackRanges = []string{"203.0.113.", "198.51.100.", "192.0.2."}

// highlightThresholds flag aggregate counts at or above a detection level.
var highlightThresholds = map[string]float64{
	"UniqueUsers":    5,
	"FailedAttempts": 10,
}

// SuspiciousValue highlights attacker addresses and high aggregate counts.
func SuspiciousValue(column string, v dataset.Value) bool {
	for name, threshold := range highlightThresholds {
		if strings.EqualFold(name, column) {
			n, ok := v.Number()
			return ok && n >= threshold
		}
	}
	if v.Kind() != dataset.KindString {
		return false
	}
	for _, prefix := range attackRanges {
		if strings.HasPrefix(v.Text(), prefix) {
			return true
		}
	}
	return false
}

// ResultsTable renders query result rows with a row-number column.
type ResultsTable struct {
	display   *DisplayContext
	columns   []string
	rows      []dataset.Row
	highlight Highlighter
}

// NewResultsTable creates a table for rows in column order.
func NewResultsTable(display *DisplayContext, columns []string, rows []dataset.Row) *ResultsTable {
	return &ResultsTable{
		display: display,
		columns: columns,
		rows:    rows,
	}
}

// WithHighlighter sets the rule for alert-styled cells.
func (t *ResultsTable) WithHighlighter(h Highlighter) *ResultsTable {
	t.highlight = h
	return t
}

// Render generates the table output. Rows beyond the display's MaxRows are
// summarized in a trailing line.
func (t *ResultsTable) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	shown := t.rows[:t.display.VisibleRows(len(t.rows))]

	limit := t.cellLimit()
	cells := make([][]string, len(shown))
	flagged := make([][]bool, len(shown))
	for i, row := range shown {
		cells[i] = make([]string, len(t.columns)+1)
		flagged[i] = make([]bool, len(t.columns)+1)
		cells[i][0] = FormatRowNum(i+1, len(shown))
		for j, col := range t.columns {
			v := row.Get(col)
			cells[i][j+1] = TruncateWithEllipsis(v.Text(), limit)
			if t.highlight != nil && !v.IsMissing() {
				flagged[i][j+1] = t.highlight(col, v)
			}
		}
	}

	headers := append([]string{"#"}, t.columns...)
	for i := range headers {
		headers[i] = TruncateWithEllipsis(headers[i], limit)
	}

	tbl := table.New().
		Border(lipgloss.Border{
			Top:    "─",
			Bottom: "─",
			Middle: "─",
		}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderRow(false).
		BorderColumn(false).
		BorderStyle(Muted).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle()
			if col < len(headers)-1 {
				style = style.PaddingRight(cellPadding)
			}
			switch {
			case row == table.HeaderRow:
				return style.Inherit(AccentBold)
			case col == 0:
				return style.Inherit(Muted).Align(lipgloss.Right)
			case row < len(flagged) && flagged[row][col]:
				return style.Inherit(Alert)
			}
			return style
		}).
		Rows(cells...)

	out := tbl.Render()
	if hidden := len(t.rows) - len(shown); hidden > 0 {
		out += "\n" + Muted.Render(fmt.Sprintf("… %d more %s not shown", hidden, pluralize("row", hidden)))
	}
	return out
}

// cellLimit spreads the terminal width across columns within fixed bounds.
func (t *ResultsTable) cellLimit() int {
	width := t.display.AvailableWidth(MarkdownRenderMargin)
	per := width/(len(t.columns)+1) - cellPadding
	if per < minCellWidth {
		return minCellWidth
	}
	if per > maxCellWidth {
		return maxCellWidth
	}
	return per
}

// TruncateWithEllipsis truncates s to maxLen runes, ending in "...".
func TruncateWithEllipsis(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatRowNum formats a row number with consistent width.
func FormatRowNum(num, maxNum int) string {
	width := len(fmt.Sprintf("%d", maxNum))
	if width < 2 {
		width = 2
	}
	return fmt.Sprintf("%*d", width, num)
}
