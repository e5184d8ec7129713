package ui

import (
	"os"

	"github.com/charmbracelet/x/term"
)

// DefaultTermWidth is used when stdout is not a terminal or its size is unknown.
const DefaultTermWidth = 120

// DisplayContext describes where query results are rendered.
type DisplayContext struct {
	TermWidth int
	IsTTY     bool
	// MaxRows caps rendered result rows. Zero renders every row.
	MaxRows int
}

// NewDisplayContext sizes result output for stdout.
func NewDisplayContext(maxRows int) *DisplayContext {
	return displayFor(os.Stdout, maxRows)
}

// NewDisplayContextWithWidth pins the width, for tests and piped output.
func NewDisplayContextWithWidth(width, maxRows int) *DisplayContext {
	return &DisplayContext{TermWidth: width, IsTTY: true, MaxRows: maxRows}
}

func displayFor(f *os.File, maxRows int) *DisplayContext {
	d := &DisplayContext{TermWidth: DefaultTermWidth, MaxRows: maxRows}
	fd := f.Fd()
	if !term.IsTerminal(fd) {
		return d
	}
	d.IsTTY = true
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		d.TermWidth = w
	}
	return d
}

// AvailableWidth is the terminal width left after a left margin.
func (d *DisplayContext) AvailableWidth(leftMargin int) int {
	return d.TermWidth - leftMargin
}

// VisibleRows reports how many of total result rows fit under MaxRows.
func (d *DisplayContext) VisibleRows(total int) int {
	if d.MaxRows > 0 && total > d.MaxRows {
		return d.MaxRows
	}
	return total
}
