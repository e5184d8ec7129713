package dataset

import (
	"fmt"
	"strings"
)

// Row maps column names to values. Absent keys read as Missing.
type Row map[string]Value

// Get returns the value for column, matching case-insensitively when there
// is no exact key.
func (r Row) Get(column string) Value {
	if v, ok := r[column]; ok {
		return v
	}
	for key, v := range r {
		if strings.EqualFold(key, column) {
			return v
		}
	}
	return Missing()
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered table: declared columns plus rows.
type Dataset struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New creates an empty dataset with the given column order.
func New(name string, columns []string) *Dataset {
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, strings.TrimSpace(c))
	}
	return &Dataset{Name: name, Columns: cols}
}

// Append adds a row. Every key must be a declared column.
func (d *Dataset) Append(row Row) error {
	for key := range row {
		if !d.hasColumn(key) {
			return fmt.Errorf("row %d: column %q is not declared", len(d.Rows)+1, key)
		}
	}
	d.Rows = append(d.Rows, row)
	return nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Column resolves name against the declared columns, case-insensitively.
func (d *Dataset) Column(name string) (string, bool) {
	return ResolveColumn(d.Columns, name)
}

func (d *Dataset) hasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ResolveColumn finds name in columns, preferring an exact match.
func ResolveColumn(columns []string, name string) (string, bool) {
	for _, c := range columns {
		if c == name {
			return c, true
		}
	}
	for _, c := range columns {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// Distinct returns the distinct non-missing texts of column in first-seen order.
func (d *Dataset) Distinct(column string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range d.Rows {
		v := row.Get(column)
		if v.IsMissing() {
			continue
		}
		text := v.Text()
		if seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
	}
	return out
}
