// Package sandbox copies a scenario dataset into an in-memory SQLite table so
// learners can explore it with plain SQL next to their KQL attempts.
package sandbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/realnamesareboring/KQLified/internal/dataset"
	"github.com/realnamesareboring/KQLified/internal/sqlutil"
)

// defaultTable names the table when the dataset has no usable name.
const defaultTable = "logs"

// ErrClosed is returned by operations on a closed sandbox.
var ErrClosed = errors.New("sandbox is closed")

// Sandbox is an in-memory SQLite copy of one dataset.
type Sandbox struct {
	db      *sql.DB
	table   string
	columns []string
}

// Open creates the database and loads ds into a table named after it.
// Columns whose values are all numeric get NUMERIC affinity, the rest TEXT.
func Open(ctx context.Context, ds *dataset.Dataset) (*Sandbox, error) {
	if ds == nil {
		return nil, errors.New("no dataset to load")
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open sandbox database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	s := &Sandbox{db: db, table: tableName(ds.Name), columns: ds.Columns}
	if err := s.load(ctx, ds); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database.
func (s *Sandbox) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Table returns the name of the loaded table.
func (s *Sandbox) Table() string {
	return s.table
}

func (s *Sandbox) load(ctx context.Context, ds *dataset.Dataset) error {
	if len(ds.Columns) == 0 {
		return fmt.Errorf("dataset %q has no columns", ds.Name)
	}

	defs := make([]string, len(ds.Columns))
	textual := make([]bool, len(ds.Columns))
	for i, col := range ds.Columns {
		aff := affinity(ds, col)
		textual[i] = aff == "TEXT"
		defs[i] = sqlutil.QuoteIdent(col) + " " + aff
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", sqlutil.QuoteIdent(s.table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table %q: %w", s.table, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin load: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ds.Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", sqlutil.QuoteIdent(s.table), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(ds.Columns))
	for n, row := range ds.Rows {
		for i, col := range ds.Columns {
			args[i] = sqlValue(row[col], textual[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", n+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}
	return nil
}

// Query runs a statement and returns its rows as a dataset named "result".
func (s *Sandbox) Query(ctx context.Context, statement string, args ...any) (*dataset.Dataset, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("query failed: %w", err)
	}

	records, err := sqlutil.ScanRows(rows, func(r *sql.Rows) ([]any, error) {
		return sqlutil.ScanAny(r, len(columns))
	})
	if err != nil {
		return nil, fmt.Errorf("scan result: %w", err)
	}

	out := dataset.New("result", columns)
	for _, record := range records {
		row := make(dataset.Row, len(columns))
		for i, raw := range record {
			if v := dataset.FromAny(raw); !v.IsMissing() {
				row[out.Columns[i]] = v
			}
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func tableName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultTable
	}
	return name
}

func affinity(ds *dataset.Dataset, col string) string {
	seen := false
	for _, row := range ds.Rows {
		v := row[col]
		if v.IsMissing() {
			continue
		}
		if _, ok := v.Number(); !ok {
			return "TEXT"
		}
		seen = true
	}
	if !seen {
		return "TEXT"
	}
	return "NUMERIC"
}

// sqlValue converts v for insertion. TEXT columns receive the display text so
// a mixed column stores 0 as "0", not "0.0". Whole numbers bind as integers.
func sqlValue(v dataset.Value, text bool) any {
	switch {
	case v.IsMissing():
		return nil
	case text:
		return v.Text()
	}
	f, ok := v.Number()
	if !ok {
		return v.Text()
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}
