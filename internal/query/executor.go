package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/realnamesareboring/KQLified/internal/dataset"
)

// errNoData is the error text for a missing dataset.
const errNoData = "No data available"

// Result is the outcome of running a query.
type Result struct {
	Success     bool          `json:"success"`
	Columns     []string      `json:"columns,omitempty"`
	Data        []dataset.Row `json:"data"`
	Error       string        `json:"error,omitempty"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
	Stages      []StageStat   `json:"stages,omitempty"`

	// Err carries the underlying error for errors.Is checks.
	Err error `json:"-"`
}

// StageStat records how one clause changed the row count.
type StageStat struct {
	Clause  string `json:"clause"`
	RowsIn  int    `json:"rows_in"`
	RowsOut int    `json:"rows_out"`
	Applied bool   `json:"applied"`
}

type options struct {
	logger  *slog.Logger
	strict  bool
	columns ColumnMap
}

// Option configures Execute.
type Option func(*options)

// WithLogger sets the logger for stage and diagnostic events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrict makes any diagnostic fail the query instead of warning.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithColumns overrides the source columns used by summarize.
func WithColumns(cols ColumnMap) Option {
	return func(o *options) {
		o.columns = cols.WithDefaults()
	}
}

// Execute parses raw and runs its clauses, in the order written, over ds.
// The dataset is not modified. Faults inside a stage are recovered and
// reported as a failed Result.
func Execute(ctx context.Context, raw string, ds *dataset.Dataset, opts ...Option) (result Result) {
	o := options{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		columns: DefaultColumnMap(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("query execution panicked", "panic", r)
			err := fmt.Errorf("query execution failed: %v", r)
			result = Result{Success: false, Error: err.Error(), Err: err}
		}
	}()

	if ds == nil {
		return Result{Success: false, Error: errNoData, Err: errors.New(errNoData)}
	}

	return run(ctx, Parse(raw), ds, o)
}

func run(ctx context.Context, q *Query, ds *dataset.Dataset, o options) Result {
	diags := &diagnostics{}
	for _, d := range q.Diagnostics {
		diags.add(d)
	}

	rows := make([]dataset.Row, len(ds.Rows))
	copy(rows, ds.Rows)
	sc := scope{columns: ds.Columns}
	stages := make([]StageStat, 0, len(q.Clauses))

	for _, clause := range q.Clauses {
		if err := ctx.Err(); err != nil {
			return Result{Success: false, Error: err.Error(), Err: err, Diagnostics: diags.list(), Stages: stages}
		}

		before := len(rows)
		applied := true
		switch c := clause.(type) {
		case *WhereClause:
			rows = applyWhere(rows, c, sc, diags)
		case *SummarizeClause:
			rows, sc, applied = applySummarize(rows, c, sc, o.columns, diags)
		case *OrderClause:
			rows = applyOrder(rows, c, sc, diags)
		case *TakeClause:
			rows = applyTake(rows, c.N)
		default:
			applied = false
		}

		stages = append(stages, StageStat{Clause: clause.Keyword(), RowsIn: before, RowsOut: len(rows), Applied: applied})
		o.logger.Debug("query stage", "clause", clause.Keyword(), "rows_in", before, "rows_out", len(rows), "applied", applied)
	}

	found := diags.list()
	for _, d := range found {
		o.logger.Warn("query diagnostic", "code", d.Code, "clause", d.Clause, "message", d.Message)
	}

	if o.strict && len(found) > 0 {
		err := fmt.Errorf("%w: %s", ErrStrict, found[0].Error())
		return Result{Success: false, Error: err.Error(), Err: err, Diagnostics: found, Stages: stages}
	}

	return Result{
		Success:     true,
		Columns:     sc.columns,
		Data:        rows,
		Diagnostics: found,
		Stages:      stages,
	}
}
