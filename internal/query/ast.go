// Package query implements the query language: parsing pipe-separated
// clauses and running them over an in-memory dataset.
package query

import (
	"strings"
	"time"

	"github.com/realnamesareboring/KQLified/internal/dataset"
)

// Query is a parsed query: an optional source table followed by clauses in
// the order they were written.
type Query struct {
	Table       string
	Clauses     []Clause
	Diagnostics []Diagnostic
}

// Clause is one pipe-separated stage.
type Clause interface {
	clauseNode()
	// Keyword returns the operator that introduced the clause.
	Keyword() string
}

// WhereClause filters rows.
type WhereClause struct {
	Expr Expr
	Text string
}

func (*WhereClause) clauseNode()       {}
func (*SummarizeClause) clauseNode()   {}
func (*OrderClause) clauseNode()       {}
func (*TakeClause) clauseNode()        {}
func (*UnsupportedClause) clauseNode() {}

func (*WhereClause) Keyword() string       { return "where" }
func (*SummarizeClause) Keyword() string   { return "summarize" }
func (c *OrderClause) Keyword() string     { return c.Verb }
func (c *TakeClause) Keyword() string      { return c.Verb }
func (c *UnsupportedClause) Keyword() string { return c.Verb }

// SummarizeClause groups rows.
type SummarizeClause struct {
	Aggregations []Aggregation
	By           []GroupKey
	Text         string
}

// Aggregation is one `name = func(args)` term of a summarize clause.
type Aggregation struct {
	Name string // explicit alias, empty when none was given
	Func string // lower-cased function name
	Args []Operand
}

// DefaultName returns the column name the aggregation would get without
// an explicit alias, e.g. count_ or dcount_UserPrincipalName.
func (a Aggregation) DefaultName() string {
	if a.Name != "" {
		return a.Name
	}
	if len(a.Args) == 1 {
		if ref, ok := a.Args[0].(*ColumnRef); ok {
			return a.Func + "_" + ref.Name
		}
	}
	return a.Func + "_"
}

// GroupKey is one entry of a summarize `by` list.
type GroupKey struct {
	Column string // set when the key is a plain column reference
	Text   string // source text of the key
}

// OrderClause sorts rows. Only the first key is applied.
type OrderClause struct {
	Verb string // "order" or "sort"
	Keys []SortKey
	Text string
}

// SortKey is a field and direction.
type SortKey struct {
	Field      string
	Descending bool
}

// TakeClause truncates the row sequence.
type TakeClause struct {
	Verb string // "take" or "limit"
	N    int
	Text string
}

// UnsupportedClause is a pipe stage the engine does not implement. It is
// kept so callers can report it; execution passes rows through.
type UnsupportedClause struct {
	Verb string
	Text string
}

// Expr is a boolean expression inside a where clause.
type Expr interface {
	exprNode()
}

// LogicalOp joins two expressions.
type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
)

// BinaryExpr is `left and right` or `left or right`.
type BinaryExpr struct {
	Op    LogicalOp
	Left  Expr
	Right Expr
}

// NotExpr negates an expression.
type NotExpr struct {
	Expr Expr
}

// Comparison compares two operands. Op is empty for a bare operand used as
// a predicate, such as isnotempty(Location).
type Comparison struct {
	Left  Operand
	Op    string
	Right Operand
	List  []Operand // for in / !in
}

func (*BinaryExpr) exprNode() {}
func (*NotExpr) exprNode()    {}
func (*Comparison) exprNode() {}

// Operand is a value-producing term.
type Operand interface {
	operandNode()
	String() string
}

// ColumnRef names a column.
type ColumnRef struct {
	Name string
}

// Literal is a constant.
type Literal struct {
	Value dataset.Value
	Raw   string
}

// FuncCall is a function applied to operands.
type FuncCall struct {
	Name string // lower-cased
	Args []Operand
}

// TimespanLit is a duration literal like 24h.
type TimespanLit struct {
	Raw      string
	Duration time.Duration
}

func (*ColumnRef) operandNode()   {}
func (*Literal) operandNode()     {}
func (*FuncCall) operandNode()    {}
func (*TimespanLit) operandNode() {}

func (c *ColumnRef) String() string { return c.Name }
func (l *Literal) String() string   { return l.Raw }
func (t *TimespanLit) String() string {
	return t.Raw
}

func (f *FuncCall) String() string {
	args := make([]string, 0, len(f.Args))
	for _, a := range f.Args {
		args = append(args, a.String())
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

var timespanUnits = map[string]time.Duration{
	"d":   24 * time.Hour,
	"h":   time.Hour,
	"m":   time.Minute,
	"min": time.Minute,
	"s":   time.Second,
	"ms":  time.Millisecond,
}
