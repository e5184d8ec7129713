package query

import (
	"fmt"
	"strings"

	"github.com/realnamesareboring/KQLified/internal/dataset"
)

// truth is a three-valued predicate result. Unknown comes from conditions
// the engine cannot evaluate; it never removes a row.
type truth int

const (
	truthFalse truth = iota
	truthTrue
	truthUnknown
)

func fromBool(b bool) truth {
	if b {
		return truthTrue
	}
	return truthFalse
}

// thresholdAliases let threshold phrases written against aggregate function
// names (count >= 10, dcount >= 5) resolve to the summarize output columns.
// The first target present in the current columns wins.
var thresholdAliases = map[string][]string{
	"count":         {"FailedAttempts"},
	"count_":        {"FailedAttempts"},
	"dcount":        {"UniqueUsers", "UniqueIPs"},
	"dcount_":       {"UniqueUsers", "UniqueIPs"},
	"distinctcount": {"UniqueUsers", "UniqueIPs"},
}

// scope resolves names used in a clause against the columns flowing into it.
type scope struct {
	columns []string
	aliases map[string]string // lower-cased alias -> column
}

func (s scope) resolve(name string) (string, bool) {
	if col, ok := dataset.ResolveColumn(s.columns, name); ok {
		return col, true
	}
	lower := strings.ToLower(name)
	if target, ok := s.aliases[lower]; ok {
		if col, ok := dataset.ResolveColumn(s.columns, target); ok {
			return col, true
		}
	}
	for _, target := range thresholdAliases[lower] {
		if col, ok := dataset.ResolveColumn(s.columns, target); ok {
			return col, true
		}
	}
	return "", false
}

// evaluator applies one where clause to rows.
type evaluator struct {
	scope  scope
	clause string
	diags  *diagnostics
}

func (e *evaluator) warn(code, message, suggestion string) {
	e.diags.add(Diagnostic{
		Code:       code,
		Severity:   SeverityWarning,
		Clause:     e.clause,
		Message:    message,
		Suggestion: suggestion,
	})
}

func (e *evaluator) eval(expr Expr, row dataset.Row) truth {
	switch x := expr.(type) {
	case *BinaryExpr:
		left := e.eval(x.Left, row)
		right := e.eval(x.Right, row)
		if x.Op == OpAnd {
			switch {
			case left == truthFalse || right == truthFalse:
				return truthFalse
			case left == truthUnknown || right == truthUnknown:
				return truthUnknown
			}
			return truthTrue
		}
		switch {
		case left == truthTrue || right == truthTrue:
			return truthTrue
		case left == truthUnknown || right == truthUnknown:
			return truthUnknown
		}
		return truthFalse

	case *NotExpr:
		switch e.eval(x.Expr, row) {
		case truthTrue:
			return truthFalse
		case truthFalse:
			return truthTrue
		}
		return truthUnknown

	case *Comparison:
		return e.evalComparison(x, row)
	}
	return truthUnknown
}

func (e *evaluator) evalComparison(c *Comparison, row dataset.Row) truth {
	if c.Op == "" {
		return e.evalPredicate(c.Left, row)
	}

	left, ok := e.operand(c.Left, row)
	if !ok {
		return truthUnknown
	}

	if c.Op == "in" || c.Op == "!in" {
		if left.IsMissing() {
			return truthFalse
		}
		found := false
		for _, item := range c.List {
			v, ok := e.operand(item, row)
			if !ok {
				return truthUnknown
			}
			if applyOperator("==", left, v) {
				found = true
				break
			}
		}
		return fromBool(found == (c.Op == "in"))
	}

	right, ok := e.operand(c.Right, row)
	if !ok {
		return truthUnknown
	}
	return fromBool(applyOperator(c.Op, left, right))
}

// evalPredicate handles a bare operand used as a condition.
func (e *evaluator) evalPredicate(op Operand, row dataset.Row) truth {
	if fn, ok := op.(*FuncCall); ok && len(fn.Args) == 1 {
		switch fn.Name {
		case "isempty", "isnull", "isnotempty", "isnotnull":
			v, ok := e.operand(fn.Args[0], row)
			if !ok {
				return truthUnknown
			}
			empty := v.IsMissing()
			if fn.Name == "isempty" || fn.Name == "isnull" {
				return fromBool(empty)
			}
			return fromBool(!empty)
		}
	}

	v, ok := e.operand(op, row)
	if !ok {
		return truthUnknown
	}
	if v.IsMissing() {
		return truthFalse
	}
	if n, isNum := v.Number(); isNum {
		return fromBool(n != 0)
	}
	return fromBool(!strings.EqualFold(v.Text(), "false"))
}

func (e *evaluator) operand(op Operand, row dataset.Row) (dataset.Value, bool) {
	switch x := op.(type) {
	case *Literal:
		return x.Value, true

	case *ColumnRef:
		col, ok := e.scope.resolve(x.Name)
		if !ok {
			e.warn(DiagUnknownColumn,
				fmt.Sprintf("column %q does not exist; the condition is treated as true", x.Name),
				"Available columns: "+strings.Join(e.scope.columns, ", "))
			return dataset.Missing(), false
		}
		return row.Get(col), true

	case *FuncCall:
		return e.call(x, row)

	case *TimespanLit:
		e.warn(DiagUnsupportedPredicate,
			fmt.Sprintf("timespan %s is only meaningful inside time functions; the condition is treated as true", x.Raw),
			"")
		return dataset.Missing(), false
	}
	return dataset.Missing(), false
}

func (e *evaluator) call(fn *FuncCall, row dataset.Row) (dataset.Value, bool) {
	switch fn.Name {
	case "tolower", "toupper", "tostring", "trim":
		if len(fn.Args) != 1 {
			break
		}
		v, ok := e.operand(fn.Args[0], row)
		if !ok || v.IsMissing() {
			return v, ok
		}
		switch fn.Name {
		case "tolower":
			return dataset.Str(strings.ToLower(v.Text())), true
		case "toupper":
			return dataset.Str(strings.ToUpper(v.Text())), true
		case "trim":
			return dataset.Str(strings.TrimSpace(v.Text())), true
		}
		return dataset.Str(v.Text()), true

	case "ago", "now", "datetime", "startofday", "bin":
		e.warn(DiagUnsupportedPredicate,
			fmt.Sprintf("%s() is not evaluated against the static training data; the condition is treated as true", fn.Name),
			"Time filters are optional here: the sample data already covers the investigation window.")
		return dataset.Missing(), false
	}

	e.warn(DiagUnsupportedPredicate,
		fmt.Sprintf("function %s() is not supported; the condition is treated as true", fn.Name),
		"Supported functions: tolower, toupper, tostring, trim, isempty, isnotempty, isnull, isnotnull")
	return dataset.Missing(), false
}
