package grader

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-bexpr"

	"github.com/realnamesareboring/KQLified/internal/dataset"
)

// matcher evaluates a boolean expression against result rows, e.g.
// `Location == "Moscow" and TargetedUsers contains "alice@contoso.com"`.
// Selectors are column names.
type matcher struct {
	expr      string
	evaluator *bexpr.Evaluator
}

func newMatcher(expr string) (*matcher, error) {
	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("error parsing expression '%s': %w", expr, err)
	}
	return &matcher{expr: expr, evaluator: evaluator}, nil
}

// Match evaluates one row. vars must hold every selector the expression
// uses; absent columns are passed as empty strings.
func (m *matcher) Match(vars map[string]any) (bool, error) {
	ok, err := m.evaluator.Evaluate(vars)
	if err != nil {
		return false, fmt.Errorf("error evaluating expression '%s': %w, input values: %s", m.expr, err, stringify(vars))
	}
	return ok, nil
}

// Any reports whether at least one row matches. Rows the expression cannot
// be evaluated against count as non-matching.
func (m *matcher) Any(rows []dataset.Row) bool {
	keys := columnsOf(rows)
	for _, row := range rows {
		if ok, err := m.Match(rowVars(row, keys)); err == nil && ok {
			return true
		}
	}
	return false
}

func columnsOf(rows []dataset.Row) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func rowVars(row dataset.Row, keys []string) map[string]any {
	vars := make(map[string]any, len(keys))
	for _, k := range keys {
		v := row.Get(k)
		switch v.Kind() {
		case dataset.KindMissing:
			vars[k] = ""
		case dataset.KindList:
			vars[k] = v.Items()
		default:
			vars[k] = v.Interface()
		}
	}
	return vars
}

func stringify(obj any) string {
	b, err := json.Marshal(obj)
	if err != nil {
		b = []byte(fmt.Sprintf("%+v", obj))
	}
	return string(b)
}
