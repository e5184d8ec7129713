package query

import (
	"github.com/realnamesareboring/KQLified/internal/dataset"
)

// applyWhere keeps every row the condition does not rule out. Conditions
// the engine cannot evaluate leave rows in place, so applying the same
// clause twice gives the same rows as applying it once.
func applyWhere(rows []dataset.Row, clause *WhereClause, sc scope, diags *diagnostics) []dataset.Row {
	ev := &evaluator{scope: sc, clause: clause.Keyword(), diags: diags}

	out := make([]dataset.Row, 0, len(rows))
	for _, row := range rows {
		if ev.eval(clause.Expr, row) != truthFalse {
			out = append(out, row)
		}
	}
	return out
}
