package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/realnamesareboring/KQLified/internal/dataset"
)

// applyOrder sorts by the clause's first key. The sort is stable, so rows
// with equal keys keep their input order.
func applyOrder(rows []dataset.Row, clause *OrderClause, sc scope, diags *diagnostics) []dataset.Row {
	if len(clause.Keys) == 0 {
		return rows
	}
	key := clause.Keys[0]

	if len(clause.Keys) > 1 {
		ignored := make([]string, 0, len(clause.Keys)-1)
		for _, k := range clause.Keys[1:] {
			ignored = append(ignored, k.Field)
		}
		diags.add(Diagnostic{
			Code:    DiagIgnoredSortKey,
			Clause:  clause.Keyword(),
			Message: fmt.Sprintf("only the first sort key (%s) is applied; ignored: %s", key.Field, strings.Join(ignored, ", ")),
		})
	}

	col, ok := sc.resolve(key.Field)
	if !ok {
		diags.add(Diagnostic{
			Code:       DiagUnknownColumn,
			Clause:     clause.Keyword(),
			Message:    fmt.Sprintf("column %q does not exist; rows keep their current order", key.Field),
			Suggestion: "Available columns: " + strings.Join(sc.columns, ", "),
		})
		return rows
	}

	out := make([]dataset.Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		cmp := orderCompare(out[i].Get(col), out[j].Get(col))
		if key.Descending {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

// applyTake keeps the first n rows.
func applyTake(rows []dataset.Row, n int) []dataset.Row {
	if n >= len(rows) {
		return rows
	}
	return rows[:n]
}
