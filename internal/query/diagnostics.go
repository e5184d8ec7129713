package query

import (
	"errors"
	"fmt"
)

// ErrStrict is returned (wrapped) when strict mode rejects a query that the
// engine would otherwise run with warnings.
var ErrStrict = errors.New("query uses syntax the engine does not evaluate")

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic codes. These are stable and surface in JSON output.
const (
	DiagUnsupportedClause      = "UNSUPPORTED_CLAUSE"
	DiagMalformedClause        = "MALFORMED_CLAUSE"
	DiagUnsupportedPredicate   = "UNSUPPORTED_PREDICATE"
	DiagUnknownColumn          = "UNKNOWN_COLUMN"
	DiagUnsupportedGrouping    = "UNSUPPORTED_GROUPING"
	DiagUnsupportedAggregation = "UNSUPPORTED_AGGREGATION"
	DiagIgnoredSortKey         = "IGNORED_SORT_KEY"
)

// Diagnostic reports syntax the engine recognized but could not apply.
type Diagnostic struct {
	Code       string   `json:"code"`
	Severity   Severity `json:"severity"`
	Clause     string   `json:"clause,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Pos        int      `json:"pos"`
}

func (d Diagnostic) Error() string {
	if d.Clause != "" {
		return fmt.Sprintf("%s: %s", d.Clause, d.Message)
	}
	return d.Message
}

// diagnostics collects findings, dropping exact duplicates so a predicate
// evaluated once per row is reported once.
type diagnostics struct {
	items []Diagnostic
	seen  map[string]bool
}

func (d *diagnostics) add(diag Diagnostic) {
	if diag.Severity == "" {
		diag.Severity = SeverityWarning
	}
	key := diag.Code + "\x00" + diag.Clause + "\x00" + diag.Message
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.items = append(d.items, diag)
}

func (d *diagnostics) list() []Diagnostic {
	return d.items
}
