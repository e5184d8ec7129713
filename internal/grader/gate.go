package grader

import (
	"strings"

	"github.com/realnamesareboring/KQLified/internal/query"
)

// templateMarkers are phrases that only appear in the starter templates.
var templateMarkers = []string{
	"write your kql query here",
	"[your conditions here]",
	"[your analysis here]",
	"example structure",
	"// signinlogs",
	"where timegenerated > ago(24h) // where [your conditions",
}

// IsTemplate reports whether raw still contains starter-template text.
// Comments are kept, since most markers live in them.
func IsTemplate(raw string) bool {
	collapsed := query.Collapse(raw)
	for _, marker := range templateMarkers {
		if strings.Contains(collapsed, marker) {
			return true
		}
	}
	return false
}

// Gate lists what a query must contain before it is worth executing.
type Gate struct {
	RequireWhere     bool     `yaml:"require_where" json:"require_where"`
	RequireSummarize bool     `yaml:"require_summarize" json:"require_summarize"`
	Terms            []string `yaml:"terms" json:"terms,omitempty"`
}

// DefaultGate requires a filter on failed sign-ins and a grouping step.
func DefaultGate() Gate {
	return Gate{
		RequireWhere:     true,
		RequireSummarize: true,
		Terms:            []string{"resulttype", "!= 0"},
	}
}

// Missing returns what raw lacks, as short phrases. An empty result means
// the query passes the gate.
func (g Gate) Missing(raw string) []string {
	normalized := strings.Join(strings.Fields(query.NormalizeLower(raw)), " ")
	hasSummarize := query.HasKeyword(normalized, "summarize")

	var missing []string
	if g.RequireWhere && !query.HasKeyword(normalized, "where") {
		missing = append(missing, "a where filter")
	}
	switch {
	case query.HasKeyword(normalized, "take") && !hasSummarize:
		missing = append(missing, "a summarize step (take only samples rows)")
	case g.RequireSummarize && !hasSummarize:
		missing = append(missing, "a summarize step")
	}
	for _, term := range g.Terms {
		if !strings.Contains(normalized, strings.ToLower(term)) {
			missing = append(missing, "the condition "+term)
		}
	}
	return missing
}

// Incomplete reports whether raw fails the gate.
func (g Gate) Incomplete(raw string) bool {
	return len(g.Missing(raw)) > 0
}
