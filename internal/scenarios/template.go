package scenarios

import (
	"fmt"
	"strings"
)

// StarterTemplate returns the commented query skeleton shown before a
// learner has written anything. The grader rejects it unchanged.
func StarterTemplate(s Scenario) string {
	cols := s.ColumnMap()
	lines := []string{
		fmt.Sprintf("// Write your KQL query here to detect %s", strings.ToLower(s.Title)),
		fmt.Sprintf("// Use %s to analyze the logs", s.Table),
		"//",
		"// Example structure:",
		"// " + s.Table,
		fmt.Sprintf("// | where %s > ago(24h)", cols.Timestamp),
		"// | where [your conditions here]",
		"// | summarize [your analysis here]",
	}
	return strings.Join(lines, "\n") + "\n"
}

// HintsUpTo returns the first level hints. Levels below 1 yield none and
// levels past the end yield all of them.
func (s Scenario) HintsUpTo(level int) []Entry {
	if level <= 0 {
		return nil
	}
	if level > len(s.Hints) {
		level = len(s.Hints)
	}
	return s.Hints[:level]
}
