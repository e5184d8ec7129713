package grader

import (
	"fmt"
	"strings"

	"github.com/realnamesareboring/KQLified/internal/dataset"
)

// Outcome is the result of a pattern check.
type Outcome struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

func pass(message string) Outcome { return Outcome{Passed: true, Message: message} }
func fail(message string) Outcome { return Outcome{Passed: false, Message: message} }

// Check decides whether result rows show the expected detection.
type Check interface {
	Name() string
	Check(rows []dataset.Row) Outcome
}

const (
	msgPerfect   = "Perfect detection!"
	msgGood      = "Good detection!"
	msgNoPattern = "no attack patterns were detected."
)

// NonEmptyCheck passes whenever the query returned rows.
type NonEmptyCheck struct{}

func (NonEmptyCheck) Name() string { return "non-empty" }

func (NonEmptyCheck) Check(rows []dataset.Row) Outcome {
	if len(rows) == 0 {
		return fail(msgNoPattern)
	}
	return pass(msgGood)
}

// PasswordSprayCheck looks for an address that targeted many accounts and
// for the known attacker address among the results.
type PasswordSprayCheck struct {
	MinUniqueUsers float64
	AttackAddress  string
}

// NewPasswordSprayCheck returns the check for the sign-in spray scenario.
func NewPasswordSprayCheck() PasswordSprayCheck {
	return PasswordSprayCheck{MinUniqueUsers: 5, AttackAddress: "203.0.113.45"}
}

func (PasswordSprayCheck) Name() string { return "password-spray" }

func (c PasswordSprayCheck) Check(rows []dataset.Row) Outcome {
	if !anyAtLeast(rows, "UniqueUsers", c.MinUniqueUsers) {
		return fail("try filtering for IP addresses that target 5+ unique users to detect password spray attacks.")
	}
	if !anyContains(rows, "IPAddress", c.AttackAddress) {
		return fail("you're missing the main attack IP. Look for patterns with high unique user counts.")
	}
	return pass(msgPerfect)
}

// Threshold requires at least one row whose Field is >= Min.
type Threshold struct {
	Field   string  `yaml:"field" json:"field"`
	Min     float64 `yaml:"min" json:"min"`
	Message string  `yaml:"message,omitempty" json:"message,omitempty"`
}

// Indicator requires at least one row whose Field contains a substring.
type Indicator struct {
	Field    string `yaml:"field" json:"field"`
	Contains string `yaml:"contains" json:"contains"`
	Message  string `yaml:"message,omitempty" json:"message,omitempty"`
}

// PatternCheck is a data-driven check built from scenario expectations.
// Its parts run in order: threshold, indicator, then the match expression.
type PatternCheck struct {
	name      string
	threshold *Threshold
	indicator *Indicator
	match     *matcher
	matchMsg  string
}

// NewPatternCheck compiles the pattern parts of exp.
func NewPatternCheck(name string, exp Expectations) (*PatternCheck, error) {
	c := &PatternCheck{
		name:      name,
		threshold: exp.Threshold,
		indicator: exp.Indicator,
		matchMsg:  exp.MatchMessage,
	}
	if exp.Match != "" {
		m, err := newMatcher(exp.Match)
		if err != nil {
			return nil, err
		}
		c.match = m
	}
	return c, nil
}

func (c *PatternCheck) Name() string { return c.name }

func (c *PatternCheck) Check(rows []dataset.Row) Outcome {
	if len(rows) == 0 {
		return fail(msgNoPattern)
	}

	if t := c.threshold; t != nil && !anyAtLeast(rows, t.Field, t.Min) {
		msg := t.Message
		if msg == "" {
			msg = fmt.Sprintf("try filtering for results where %s is at least %s.", t.Field, formatMin(t.Min))
		}
		return fail(msg)
	}

	if ind := c.indicator; ind != nil && !anyContains(rows, ind.Field, ind.Contains) {
		msg := ind.Message
		if msg == "" {
			msg = fmt.Sprintf("none of the results have %s matching %q.", ind.Field, ind.Contains)
		}
		return fail(msg)
	}

	if c.match != nil && !c.match.Any(rows) {
		msg := c.matchMsg
		if msg == "" {
			msg = "none of the results match the expected attack pattern."
		}
		return fail(msg)
	}

	return pass(msgPerfect)
}

func anyAtLeast(rows []dataset.Row, field string, min float64) bool {
	for _, row := range rows {
		if n, ok := row.Get(field).Number(); ok && n >= min {
			return true
		}
	}
	return false
}

func anyContains(rows []dataset.Row, field, substr string) bool {
	for _, row := range rows {
		v := row.Get(field)
		if v.IsMissing() {
			continue
		}
		if v.Kind() == dataset.KindList {
			for _, item := range v.Items() {
				if strings.Contains(item, substr) {
					return true
				}
			}
			continue
		}
		if strings.Contains(v.Text(), substr) {
			return true
		}
	}
	return false
}

func formatMin(f float64) string {
	return dataset.Num(f).Text()
}
