package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passwordSprayQuery = `SigninLogs
| where TimeGenerated > ago(24h)
| where ResultType != 0  // failed sign-ins only
| summarize UniqueUsers = dcount(UserPrincipalName), FailedAttempts = count(),
    TargetedUsers = make_set(UserPrincipalName) by IPAddress, Location
| where UniqueUsers >= 5
| order by UniqueUsers desc`

func TestParsePasswordSprayQuery(t *testing.T) {
	q := Parse(passwordSprayQuery)

	assert.Equal(t, "SigninLogs", q.Table)
	assert.Empty(t, q.Diagnostics)
	require.Len(t, q.Clauses, 5)

	where, ok := q.Clauses[1].(*WhereClause)
	require.True(t, ok)
	cmp, ok := where.Expr.(*Comparison)
	require.True(t, ok)
	assert.Equal(t, "!=", cmp.Op)
	assert.Equal(t, "ResultType", cmp.Left.String())
	assert.Equal(t, "where ResultType != 0", where.Text)

	summarize, ok := q.Clauses[2].(*SummarizeClause)
	require.True(t, ok)
	require.Len(t, summarize.Aggregations, 3)
	assert.Equal(t, "UniqueUsers", summarize.Aggregations[0].Name)
	assert.Equal(t, "dcount", summarize.Aggregations[0].Func)
	assert.Equal(t, "count", summarize.Aggregations[1].Func)
	require.Len(t, summarize.By, 2)
	assert.Equal(t, "IPAddress", summarize.By[0].Column)
	assert.Equal(t, "Location", summarize.By[1].Column)

	order, ok := q.Clauses[4].(*OrderClause)
	require.True(t, ok)
	assert.Equal(t, []SortKey{{Field: "UniqueUsers", Descending: true}}, order.Keys)
}

func TestParseWithoutTable(t *testing.T) {
	q := Parse("where ResultType != 0 | take 3")
	assert.Equal(t, "", q.Table)
	require.Len(t, q.Clauses, 2)
	take, ok := q.Clauses[1].(*TakeClause)
	require.True(t, ok)
	assert.Equal(t, 3, take.N)
}

func TestParseBooleanPrecedence(t *testing.T) {
	q := Parse("T | where a == 1 or b == 2 and not(c == 3)")
	require.Len(t, q.Clauses, 1)

	or, ok := q.Clauses[0].(*WhereClause).Expr.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, OpOr, or.Op)

	and, ok := or.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, OpAnd, and.Op)
	_, ok = and.Right.(*NotExpr)
	assert.True(t, ok)
}

func TestParseInList(t *testing.T) {
	q := Parse("T | where ResultType in (50126, 50053)")
	cmp := q.Clauses[0].(*WhereClause).Expr.(*Comparison)
	assert.Equal(t, "in", cmp.Op)
	assert.Len(t, cmp.List, 2)
}

func TestParseUnsupportedClauseIsReported(t *testing.T) {
	q := Parse("SigninLogs | project IPAddress, UserPrincipalName | take 5")

	require.Len(t, q.Clauses, 2)
	unsupported, ok := q.Clauses[0].(*UnsupportedClause)
	require.True(t, ok)
	assert.Equal(t, "project", unsupported.Verb)
	assert.Equal(t, "project IPAddress, UserPrincipalName", unsupported.Text)

	require.Len(t, q.Diagnostics, 1)
	assert.Equal(t, DiagUnsupportedClause, q.Diagnostics[0].Code)
	assert.Equal(t, SeverityWarning, q.Diagnostics[0].Severity)
}

func TestParseMalformedClausesAreSkipped(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"order without by", "T | order UniqueUsers desc"},
		{"take without count", "T | take"},
		{"dangling comparison", "T | where ResultType !="},
		{"bare aggregation name", "T | summarize total by IPAddress"},
		{"unknown operator", "T | where x between (1 .. 5)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Parse(tt.input)
			assert.Empty(t, q.Clauses)
			require.NotEmpty(t, q.Diagnostics)
			assert.Equal(t, DiagMalformedClause, q.Diagnostics[0].Code)
		})
	}
}

func TestParseSortByMultipleKeys(t *testing.T) {
	q := Parse("T | sort by FailedAttempts desc, IPAddress asc")
	order := q.Clauses[0].(*OrderClause)
	assert.Equal(t, "sort", order.Verb)
	assert.Equal(t, []SortKey{
		{Field: "FailedAttempts", Descending: true},
		{Field: "IPAddress"},
	}, order.Keys)
}

func TestAggregationDefaultName(t *testing.T) {
	q := Parse("T | summarize count(), dcount(UserPrincipalName) by IPAddress")
	s := q.Clauses[0].(*SummarizeClause)
	assert.Equal(t, "count_", s.Aggregations[0].DefaultName())
	assert.Equal(t, "dcount_UserPrincipalName", s.Aggregations[1].DefaultName())
}

func TestNormalize(t *testing.T) {
	raw := "// Write your query\nSigninLogs\n\n   | where ResultType != 0   \n// note\n| take 5"
	assert.Equal(t, "SigninLogs | where ResultType != 0 | take 5", Normalize(raw))
	assert.Equal(t, "signinlogs | where resulttype != 0 | take 5", NormalizeLower(raw))
	assert.Equal(t, "// write your query signinlogs | where resulttype != 0 // note | take 5", Collapse(raw))
}

func TestHasKeyword(t *testing.T) {
	assert.True(t, HasKeyword("signinlogs | take 5", "take"))
	assert.False(t, HasKeyword("where mistake == 1", "take"))
	assert.True(t, HasKeyword("T|summarize count() by x", "summarize"))
}
