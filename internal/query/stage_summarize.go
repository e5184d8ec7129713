package query

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/realnamesareboring/KQLified/internal/dataset"
)

// sampleLimit caps the sample lists (TargetedUsers, SourceIPs).
const sampleLimit = 5

// unknownLocation labels address groups that never saw a location.
const unknownLocation = "Unknown"

// Output columns of the two grouping modes. The grouping column itself is
// named after the source column.
const (
	ColLocation       = "Location"
	ColUniqueUsers    = "UniqueUsers"
	ColFailedAttempts = "FailedAttempts"
	ColAverage        = "AverageAttemptsPerUser"
	ColFirstAttempt   = "FirstAttempt"
	ColLastAttempt    = "LastAttempt"
	ColTargetedUsers  = "TargetedUsers"
	ColUniqueIPs      = "UniqueIPs"
	ColSourceIPs      = "SourceIPs"
	ColAttackDuration = "AttackDuration"
)

// ColumnMap names the source columns the summarize stage reads.
type ColumnMap struct {
	Address   string `yaml:"address" json:"address"`
	Location  string `yaml:"location" json:"location"`
	Principal string `yaml:"principal" json:"principal"`
	Timestamp string `yaml:"timestamp" json:"timestamp"`
}

// DefaultColumnMap returns the sign-in log column names.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		Address:   "IPAddress",
		Location:  "Location",
		Principal: "UserPrincipalName",
		Timestamp: "TimeGenerated",
	}
}

// WithDefaults fills empty fields from DefaultColumnMap.
func (m ColumnMap) WithDefaults() ColumnMap {
	def := DefaultColumnMap()
	if m.Address == "" {
		m.Address = def.Address
	}
	if m.Location == "" {
		m.Location = def.Location
	}
	if m.Principal == "" {
		m.Principal = def.Principal
	}
	if m.Timestamp == "" {
		m.Timestamp = def.Timestamp
	}
	return m
}

type groupMode int

const (
	groupNone groupMode = iota
	groupByAddress
	groupByPrincipal
)

// detectGroupMode picks the grouping mode from the by list: a key naming an
// address or location groups by address, otherwise a key naming a principal
// groups by principal.
func detectGroupMode(keys []GroupKey, sc scope, cols ColumnMap) groupMode {
	matches := func(key GroupKey, col string) bool {
		if key.Column == "" {
			return false
		}
		resolved, ok := sc.resolve(key.Column)
		return ok && strings.EqualFold(resolved, col)
	}

	for _, key := range keys {
		text := strings.ToLower(key.Text)
		if strings.Contains(text, "address") || strings.Contains(text, "location") ||
			matches(key, cols.Address) || matches(key, cols.Location) {
			return groupByAddress
		}
	}
	for _, key := range keys {
		if strings.Contains(strings.ToLower(key.Text), "principalname") || matches(key, cols.Principal) {
			return groupByPrincipal
		}
	}
	return groupNone
}

// Group accumulates the rows sharing one grouping value.
type Group struct {
	Key      string
	Location string
	Count    int
	First    string
	Last     string

	distinct []string
	seen     map[string]bool
}

func newGroup(key string) *Group {
	return &Group{Key: key, seen: make(map[string]bool)}
}

// observe folds one row into the group. Timestamps compare as strings, so
// they must be in a sortable format such as ISO-8601.
func (g *Group) observe(secondary, location, ts dataset.Value) {
	g.Count++

	if !secondary.IsMissing() {
		text := secondary.Text()
		if !g.seen[text] {
			g.seen[text] = true
			g.distinct = append(g.distinct, text)
		}
	}
	if g.Location == "" && !location.IsMissing() {
		g.Location = location.Text()
	}
	if !ts.IsMissing() {
		t := ts.Text()
		if g.First == "" || t < g.First {
			g.First = t
		}
		if g.Last == "" || t > g.Last {
			g.Last = t
		}
	}
}

// Distinct returns the number of distinct secondary values.
func (g *Group) Distinct() int {
	return len(g.distinct)
}

// Sample returns up to n distinct secondary values in first-seen order.
func (g *Group) Sample(n int) []string {
	if len(g.distinct) <= n {
		return g.distinct
	}
	return g.distinct[:n]
}

// groupTable keeps groups in first-encounter order.
type groupTable struct {
	order []*Group
	byKey map[string]*Group
}

func (t *groupTable) get(key string) *Group {
	if t.byKey == nil {
		t.byKey = make(map[string]*Group)
	}
	if g, ok := t.byKey[key]; ok {
		return g
	}
	g := newGroup(key)
	t.byKey[key] = g
	t.order = append(t.order, g)
	return g
}

// applySummarize groups rows and returns the summary rows plus the scope
// for later clauses. ok is false when the clause was passed through.
func applySummarize(rows []dataset.Row, clause *SummarizeClause, sc scope, cols ColumnMap, diags *diagnostics) ([]dataset.Row, scope, bool) {
	mode := detectGroupMode(clause.By, sc, cols)
	if mode == groupNone {
		diags.add(Diagnostic{
			Code:       DiagUnsupportedGrouping,
			Clause:     clause.Keyword(),
			Message:    fmt.Sprintf("grouping %s is not supported; rows pass through ungrouped", describeBy(clause.By)),
			Suggestion: fmt.Sprintf("Group by %s or %s", cols.Address, cols.Principal),
		})
		return rows, sc, false
	}

	col := func(name string) string {
		if resolved, ok := sc.resolve(name); ok {
			return resolved
		}
		return name
	}
	addressCol := col(cols.Address)
	principalCol := col(cols.Principal)
	locationCol := col(cols.Location)
	timeCol := col(cols.Timestamp)

	var table groupTable
	var out []dataset.Row
	var columns []string

	switch mode {
	case groupByAddress:
		for _, row := range rows {
			g := table.get(row.Get(addressCol).Text())
			g.observe(row.Get(principalCol), row.Get(locationCol), row.Get(timeCol))
		}
		columns = []string{addressCol, ColLocation, ColUniqueUsers, ColFailedAttempts, ColAverage, ColFirstAttempt, ColLastAttempt, ColTargetedUsers}
		for _, g := range table.order {
			location := g.Location
			if location == "" {
				location = unknownLocation
			}
			out = append(out, dataset.Row{
				addressCol:        dataset.Str(g.Key),
				ColLocation:       dataset.Str(location),
				ColUniqueUsers:    dataset.Num(float64(g.Distinct())),
				ColFailedAttempts: dataset.Num(float64(g.Count)),
				ColAverage:        averagePerKey(g.Count, g.Distinct()),
				ColFirstAttempt:   dataset.Str(g.First),
				ColLastAttempt:    dataset.Str(g.Last),
				ColTargetedUsers:  dataset.List(g.Sample(sampleLimit)),
			})
		}

	case groupByPrincipal:
		for _, row := range rows {
			g := table.get(row.Get(principalCol).Text())
			g.observe(row.Get(addressCol), row.Get(locationCol), row.Get(timeCol))
		}
		columns = []string{principalCol, ColFailedAttempts, ColUniqueIPs, ColSourceIPs, ColFirstAttempt, ColLastAttempt, ColAttackDuration}
		for _, g := range table.order {
			out = append(out, dataset.Row{
				principalCol:      dataset.Str(g.Key),
				ColFailedAttempts: dataset.Num(float64(g.Count)),
				ColUniqueIPs:      dataset.Num(float64(g.Distinct())),
				ColSourceIPs:      dataset.List(g.Sample(sampleLimit)),
				ColFirstAttempt:   dataset.Str(g.First),
				ColLastAttempt:    dataset.Str(g.Last),
				ColAttackDuration: dataset.Str(g.Last + " - " + g.First),
			})
		}
	}

	next := scope{columns: columns, aliases: aggregationAliases(clause, mode, diags)}
	return out, next, true
}

// aggregationAliases maps the names a learner gave aggregations (or the
// default func_column names) onto the fixed summary columns.
func aggregationAliases(clause *SummarizeClause, mode groupMode, diags *diagnostics) map[string]string {
	aliases := make(map[string]string)
	for _, agg := range clause.Aggregations {
		var target string
		switch agg.Func {
		case "count", "count_":
			target = ColFailedAttempts
		case "dcount", "count_distinct":
			target = ColUniqueUsers
			if mode == groupByPrincipal {
				target = ColUniqueIPs
			}
		case "min":
			target = ColFirstAttempt
		case "max":
			target = ColLastAttempt
		case "make_set", "make_list":
			target = ColTargetedUsers
			if mode == groupByPrincipal {
				target = ColSourceIPs
			}
		default:
			diags.add(Diagnostic{
				Code:       DiagUnsupportedAggregation,
				Clause:     clause.Keyword(),
				Message:    fmt.Sprintf("%s() is not computed; grouped rows carry the standard summary columns", agg.Func),
				Suggestion: "Supported aggregations: count, dcount, min, max, make_set, make_list",
			})
			continue
		}
		aliases[strings.ToLower(agg.DefaultName())] = target
	}
	return aliases
}

// averagePerKey is count/distinct rounded half away from zero to one decimal.
func averagePerKey(count, distinct int) dataset.Value {
	if distinct == 0 {
		return dataset.Missing()
	}
	avg := decimal.NewFromInt(int64(count)).
		Div(decimal.NewFromInt(int64(distinct))).
		Round(1)
	return dataset.Num(avg.InexactFloat64())
}

func describeBy(keys []GroupKey) string {
	if len(keys) == 0 {
		return "without a 'by' list"
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k.Text)
	}
	return "by " + strings.Join(parts, ", ")
}
