package scenarios

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/realnamesareboring/KQLified/internal/grader"
)

const fixtureData = `TimeGenerated,UserPrincipalName,IPAddress,Location,ResultType
2024-01-15T08:00:00Z,a@contoso.com,203.0.113.45,Moscow,50126
2024-01-15T08:01:00Z,b@contoso.com,203.0.113.45,Moscow,50126
2024-01-15T08:02:00Z,c@contoso.com,203.0.113.45,Moscow,50126
2024-01-15T08:03:00Z,d@contoso.com,203.0.113.45,Moscow,50126
2024-01-15T08:04:00Z,e@contoso.com,203.0.113.45,Moscow,50126
2024-01-15T09:00:00Z,a@contoso.com,10.0.0.5,Seattle,0
`

const fixtureScenario = `---
title: Spray
expect:
  min_rows: 1
---

# Spray

Find the spray.

## Hints

### Failures

Filter to failures.
`

func fixtureFS(solution string) fstest.MapFS {
	return fstest.MapFS{
		"defaults/syllabus.yaml": {
			Data: []byte("platforms:\n  - id: azure\n    name: Azure\n    scenarios: [spray]\n"),
		},
		"defaults/scenarios/spray/scenario.md":  {Data: []byte(fixtureScenario)},
		"defaults/scenarios/spray/data.csv":     {Data: []byte(fixtureData)},
		"defaults/scenarios/spray/solution.kql": {Data: []byte(solution)},
	}
}

func TestValidateDefaults(t *testing.T) {
	report := ValidateDefaults(context.Background())
	if !report.Valid {
		t.Fatalf("expected embedded defaults to validate, got: %+v", report)
	}
	if report.ErrorCount != 0 {
		t.Fatalf("expected no validation errors, got %d", report.ErrorCount)
	}
	if report.ScenarioCount != 3 {
		t.Fatalf("expected 3 scenarios, got %d", report.ScenarioCount)
	}
}

func TestEmbeddedSolutionsPassAndTemplatesFail(t *testing.T) {
	catalog, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	g := grader.New()
	for _, s := range catalog.Ordered() {
		ds, err := catalog.Dataset(s)
		if err != nil {
			t.Fatalf("Dataset(%q) error = %v", s.ID, err)
		}

		v := g.Submit(context.Background(), s.Submission(s.Solution, ds))
		if !v.Valid {
			t.Fatalf("solution for %q rejected: %s (%s)", s.ID, v.Message, v.Reason)
		}
		if v.Message != "Perfect detection!" {
			t.Fatalf("solution for %q: unexpected message %q", s.ID, v.Message)
		}

		v = g.Submit(context.Background(), s.Submission(StarterTemplate(s), ds))
		if v.Valid || v.Reason != grader.ReasonTemplate {
			t.Fatalf("template for %q: expected template rejection, got %+v", s.ID, v)
		}
	}
}

func TestValidateFSGoodFixture(t *testing.T) {
	solution := "SigninLogs\n| where ResultType != 0\n| summarize UniqueUsers = dcount(UserPrincipalName) by IPAddress\n| where UniqueUsers >= 5\n"
	report := validateFS(context.Background(), fixtureFS(solution), grader.New())
	if !report.Valid {
		t.Fatalf("expected fixture to validate, got: %+v", report)
	}
	if report.IssueCount != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
}

func TestValidateFSRejectedSolution(t *testing.T) {
	report := validateFS(context.Background(), fixtureFS("SigninLogs | take 5"), grader.New())
	if report.Valid {
		t.Fatalf("expected rejected solution to invalidate the catalog")
	}
	if report.ErrorCount != 1 || report.Issues[0].Code != "SOLUTION_REJECTED" {
		t.Fatalf("expected one SOLUTION_REJECTED issue, got %+v", report.Issues)
	}
	if report.Issues[0].ScenarioID != "spray" || report.Issues[0].PlatformID != "azure" {
		t.Fatalf("unexpected issue location %+v", report.Issues[0])
	}
}

func TestValidateFSOrphanScenarioWarning(t *testing.T) {
	fsys := fixtureFS("SigninLogs\n| where ResultType != 0\n| summarize count() by IPAddress\n")
	fsys["defaults/scenarios/orphan/scenario.md"] = &fstest.MapFile{Data: []byte("---\ntitle: Orphan\n---\n")}

	report := validateFS(context.Background(), fsys, grader.New())
	if !report.Valid {
		t.Fatalf("expected report to be valid with warning-only findings, got: %+v", report)
	}
	if report.WarningCount != 1 || report.Issues[0].Code != "SCENARIO_NOT_IN_SYLLABUS" {
		t.Fatalf("expected orphan warning, got %+v", report.Issues)
	}
}

func TestValidateFSInvalidCatalog(t *testing.T) {
	fsys := fixtureFS("")
	delete(fsys, "defaults/scenarios/spray/solution.kql")

	report := validateFS(context.Background(), fsys, grader.New())
	if report.Valid {
		t.Fatalf("expected invalid report")
	}
	if report.Issues[0].Code != "CATALOG_INVALID" {
		t.Fatalf("expected CATALOG_INVALID, got %+v", report.Issues[0])
	}
}
