package scenarios

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/realnamesareboring/KQLified/internal/grader"
)

// ValidationSeverity classifies validation issue severity.
type ValidationSeverity string

const (
	ValidationSeverityError   ValidationSeverity = "error"
	ValidationSeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue is a single catalog validation finding.
type ValidationIssue struct {
	Code       string             `json:"code"`
	Severity   ValidationSeverity `json:"severity"`
	Message    string             `json:"message"`
	PlatformID string             `json:"platform_id,omitempty"`
	ScenarioID string             `json:"scenario_id,omitempty"`
}

// ValidationReport summarizes catalog validation findings.
type ValidationReport struct {
	Valid         bool              `json:"valid"`
	PlatformCount int               `json:"platform_count"`
	ScenarioCount int               `json:"scenario_count"`
	ErrorCount    int               `json:"error_count"`
	WarningCount  int               `json:"warning_count"`
	IssueCount    int               `json:"issue_count"`
	Issues        []ValidationIssue `json:"issues,omitempty"`
}

// ValidateDefaults validates the embedded catalog, including grading every
// reference solution and starter template.
func ValidateDefaults(ctx context.Context) ValidationReport {
	return validateFS(ctx, defaultScenariosFS, grader.New())
}

func validateFS(ctx context.Context, fsys fs.FS, g *grader.Grader) ValidationReport {
	report := ValidationReport{
		Issues: make([]ValidationIssue, 0),
	}

	catalog, err := loadCatalogFromFS(fsys)
	if err != nil {
		report.addIssue(ValidationIssue{
			Code:     "CATALOG_INVALID",
			Severity: ValidationSeverityError,
			Message:  err.Error(),
		})
	} else {
		report.PlatformCount = len(catalog.Platforms)
		report.ScenarioCount = len(catalog.Scenarios)
		for _, s := range catalog.Ordered() {
			if !s.Available() {
				continue
			}
			validateScenario(ctx, &report, catalog, s, g)
		}
	}

	orphans, err := findOrphanScenarioIDs(fsys)
	if err != nil {
		report.addIssue(ValidationIssue{
			Code:     "ORPHAN_CHECK_FAILED",
			Severity: ValidationSeverityError,
			Message:  fmt.Sprintf("failed to check orphan scenarios: %v", err),
		})
	} else {
		for _, id := range orphans {
			report.addIssue(ValidationIssue{
				Code:       "SCENARIO_NOT_IN_SYLLABUS",
				Severity:   ValidationSeverityWarning,
				Message:    fmt.Sprintf("scenario directory %q exists but is not listed in syllabus", id),
				ScenarioID: id,
			})
		}
	}

	report.Valid = report.ErrorCount == 0
	report.IssueCount = len(report.Issues)
	return report
}

func validateScenario(ctx context.Context, report *ValidationReport, catalog *Catalog, s Scenario, g *grader.Grader) {
	issue := func(code string, severity ValidationSeverity, format string, args ...any) {
		report.addIssue(ValidationIssue{
			Code:       code,
			Severity:   severity,
			Message:    fmt.Sprintf(format, args...),
			PlatformID: s.Platform,
			ScenarioID: s.ID,
		})
	}

	if len(s.Hints) == 0 {
		issue("NO_HINTS", ValidationSeverityWarning, "scenario %q has no hints", s.ID)
	}

	ds, err := catalog.Dataset(s)
	if err != nil {
		issue("DATA_INVALID", ValidationSeverityError, "%v", err)
		return
	}
	if ds.Len() == 0 {
		issue("DATA_INVALID", ValidationSeverityError, "scenario %q has an empty dataset", s.ID)
		return
	}

	if v := g.Submit(ctx, s.Submission(s.Solution, ds)); !v.Valid {
		issue("SOLUTION_REJECTED", ValidationSeverityError, "reference solution for %q rejected (%s): %s", s.ID, v.Reason, v.Message)
	}
	if v := g.Submit(ctx, s.Submission(StarterTemplate(s), ds)); v.Valid {
		issue("TEMPLATE_ACCEPTED", ValidationSeverityError, "starter template for %q passes grading", s.ID)
	}
}

func (r *ValidationReport) addIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
	switch issue.Severity {
	case ValidationSeverityWarning:
		r.WarningCount++
	default:
		r.ErrorCount++
	}
}

func findOrphanScenarioIDs(fsys fs.FS) ([]string, error) {
	syllabus, err := readSyllabus(fsys)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]struct{})
	for _, p := range syllabus.Platforms {
		for _, rawID := range p.Scenarios {
			if id := strings.TrimSpace(rawID); id != "" {
				referenced[id] = struct{}{}
			}
		}
	}

	entries, err := fs.ReadDir(fsys, defaultScenariosDir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}

	var orphans []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, ok := referenced[entry.Name()]; ok {
			continue
		}
		orphans = append(orphans, entry.Name())
	}

	sort.Strings(orphans)
	return orphans, nil
}
