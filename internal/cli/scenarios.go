package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/realnamesareboring/KQLified/internal/scenarios"
	"github.com/realnamesareboring/KQLified/internal/shellquote"
	"github.com/realnamesareboring/KQLified/internal/ui"
)

type scenarioSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Platform   string `json:"platform"`
	Difficulty string `json:"difficulty"`
	Duration   string `json:"duration,omitempty"`
	Points     int    `json:"points"`
	Status     string `json:"status"`
}

type platformView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Icon      string            `json:"icon,omitempty"`
	Scenarios []scenarioSummary `json:"scenarios"`
}

var scenariosCmd = &cobra.Command{
	Use:     "scenarios",
	Aliases: []string{"ls"},
	Short:   "Browse the built-in detection scenarios",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenariosList()
	},
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List platforms and their scenarios",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenariosList()
	},
}

var scenariosShowCmd = &cobra.Command{
	Use:   "show <scenario>",
	Short: "Show a scenario briefing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := resolveScenario(args[0])
		if err != nil {
			return finish(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"scenario":         s,
				"starter_template": scenarios.StarterTemplate(s),
			}, nil)
			return nil
		}

		fmt.Println(ui.Header(s.Title) + " " + ui.Hint("("+s.ID+")"))
		fmt.Println(ui.Hint(scenarioMeta(s)))
		fmt.Println()
		writeMarkdown(os.Stdout, s.Description)
		if s.Hint != "" {
			fmt.Println()
			fmt.Println(ui.Tip(s.Hint))
		}
		if !s.Available() {
			fmt.Println()
			fmt.Println(ui.Warningf("This scenario is %s.", s.Status))
			return nil
		}
		fmt.Println()
		fmt.Println(ui.Hint(fmt.Sprintf("Start with %s, then %s.",
			shellquote.Command("kqlified", "template", s.ID, "--out", s.ID+".kql"),
			shellquote.Command("kqlified", "run", s.ID, "--file", s.ID+".kql", "--watch"))))
		return nil
	},
}

var scenariosValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog and grade every reference solution",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner := ui.NewSpinner("Grading reference solutions…", !isJSONOutput())
		spinner.Start()
		report := scenarios.ValidateDefaults(commandContext(cmd))
		spinner.Stop()

		if isJSONOutput() {
			if !report.Valid {
				return handleErrorWithDetails(ErrValidationFailed, "catalog validation failed", "", report)
			}
			outputSuccess(report, &Meta{Count: report.IssueCount})
			return nil
		}

		for _, issue := range report.Issues {
			where := issue.ScenarioID
			if where == "" {
				where = issue.PlatformID
			}
			msg := fmt.Sprintf("[%s] %s", issue.Code, issue.Message)
			if where != "" {
				msg = ui.ID(where) + ": " + msg
			}
			if issue.Severity == scenarios.ValidationSeverityError {
				fmt.Println(ui.Error(msg))
			} else {
				fmt.Println(ui.Warning(msg))
			}
		}

		summary := fmt.Sprintf("%d platforms, %d scenarios", report.PlatformCount, report.ScenarioCount)
		if !report.Valid {
			return fmt.Errorf("catalog validation failed %s", ui.ErrorWarningCounts(report.ErrorCount, report.WarningCount))
		}
		if report.WarningCount > 0 {
			fmt.Println(ui.Successf("Catalog valid: %s %s", summary, ui.ErrorWarningCounts(0, report.WarningCount)))
			return nil
		}
		fmt.Println(ui.Successf("Catalog valid: %s", summary))
		return nil
	},
}

func runScenariosList() error {
	catalog, err := scenarios.Load()
	if err != nil {
		return handleError(ErrCatalogInvalid, err, "")
	}

	views := make([]platformView, 0, len(catalog.Platforms))
	count := 0
	for _, p := range catalog.Platforms {
		view := platformView{ID: p.ID, Name: p.Name, Icon: p.Icon}
		for _, id := range p.Scenarios {
			view.Scenarios = append(view.Scenarios, summarizeScenario(catalog.Scenarios[id]))
			count++
		}
		views = append(views, view)
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"platforms": views}, &Meta{Count: count})
		return nil
	}

	for i, p := range views {
		if i > 0 {
			fmt.Println()
		}
		title := p.Name
		if p.Icon != "" {
			title = p.Icon + " " + title
		}
		fmt.Println(ui.Header(title))

		tbl := ui.NewTable(4).AlignRight(3)
		for _, s := range p.Scenarios {
			status := ui.Hint(s.Difficulty)
			if s.Status != "available" {
				status = ui.Hint(s.Status)
			}
			tbl.AddRow("  "+ui.ID(s.ID), s.Title, status, ui.Hint(strconv.Itoa(s.Points)+" XP"))
		}
		fmt.Print(tbl.String())
	}
	return nil
}

func summarizeScenario(s scenarios.Scenario) scenarioSummary {
	return scenarioSummary{
		ID:         s.ID,
		Title:      s.Title,
		Platform:   s.Platform,
		Difficulty: s.Difficulty,
		Duration:   s.Duration,
		Points:     s.Points,
		Status:     s.Status,
	}
}

func scenarioMeta(s scenarios.Scenario) string {
	parts := []string{s.Difficulty}
	if s.Duration != "" {
		parts = append(parts, s.Duration)
	}
	parts = append(parts, fmt.Sprintf("%d XP", s.Points), "table "+s.Table)
	return strings.Join(parts, " · ")
}

func init() {
	scenariosCmd.AddCommand(scenariosListCmd)
	scenariosCmd.AddCommand(scenariosShowCmd)
	scenariosCmd.AddCommand(scenariosValidateCmd)
	rootCmd.AddCommand(scenariosCmd)
}
