package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/realnamesareboring/KQLified/internal/atomicfile"
	"github.com/realnamesareboring/KQLified/internal/scenarios"
	"github.com/realnamesareboring/KQLified/internal/shellquote"
	"github.com/realnamesareboring/KQLified/internal/ui"
)

var (
	templateOut string
	hintLevel   int
)

var templateCmd = &cobra.Command{
	Use:   "template <scenario>",
	Short: "Print or save the starter template for a scenario",
	Long: `Prints the commented starter template for a scenario. With --out the
template is written to a new file; existing files are never overwritten.

Submitting the template unchanged is rejected, so replace the comments
with your own query.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := resolveScenario(args[0])
		if err != nil {
			return finish(err)
		}
		tmpl := scenarios.StarterTemplate(s)

		if templateOut == "" {
			if isJSONOutput() {
				outputSuccess(map[string]interface{}{"scenario": s.ID, "template": tmpl}, nil)
				return nil
			}
			fmt.Print(tmpl)
			return nil
		}

		if err := atomicfile.WriteNew(templateOut, []byte(tmpl), 0o644); err != nil {
			if errors.Is(err, atomicfile.ErrExists) {
				return handleError(ErrFileExists, err, "Choose another --out path or delete the file first")
			}
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"scenario": s.ID, "path": templateOut}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Wrote starter template to %s", templateOut))
		fmt.Println(ui.Hint("Grade it with: " + shellquote.Command("kqlified", "run", s.ID, "--file", templateOut, "--watch")))
		return nil
	},
}

var hintCmd = &cobra.Command{
	Use:   "hint <scenario>",
	Short: "Reveal progressive hints",
	Long: `Reveals hints one level at a time. --level 1 shows the first hint,
--level 2 the first two, and so on.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if hintLevel < 1 {
			return handleErrorMsg(ErrInvalidInput, "--level must be 1 or more", "")
		}

		_, s, err := resolveScenario(args[0])
		if err != nil {
			return finish(err)
		}
		hints := s.HintsUpTo(hintLevel)

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"scenario":  s.ID,
				"level":     len(hints),
				"available": len(s.Hints),
				"hints":     hints,
			}, &Meta{Count: len(hints)})
			return nil
		}

		if len(hints) == 0 {
			fmt.Println(ui.Info("This scenario has no hints. Try: " + shellquote.Command("kqlified", "solution", s.ID)))
			return nil
		}

		writeMarkdown(os.Stdout, entriesMarkdown("Hints", hints))
		if len(hints) < len(s.Hints) {
			fmt.Println(ui.Hint(fmt.Sprintf("Showing %d of %d hints. Use --level %d for the next one.", len(hints), len(s.Hints), len(hints)+1)))
		}
		return nil
	},
}

var solutionCmd = &cobra.Command{
	Use:   "solution <scenario>",
	Short: "Show the reference solution and walkthrough",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := resolveScenario(args[0])
		if err != nil {
			return finish(err)
		}
		if !s.Available() {
			return handleErrorMsg(ErrScenarioUnavailable, fmt.Sprintf("scenario %q is %s", s.ID, s.Status), "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"scenario":    s.ID,
				"solution":    s.Solution,
				"walkthrough": s.Walkthrough,
			}, nil)
			return nil
		}

		var sb strings.Builder
		sb.WriteString("## Solution\n\n```kql\n")
		sb.WriteString(strings.TrimRight(s.Solution, "\n"))
		sb.WriteString("\n```\n\n")
		if len(s.Walkthrough) > 0 {
			sb.WriteString(entriesMarkdown("Walkthrough", s.Walkthrough))
		}
		writeMarkdown(os.Stdout, sb.String())
		return nil
	},
}

// entriesMarkdown lays out hint or walkthrough entries as numbered sections.
func entriesMarkdown(heading string, entries []scenarios.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", heading)
	for i, e := range entries {
		fmt.Fprintf(&sb, "### %d. %s\n\n", i+1, e.Title)
		if body := strings.TrimSpace(e.Body); body != "" {
			sb.WriteString(body)
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

func init() {
	templateCmd.Flags().StringVarP(&templateOut, "out", "o", "", "Write the template to a new file")
	hintCmd.Flags().IntVarP(&hintLevel, "level", "l", 1, "Number of hints to reveal")
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(hintCmd)
	rootCmd.AddCommand(solutionCmd)
}
