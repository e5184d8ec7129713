package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/realnamesareboring/KQLified/internal/dataset"
	"github.com/realnamesareboring/KQLified/internal/grader"
	"github.com/realnamesareboring/KQLified/internal/scenarios"
	"github.com/realnamesareboring/KQLified/internal/ui"
	"github.com/realnamesareboring/KQLified/internal/watcher"
)

var (
	runFile  string
	runWatch bool
)

var runCmd = &cobra.Command{
	Use:   "run <scenario> [query]",
	Short: "Grade a query against a scenario",
	Long: `Runs a query over the scenario's log table and grades the results.

The query comes from the argument, --file, or stdin. With --watch the file
is graded again on every save until interrupted.`,
	Example: `  kqlified run password-spray --file spray.kql
  kqlified run brute-force 'SigninLogs | where ResultType != 0 | summarize FailedAttempts = count() by IPAddress'
  kqlified run password-spray --file spray.kql --watch`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runWatch && runFile == "" {
			return handleErrorMsg(ErrMissingArgument, "--watch needs --file", "Save your query to a file and pass --file <path>")
		}

		s, ds, err := resolvePlayableScenario(args[0])
		if err != nil {
			return finish(err)
		}

		g := newGrader()
		ctx := commandContext(cmd)

		if runWatch {
			return finish(watchAndGrade(ctx, g, s, ds, runFile))
		}

		var arg string
		if len(args) > 1 {
			arg = args[1]
		}
		raw, err := readQuery(cmd, arg, runFile)
		if err != nil {
			return finish(err)
		}

		gradeAndReport(ctx, g, s, ds, raw)
		return nil
	},
}

// gradeAndReport grades raw and prints the verdict. Rejections are output,
// not command failures.
func gradeAndReport(ctx context.Context, g *grader.Grader, s scenarios.Scenario, ds *dataset.Dataset, raw string) grader.Verdict {
	v := g.Submit(ctx, s.Submission(raw, ds))

	if isJSONOutput() {
		outputSuccessWithWarnings(v, warningsFromDiagnostics(v.Diagnostics), &Meta{
			Count:       len(v.Results),
			QueryTimeMs: v.ElapsedMS,
		})
		return v
	}

	writeVerdict(os.Stdout, v)
	return v
}

func watchAndGrade(ctx context.Context, g *grader.Grader, s scenarios.Scenario, ds *dataset.Dataset, path string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	w, err := watcher.New(watcher.Config{
		Path:          path,
		DebounceDelay: 150 * time.Millisecond,
		Logger:        logger,
		OnChange: func(ctx context.Context, content string) {
			if !isJSONOutput() {
				fmt.Println()
				fmt.Println(ui.Header(fmt.Sprintf("── %s · %s ──", s.ID, time.Now().Format("15:04:05"))))
			}
			gradeAndReport(ctx, g, s, ds, content)
		},
	})
	if err != nil {
		return reported(handleError(ErrInvalidInput, err, ""))
	}

	if content, err := os.ReadFile(path); err == nil {
		gradeAndReport(ctx, g, s, ds, string(content))
	} else if !os.IsNotExist(err) {
		return reported(handleError(ErrFileReadError, err, ""))
	}

	if !isJSONOutput() {
		fmt.Println(ui.Hint(fmt.Sprintf("Watching %s for changes. Press Ctrl-C to stop.", path)))
	}
	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		return reported(handleError(ErrInternal, err, ""))
	}
	return nil
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "Read the query from a file")
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Grade again whenever --file changes")
	rootCmd.AddCommand(runCmd)
}
