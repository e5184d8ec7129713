package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/realnamesareboring/KQLified/internal/dataset"
	"github.com/realnamesareboring/KQLified/internal/grader"
	"github.com/realnamesareboring/KQLified/internal/query"
	"github.com/realnamesareboring/KQLified/internal/ui"
)

func newDisplay() *ui.DisplayContext {
	return ui.NewDisplayContext(getConfig().Engine.MaxRows)
}

// writeResults prints a result table followed by its row count.
func writeResults(w io.Writer, columns []string, rows []dataset.Row) {
	if len(columns) == 0 {
		fmt.Fprintln(w, ui.Hint("(no columns)"))
		return
	}
	fmt.Fprintln(w, ui.NewResultsTable(newDisplay(), columns, rows).
		WithHighlighter(ui.SuspiciousValue).
		Render())
	fmt.Fprintln(w, ui.Hint(ui.Count(len(rows), "row", "rows")))
}

// writeDiagnostics prints engine warnings about syntax that was not applied.
func writeDiagnostics(w io.Writer, diags []query.Diagnostic) {
	for _, d := range diags {
		line := ui.Warning(d.Error())
		if d.Suggestion != "" {
			line += " " + ui.Hint("("+d.Suggestion+")")
		}
		fmt.Fprintln(w, line)
	}
}

// writeVerdict prints a graded submission.
func writeVerdict(w io.Writer, v grader.Verdict) {
	if v.Valid {
		fmt.Fprintln(w, ui.Success(v.Message))
	} else {
		fmt.Fprintln(w, ui.Error(v.Message))
	}

	if len(v.Missing) > 0 {
		fmt.Fprintf(w, "\nYour query is missing: %s\n", strings.Join(v.Missing, ", "))
	}
	if len(v.Guidance) > 0 {
		fmt.Fprintln(w, "\nTry looking for:")
		for _, g := range v.Guidance {
			fmt.Fprintln(w, ui.Bullet(g))
		}
	}
	if len(v.Diagnostics) > 0 {
		fmt.Fprintln(w)
		writeDiagnostics(w, v.Diagnostics)
	}
	if len(v.Results) > 0 {
		fmt.Fprintln(w)
		writeResults(w, v.Columns, v.Results)
	}
	fmt.Fprintln(w, ui.Hint(fmt.Sprintf("submission %s · %dms", v.SubmissionID, v.ElapsedMS)))
}

// writeMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering fails.
func writeMarkdown(w io.Writer, content string) {
	display := newDisplay()
	rendered, err := ui.RenderMarkdown(content, display.AvailableWidth(ui.MarkdownRenderMargin))
	if err != nil {
		logger.Debug("render markdown", "error", err)
		fmt.Fprintln(w, strings.TrimRight(content, "\n"))
		return
	}
	fmt.Fprint(w, rendered)
}

// writeStages prints how each clause changed the row count.
func writeStages(w io.Writer, stages []query.StageStat) {
	if len(stages) == 0 {
		return
	}
	tbl := ui.NewTable(2)
	for _, st := range stages {
		counts := fmt.Sprintf("%d → %d", st.RowsIn, st.RowsOut)
		if !st.Applied {
			counts = ui.Hint(counts + " (not applied)")
		}
		tbl.AddRow("  "+st.Clause, counts)
	}
	fmt.Fprintln(w, ui.Header("Stages"))
	fmt.Fprint(w, tbl.String())
	fmt.Fprintln(w)
}
