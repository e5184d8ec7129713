package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/realnamesareboring/KQLified/internal/dataset"
	"github.com/realnamesareboring/KQLified/internal/sandbox"
	"github.com/realnamesareboring/KQLified/internal/ui"
)

// statusColumns are the outcome columns profile looks for, in order.
var statusColumns = []string{"ResultType", "ErrorCode", "Status"}

var sqlCmd = &cobra.Command{
	Use:   "sql <scenario> <statement>",
	Short: "Explore a scenario's log table with SQL",
	Long: `Loads the scenario's log table into an in-memory SQLite database and runs
one SQL statement against it. Useful for checking what a KQL query should
return. The table is named after the scenario's KQL table.`,
	Example: `  kqlified sql password-spray 'SELECT IPAddress, COUNT(DISTINCT UserPrincipalName) FROM SigninLogs GROUP BY 1'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ds, err := resolvePlayableScenario(args[0])
		if err != nil {
			return finish(err)
		}

		ctx := commandContext(cmd)
		sb, err := sandbox.Open(ctx, ds)
		if err != nil {
			return handleError(ErrDataLoadFailed, err, "")
		}
		defer sb.Close()

		out, err := sb.Query(ctx, args[1])
		if err != nil {
			return handleError(ErrSQLFailed, err, fmt.Sprintf("The table is %q with columns: %s", sb.Table(), strings.Join(ds.Columns, ", ")))
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"columns": out.Columns,
				"rows":    out.Rows,
			}, &Meta{Count: out.Len()})
			return nil
		}

		writeResults(os.Stdout, out.Columns, out.Rows)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <scenario>",
	Short: "Summarize a scenario's log table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ds, err := resolvePlayableScenario(args[0])
		if err != nil {
			return finish(err)
		}

		ctx := commandContext(cmd)
		sb, err := sandbox.Open(ctx, ds)
		if err != nil {
			return handleError(ErrDataLoadFailed, err, "")
		}
		defer sb.Close()

		p, err := sb.Profile(ctx, statusColumn(ds), s.ColumnMap().Timestamp)
		if err != nil {
			return handleError(ErrSQLFailed, err, "")
		}

		if isJSONOutput() {
			outputSuccess(p, &Meta{Count: p.Rows})
			return nil
		}

		fmt.Println(ui.Header(p.Table) + " " + ui.Hint(ui.Count(p.Rows, "row", "rows")))
		fmt.Printf("columns: %s\n", strings.Join(p.Columns, ", "))
		if p.FirstEvent != "" {
			fmt.Printf("events:  %s → %s\n", p.FirstEvent, p.LastEvent)
		}
		if p.Status != "" {
			fmt.Printf("failures: %d %s\n", p.Failures, ui.Hint("("+p.Status+" not 0)"))
			tbl := ui.NewTable(2)
			for _, c := range p.ResultCodes {
				code := c.Code
				if code == "" {
					code = "(empty)"
				}
				tbl.AddRow("  "+code, fmt.Sprintf("%d", c.Count))
			}
			fmt.Print(tbl.String())
		}
		return nil
	},
}

func statusColumn(ds *dataset.Dataset) string {
	for _, name := range statusColumns {
		if col, ok := ds.Column(name); ok {
			return col
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(profileCmd)
}
