package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/realnamesareboring/KQLified/internal/dataset"
	"github.com/realnamesareboring/KQLified/internal/query"
)

var (
	execScenario string
	execData     string
	execFile     string
	execStages   bool
)

var execCmd = &cobra.Command{
	Use:   "exec [query]",
	Short: "Run a query without grading it",
	Long: `Runs a query over a scenario's log table or a CSV/Parquet file and prints
the result rows. Nothing is graded.`,
	Example: `  kqlified exec --scenario password-spray 'SigninLogs | where ResultType != 0 | take 5'
  kqlified exec --data signins.parquet --file hunt.kql --stages`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (execScenario == "") == (execData == "") {
			return handleErrorMsg(ErrMissingArgument, "exactly one of --scenario or --data is required", "")
		}

		var ds *dataset.Dataset
		opts := []query.Option{
			query.WithLogger(logger),
			query.WithStrict(getConfig().Engine.Strict),
		}
		if execScenario != "" {
			s, scenarioData, err := resolvePlayableScenario(execScenario)
			if err != nil {
				return finish(err)
			}
			ds = scenarioData
			opts = append(opts, query.WithColumns(s.ColumnMap()))
		} else {
			loaded, err := dataset.LoadFile(execData)
			if err != nil {
				suggestion := ""
				if errors.Is(err, dataset.ErrUnsupportedFormat) {
					suggestion = "Use a .csv, .tsv or .parquet file"
				}
				return handleError(ErrDataLoadFailed, err, suggestion)
			}
			ds = loaded
		}

		var arg string
		if len(args) > 0 {
			arg = args[0]
		}
		raw, err := readQuery(cmd, arg, execFile)
		if err != nil {
			return finish(err)
		}

		res := query.Execute(commandContext(cmd), raw, ds, opts...)
		if !res.Success {
			suggestion := ""
			if errors.Is(res.Err, query.ErrStrict) {
				suggestion = "Set engine.strict = false to run with warnings instead"
			}
			return handleErrorWithDetails(ErrQueryInvalid, res.Error, suggestion, res.Diagnostics)
		}

		if isJSONOutput() {
			data := map[string]interface{}{
				"columns": res.Columns,
				"rows":    res.Data,
			}
			if execStages {
				data["stages"] = res.Stages
			}
			outputSuccessWithWarnings(data, warningsFromDiagnostics(res.Diagnostics), &Meta{Count: len(res.Data)})
			return nil
		}

		writeDiagnostics(os.Stderr, res.Diagnostics)
		if execStages {
			writeStages(os.Stdout, res.Stages)
		}
		writeResults(os.Stdout, res.Columns, res.Data)
		return nil
	},
}

func init() {
	execCmd.Flags().StringVarP(&execScenario, "scenario", "s", "", "Run over a scenario's log table")
	execCmd.Flags().StringVarP(&execData, "data", "d", "", "Run over a CSV, TSV or Parquet file")
	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "Read the query from a file")
	execCmd.Flags().BoolVar(&execStages, "stages", false, "Show row counts per clause")
	rootCmd.AddCommand(execCmd)
}
