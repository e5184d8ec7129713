package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/realnamesareboring/KQLified/internal/dataset"
	"github.com/realnamesareboring/KQLified/internal/grader"
	"github.com/realnamesareboring/KQLified/internal/scenarios"
)

// errHandled marks a failure already reported as JSON. It keeps cobra quiet
// while letting callers stop.
var errHandled = errors.New("error already reported")

// resolveScenario loads the catalog and finds ref in it. Failures are
// reported through the handle helpers; the returned error is either for
// cobra to print or errHandled.
func resolveScenario(ref string) (*scenarios.Catalog, scenarios.Scenario, error) {
	catalog, err := scenarios.Load()
	if err != nil {
		return nil, scenarios.Scenario{}, reported(handleError(ErrCatalogInvalid, err, ""))
	}

	s, err := catalog.Lookup(ref)
	if err != nil {
		suggestion := "Run 'kqlified scenarios list' to see available scenarios"
		if ids := catalog.Suggestions(ref); len(ids) > 0 {
			suggestion = fmt.Sprintf("Did you mean: %s?", strings.Join(ids, ", "))
		}
		return nil, scenarios.Scenario{}, reported(handleError(ErrScenarioNotFound, err, suggestion))
	}
	return catalog, s, nil
}

// resolvePlayableScenario is resolveScenario plus a dataset, for commands
// that run queries.
func resolvePlayableScenario(ref string) (scenarios.Scenario, *dataset.Dataset, error) {
	catalog, s, err := resolveScenario(ref)
	if err != nil {
		return s, nil, err
	}
	if !s.Available() {
		return s, nil, reported(handleErrorMsg(ErrScenarioUnavailable,
			fmt.Sprintf("scenario %q is %s", s.ID, s.Status),
			"Pick an available scenario from 'kqlified scenarios list'"))
	}

	ds, err := catalog.Dataset(s)
	if err != nil {
		return s, nil, reported(handleError(ErrDataLoadFailed, err, ""))
	}
	return s, ds, nil
}

// reported converts a handle helper's result into an error that stops the
// caller. nil means the failure was written as JSON.
func reported(err error) error {
	if err == nil {
		return errHandled
	}
	return err
}

// finish maps errHandled back to nil so JSON failures exit cleanly.
func finish(err error) error {
	if errors.Is(err, errHandled) {
		return nil
	}
	return err
}

// readQuery returns the query text from, in order: a positional argument,
// --file, or piped stdin.
func readQuery(cmd *cobra.Command, arg, file string) (string, error) {
	if strings.TrimSpace(arg) != "" && arg != "-" {
		return arg, nil
	}
	if file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return "", reported(handleError(ErrFileReadError, err, ""))
		}
		return string(content), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && arg != "-" && isatty.IsTerminal(f.Fd()) {
		return "", reported(handleErrorMsg(ErrQueryMissing, "no query given",
			"Pass the query as an argument, use --file, or pipe it on stdin"))
	}
	content, err := io.ReadAll(in)
	if err != nil {
		return "", reported(handleError(ErrFileReadError, err, ""))
	}
	return string(content), nil
}

func newGrader() *grader.Grader {
	return grader.New(
		grader.WithLogger(logger),
		grader.WithStrict(getConfig().Engine.Strict),
	)
}
