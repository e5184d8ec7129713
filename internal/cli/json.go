package cli

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/realnamesareboring/KQLified/internal/query"
)

// jsonOutput is bound to the persistent --json flag.
var jsonOutput bool

// Response is the envelope every --json command writes to stdout.
type Response struct {
	OK       bool        `json:"ok"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Warning carries a query diagnostic that did not stop evaluation.
type Warning struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Clause     string `json:"clause,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

type Meta struct {
	Count       int   `json:"count,omitempty"`
	QueryTimeMs int64 `json:"query_time_ms,omitempty"`
}

func warningsFromDiagnostics(diags []query.Diagnostic) []Warning {
	var out []Warning
	for _, d := range diags {
		out = append(out, Warning{
			Code:       d.Code,
			Message:    d.Message,
			Clause:     d.Clause,
			Suggestion: d.Suggestion,
		})
	}
	return out
}

func isJSONOutput() bool {
	return jsonOutput
}

func writeEnvelope(resp Response) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

func outputSuccess(data interface{}, meta *Meta) {
	outputSuccessWithWarnings(data, nil, meta)
}

func outputSuccessWithWarnings(data interface{}, warnings []Warning, meta *Meta) {
	writeEnvelope(Response{OK: true, Data: data, Warnings: warnings, Meta: meta})
}

// fail reports a failure in the active output mode. In JSON mode the error
// envelope is written and nil is returned so cobra stays quiet; in text mode
// the returned error carries the suggestion on a separate paragraph.
func fail(code string, err error, details interface{}, suggestion string) error {
	if jsonOutput {
		writeEnvelope(Response{Error: &ErrorInfo{
			Code:       code,
			Message:    err.Error(),
			Details:    details,
			Suggestion: suggestion,
		}})
		return nil
	}
	if suggestion == "" {
		return err
	}
	return &suggestedError{err: err, suggestion: suggestion}
}

func handleError(code string, err error, suggestion string) error {
	return fail(code, err, nil, suggestion)
}

func handleErrorMsg(code, message, suggestion string) error {
	return fail(code, errors.New(message), nil, suggestion)
}

// handleErrorWithDetails attaches structured details to the JSON error. Text
// mode prints only the message; callers render details themselves.
func handleErrorWithDetails(code, message, suggestion string, details interface{}) error {
	if !jsonOutput {
		return errors.New(message)
	}
	return fail(code, errors.New(message), details, suggestion)
}

type suggestedError struct {
	err        error
	suggestion string
}

func (e *suggestedError) Error() string {
	return e.err.Error() + "\n\n" + e.suggestion
}

func (e *suggestedError) Unwrap() error {
	return e.err
}
