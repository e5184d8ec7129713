// Package grader judges a learner's query against a scenario: it rejects
// starter templates and under-developed queries, runs the query, and checks
// the result rows for the expected detection.
package grader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/realnamesareboring/KQLified/internal/dataset"
	"github.com/realnamesareboring/KQLified/internal/query"
)

// Submission is one graded query run.
type Submission struct {
	ScenarioID   string
	Query        string
	Dataset      *dataset.Dataset
	Expectations Expectations

	// Gate overrides DefaultGate when set.
	Gate *Gate

	// Columns overrides the summarize source columns when set.
	Columns *query.ColumnMap
}

// Verdict is the judgment on a submission.
type Verdict struct {
	Valid        bool               `json:"valid"`
	Message      string             `json:"message"`
	Results      []dataset.Row      `json:"results,omitempty"`
	Reason       Reason             `json:"reason,omitempty"`
	Stage        Stage              `json:"stage"`
	Check        string             `json:"check,omitempty"`
	Columns      []string           `json:"columns,omitempty"`
	Diagnostics  []query.Diagnostic `json:"diagnostics,omitempty"`
	Guidance     []string           `json:"guidance,omitempty"`
	Missing      []string           `json:"missing,omitempty"`
	SubmissionID string             `json:"submission_id"`
	Elapsed      time.Duration      `json:"-"`
	ElapsedMS    int64              `json:"elapsed_ms"`
}

// Grader runs submissions. It is safe for concurrent use as long as the
// registry is not mutated meanwhile.
type Grader struct {
	registry *Registry
	logger   *slog.Logger
	strict   bool
	now      func() time.Time
}

// Option configures a Grader.
type Option func(*Grader)

// WithRegistry replaces the built-in check registry.
func WithRegistry(r *Registry) Option {
	return func(g *Grader) {
		if r != nil {
			g.registry = r
		}
	}
}

// WithLogger sets the logger passed down to the query engine.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Grader) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithStrict fails queries that produce engine diagnostics.
func WithStrict(strict bool) Option {
	return func(g *Grader) {
		g.strict = strict
	}
}

// New creates a Grader.
func New(opts ...Option) *Grader {
	g := &Grader{
		registry: NewRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry returns the check registry.
func (g *Grader) Registry() *Registry {
	return g.registry
}

// Submit grades one submission. Rejections are reported in the Verdict,
// never as errors.
func (g *Grader) Submit(ctx context.Context, sub Submission) Verdict {
	start := g.now()
	v := Verdict{SubmissionID: uuid.NewString(), Stage: StageIdle}
	logger := g.logger.With("submission", v.SubmissionID, "scenario", sub.ScenarioID)

	finish := func(v Verdict) Verdict {
		v.Elapsed = g.now().Sub(start)
		v.ElapsedMS = v.Elapsed.Milliseconds()
		logger.Debug("submission graded", "valid", v.Valid, "reason", string(v.Reason), "stage", string(v.Stage))
		return v
	}
	reject := func(v Verdict, reason Reason, message string) Verdict {
		v.Valid = false
		v.Reason = reason
		v.Message = message
		v.Guidance = Guidance(reason)
		return finish(v)
	}

	v.Stage = StageNormalizing
	empty := query.Normalize(sub.Query) == ""

	v.Stage = StageTemplateCheck
	if IsTemplate(sub.Query) {
		return reject(v, ReasonTemplate, msgTemplate)
	}

	v.Stage = StageIncompleteCheck
	gate := DefaultGate()
	if sub.Gate != nil {
		gate = *sub.Gate
	}
	missing := gate.Missing(sub.Query)
	if empty {
		missing = append([]string{"a query"}, missing...)
	}
	if len(missing) > 0 {
		v.Missing = missing
		return reject(v, ReasonIncomplete, msgIncomplete)
	}

	v.Stage = StageExecuting
	opts := []query.Option{query.WithLogger(logger), query.WithStrict(g.strict)}
	if sub.Columns != nil {
		opts = append(opts, query.WithColumns(*sub.Columns))
	}
	res := query.Execute(ctx, sub.Query, sub.Dataset, opts...)
	v.Columns = res.Columns
	v.Diagnostics = res.Diagnostics
	if !res.Success {
		return reject(v, ReasonExecutionError, "Query execution failed: "+res.Error)
	}
	if len(res.Data) == 0 {
		return reject(v, ReasonNoResults, msgNoResults)
	}

	v.Stage = StageValidating
	check, err := g.registry.Resolve(sub.ScenarioID, sub.Expectations)
	if err != nil {
		logger.Error("resolve check", "error", err)
		return reject(v, ReasonExecutionError, fmt.Sprintf("Scenario check unavailable: %v", err))
	}
	v.Check = check.Name()
	v.Results = res.Data

	outcome := check.Check(res.Data)
	if !outcome.Passed {
		return reject(v, ReasonPatternMismatch, msgRefine+outcome.Message)
	}

	if minRows := sub.Expectations.MinRows; len(res.Data) < minRows {
		return reject(v, ReasonTooFewRows, fmt.Sprintf("Expected at least %d results, got %d", minRows, len(res.Data)))
	}

	v.Stage = StageAccepted
	v.Valid = true
	v.Message = outcome.Message
	return finish(v)
}
