package grader

// Reason says why a submission was rejected.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonTemplate        Reason = "template"
	ReasonIncomplete      Reason = "incomplete"
	ReasonExecutionError  Reason = "execution_error"
	ReasonNoResults       Reason = "no_results"
	ReasonPatternMismatch Reason = "pattern_mismatch"
	ReasonTooFewRows      Reason = "too_few_rows"
)

// Stage is the last step a submission entered. Rejections keep the stage
// that rejected them.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageNormalizing     Stage = "normalizing"
	StageTemplateCheck   Stage = "template_check"
	StageIncompleteCheck Stage = "incomplete_check"
	StageExecuting       Stage = "executing"
	StageValidating      Stage = "validating"
	StageAccepted        Stage = "accepted"
)

// Headline texts shown above the guidance list.
const (
	msgTemplate   = "You're running the example template. You need to write an actual KQL query to detect the attack pattern."
	msgIncomplete = "Your query needs more analysis to detect the attack pattern."
	msgNoResults  = "Your query executed successfully but didn't find any attack patterns."
	msgRefine     = "Your query returned results, but "
)

var guidance = map[Reason][]string{
	ReasonTemplate: {
		"Multiple failed login attempts (ResultType != 0)",
		"Same IP address targeting many users",
		"Group by IP address and count unique users",
	},
	ReasonIncomplete: {
		"A summarize operation to group the data",
		"Count unique users per IP address",
		"Filter for suspicious thresholds",
	},
	ReasonExecutionError: {
		"Check syntax, column names, and KQL operators",
	},
	ReasonNoResults: {
		"Adjusting your filter conditions",
		"Lowering thresholds (try UniqueUsers >= 3)",
		"Checking for failed logins (ResultType != 0)",
	},
}

// Guidance returns the suggestions shown for a rejection reason.
func Guidance(r Reason) []string {
	return guidance[r]
}
