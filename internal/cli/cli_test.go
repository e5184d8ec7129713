package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/realnamesareboring/KQLified/internal/config"
	"github.com/realnamesareboring/KQLified/internal/scenarios"
)

var captureStdoutMu sync.Mutex

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}

	os.Stdout = w

	outputCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		_, copyErr := io.Copy(&buf, r)
		_ = r.Close()
		if copyErr != nil {
			errCh <- copyErr
			return
		}
		outputCh <- buf.String()
	}()

	fn()

	os.Stdout = orig
	_ = w.Close()
	select {
	case err := <-errCh:
		t.Fatalf("io.Copy: %v", err)
		return ""
	case output := <-outputCh:
		return output
	}
}

type envelope struct {
	OK       bool            `json:"ok"`
	Data     json.RawMessage `json:"data"`
	Error    *ErrorInfo      `json:"error"`
	Warnings []Warning       `json:"warnings"`
	Meta     *Meta           `json:"meta"`
}

func decodeEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("expected JSON output, got parse error: %v; out=%s", err, out)
	}
	return env
}

// withJSON turns on JSON output and restores every package-level flag
// afterwards.
func withJSON(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		jsonOutput = false
		configPath = ""
		cfg = nil
		runFile, runWatch = "", false
		execScenario, execData, execFile, execStages = "", "", "", false
		templateOut, hintLevel = "", 1
	})
	jsonOutput = true
}

func runJSON(t *testing.T, cmd *cobra.Command, args ...string) envelope {
	t.Helper()
	out := captureStdout(t, func() {
		if err := cmd.RunE(cmd, args); err != nil {
			t.Fatalf("%s: %v", cmd.Name(), err)
		}
	})
	return decodeEnvelope(t, out)
}

func TestScenariosListJSON(t *testing.T) {
	withJSON(t)

	env := runJSON(t, scenariosListCmd)
	if !env.OK {
		t.Fatalf("expected ok; error=%+v", env.Error)
	}
	if env.Meta == nil || env.Meta.Count != 3 {
		t.Fatalf("expected meta.count 3, got %+v", env.Meta)
	}

	var data struct {
		Platforms []platformView `json:"platforms"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Platforms) != 2 || data.Platforms[0].ID != "azure" {
		t.Fatalf("unexpected platforms: %+v", data.Platforms)
	}
	if got := data.Platforms[0].Scenarios[0].ID; got != "password-spray" {
		t.Fatalf("first scenario = %q, want password-spray", got)
	}
}

func TestScenariosShowUnknownJSON(t *testing.T) {
	withJSON(t)

	env := runJSON(t, scenariosShowCmd, "spray attack drill")
	if env.OK || env.Error == nil {
		t.Fatalf("expected error envelope, got %+v", env)
	}
	if env.Error.Code != ErrScenarioNotFound {
		t.Fatalf("code = %q, want %q", env.Error.Code, ErrScenarioNotFound)
	}
	if !strings.Contains(env.Error.Suggestion, "password-spray") {
		t.Fatalf("expected suggestion to name password-spray, got %q", env.Error.Suggestion)
	}
}

func TestRunAcceptsReferenceSolution(t *testing.T) {
	withJSON(t)

	catalog, err := scenarios.Load()
	if err != nil {
		t.Fatalf("scenarios.Load: %v", err)
	}
	s, err := catalog.Lookup("password-spray")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	env := runJSON(t, runCmd, s.ID, s.Solution)
	if !env.OK {
		t.Fatalf("expected ok; error=%+v", env.Error)
	}

	var v struct {
		Valid   bool   `json:"valid"`
		Stage   string `json:"stage"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	if !v.Valid || v.Stage != "accepted" {
		t.Fatalf("expected accepted verdict, got %+v", v)
	}
	if env.Meta == nil || env.Meta.Count == 0 {
		t.Fatalf("expected result count in meta, got %+v", env.Meta)
	}
}

func TestRunRejectsTemplateWithoutFailing(t *testing.T) {
	withJSON(t)

	catalog, err := scenarios.Load()
	if err != nil {
		t.Fatalf("scenarios.Load: %v", err)
	}
	s, err := catalog.Lookup("brute-force")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	path := filepath.Join(t.TempDir(), "attempt.kql")
	if err := os.WriteFile(path, []byte(scenarios.StarterTemplate(s)), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	runFile = path

	env := runJSON(t, runCmd, "brute-force")
	if !env.OK {
		t.Fatalf("a rejected verdict is not a command error; got %+v", env.Error)
	}

	var v struct {
		Valid    bool     `json:"valid"`
		Reason   string   `json:"reason"`
		Guidance []string `json:"guidance"`
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	if v.Valid || v.Reason != "template" || len(v.Guidance) == 0 {
		t.Fatalf("expected template rejection with guidance, got %+v", v)
	}
}

func TestRunWatchRequiresFile(t *testing.T) {
	withJSON(t)
	runWatch = true

	env := runJSON(t, runCmd, "password-spray")
	if env.OK || env.Error.Code != ErrMissingArgument {
		t.Fatalf("expected %s, got %+v", ErrMissingArgument, env.Error)
	}
}

func TestExecReadsQueryFromStdin(t *testing.T) {
	withJSON(t)
	execScenario = "password-spray"
	execStages = true
	execCmd.SetIn(strings.NewReader("SigninLogs\n| where ResultType != 0\n| take 3\n"))
	t.Cleanup(func() { execCmd.SetIn(nil) })

	env := runJSON(t, execCmd)
	if !env.OK {
		t.Fatalf("expected ok; error=%+v", env.Error)
	}

	var data struct {
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
		Stages  []map[string]any `json:"stages"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(data.Rows))
	}
	if len(data.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(data.Stages))
	}
	for _, row := range data.Rows {
		if row["ResultType"] == float64(0) {
			t.Fatalf("expected only failed sign-ins, got %v", row)
		}
	}
}

func TestExecOverDataFile(t *testing.T) {
	withJSON(t)

	path := filepath.Join(t.TempDir(), "signins.csv")
	csv := "IPAddress,ResultType\n203.0.113.5,50126\n10.0.0.1,0\n203.0.113.5,50126\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	execData = path

	env := runJSON(t, execCmd, "signins | where ResultType != 0 | summarize FailedAttempts = count() by IPAddress")
	if !env.OK {
		t.Fatalf("expected ok; error=%+v", env.Error)
	}
	if env.Meta == nil || env.Meta.Count != 1 {
		t.Fatalf("expected one grouped row, got %+v", env.Meta)
	}
}

func TestExecRequiresExactlyOneSource(t *testing.T) {
	withJSON(t)

	env := runJSON(t, execCmd, "SigninLogs | take 1")
	if env.OK || env.Error.Code != ErrMissingArgument {
		t.Fatalf("expected %s, got %+v", ErrMissingArgument, env.Error)
	}
}

func TestExecRejectsUnknownFormat(t *testing.T) {
	withJSON(t)
	execData = filepath.Join(t.TempDir(), "logs.json")

	env := runJSON(t, execCmd, "logs | take 1")
	if env.OK || env.Error.Code != ErrDataLoadFailed {
		t.Fatalf("expected %s, got %+v", ErrDataLoadFailed, env.Error)
	}
	if env.Error.Suggestion == "" {
		t.Fatal("expected a suggestion naming supported formats")
	}
}

func TestTemplateWritesNewFileOnly(t *testing.T) {
	withJSON(t)
	templateOut = filepath.Join(t.TempDir(), "spray.kql")

	env := runJSON(t, templateCmd, "password-spray")
	if !env.OK {
		t.Fatalf("expected ok; error=%+v", env.Error)
	}
	content, err := os.ReadFile(templateOut)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if !strings.HasPrefix(string(content), "//") {
		t.Fatalf("expected a commented template, got %q", content)
	}

	env = runJSON(t, templateCmd, "password-spray")
	if env.OK || env.Error.Code != ErrFileExists {
		t.Fatalf("expected %s on second write, got %+v", ErrFileExists, env.Error)
	}
}

func TestHintLevels(t *testing.T) {
	withJSON(t)
	hintLevel = 2

	env := runJSON(t, hintCmd, "password-spray")
	if !env.OK {
		t.Fatalf("expected ok; error=%+v", env.Error)
	}

	var data struct {
		Level     int               `json:"level"`
		Available int               `json:"available"`
		Hints     []scenarios.Entry `json:"hints"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Level != 2 || data.Available != 3 || len(data.Hints) != 2 {
		t.Fatalf("unexpected hint data: %+v", data)
	}

	hintLevel = 0
	env = runJSON(t, hintCmd, "password-spray")
	if env.OK || env.Error.Code != ErrInvalidInput {
		t.Fatalf("expected %s for level 0, got %+v", ErrInvalidInput, env.Error)
	}
}

func TestSQLAndProfile(t *testing.T) {
	withJSON(t)

	env := runJSON(t, sqlCmd, "password-spray", "SELECT COUNT(*) AS n FROM SigninLogs")
	if !env.OK {
		t.Fatalf("expected ok; error=%+v", env.Error)
	}
	var data struct {
		Rows []map[string]any `json:"rows"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode sql data: %v", err)
	}
	if len(data.Rows) != 1 || data.Rows[0]["n"] != float64(39) {
		t.Fatalf("expected one row with n=39, got %+v", data.Rows)
	}

	env = runJSON(t, sqlCmd, "password-spray", "SELECT * FROM nope")
	if env.OK || env.Error.Code != ErrSQLFailed {
		t.Fatalf("expected %s, got %+v", ErrSQLFailed, env.Error)
	}

	env = runJSON(t, profileCmd, "password-spray")
	if !env.OK {
		t.Fatalf("expected ok; error=%+v", env.Error)
	}
	var p struct {
		Rows     int    `json:"rows"`
		Status   string `json:"status_column"`
		Failures int    `json:"failures"`
	}
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if p.Rows != 39 || p.Status != "ResultType" || p.Failures == 0 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestConfigSetInitAndShow(t *testing.T) {
	withJSON(t)
	configPath = filepath.Join(t.TempDir(), "kqlified", "config.toml")

	env := runJSON(t, configShowCmd)
	if !env.OK {
		t.Fatalf("expected ok; error=%+v", env.Error)
	}
	var shown struct {
		Exists bool `json:"exists"`
	}
	if err := json.Unmarshal(env.Data, &shown); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if shown.Exists {
		t.Fatal("expected missing config before set")
	}

	env = runJSON(t, configSetCmd, "engine.max_rows", "50")
	if !env.OK {
		t.Fatalf("expected ok; error=%+v", env.Error)
	}
	loaded, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Engine.MaxRows != 50 {
		t.Fatalf("MaxRows = %d, want 50", loaded.Engine.MaxRows)
	}

	env = runJSON(t, configGetCmd, "engine.max_rows")
	var got struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if got.Value != "50" {
		t.Fatalf("config get engine.max_rows = %q, want 50", got.Value)
	}

	env = runJSON(t, configSetCmd, "engine.turbo", "true")
	if env.OK || env.Error.Code != ErrInvalidInput {
		t.Fatalf("expected %s for unknown key, got %+v", ErrInvalidInput, env.Error)
	}

	env = runJSON(t, configInitCmd)
	var initData struct {
		Created bool `json:"created"`
	}
	if err := json.Unmarshal(env.Data, &initData); err != nil {
		t.Fatalf("decode init: %v", err)
	}
	if initData.Created {
		t.Fatal("init must not replace an existing config")
	}
}

func TestVersionJSON(t *testing.T) {
	withJSON(t)

	env := runJSON(t, versionCmd)
	var info struct {
		Version    string `json:"version"`
		ModulePath string `json:"module_path"`
	}
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if !env.OK || info.Version == "" || info.ModulePath == "" {
		t.Fatalf("unexpected version output: %+v", info)
	}
}

func TestEveryFlagHasUsage(t *testing.T) {
	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		cmd.LocalFlags().VisitAll(func(flag *pflag.Flag) {
			if strings.TrimSpace(flag.Usage) == "" {
				t.Errorf("%s --%s has no usage text", cmd.CommandPath(), flag.Name)
			}
		})
		if cmd.Short == "" {
			t.Errorf("%s has no short description", cmd.CommandPath())
		}
		for _, sub := range cmd.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}
