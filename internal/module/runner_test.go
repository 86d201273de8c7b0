package module

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/talon-framework/talon/internal/audit"
	"github.com/talon-framework/talon/internal/core"
	"github.com/talon-framework/talon/internal/db"
	"github.com/talon-framework/talon/internal/prompt"
	"github.com/talon-framework/talon/internal/scope"
	"github.com/talon-framework/talon/internal/session"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

func newTestRunner(t *testing.T) (*Runner, *Registry, *sql.DB) {
	t.Helper()
	dir := t.TempDir()

	runsDB, err := db.OpenRunsDB(dir)
	if err != nil {
		t.Fatalf("opening runs db: %v", err)
	}
	t.Cleanup(func() { runsDB.Close() })

	auditDB, err := db.OpenAuditDB(dir)
	if err != nil {
		t.Fatalf("opening audit db: %v", err)
	}
	t.Cleanup(func() { auditDB.Close() })

	al, err := audit.NewLogger(auditDB)
	if err != nil {
		t.Fatalf("creating audit logger: %v", err)
	}

	reg := NewRegistry(zerolog.Nop())
	return NewRunner(reg, runsDB, al, zerolog.Nop()), reg, runsDB
}

func answersFrom(values map[string]string) prompt.Asker {
	return func(s prompt.Spec) (string, error) {
		return values[s.Name], nil
	}
}

func TestRunnerExecuteSuccess(t *testing.T) {
	runner, reg, _ := newTestRunner(t)

	mod := &mockModule{
		meta: sdk.ModuleMeta{
			ID: "test.success", Version: "1.0.0",
			Options: []sdk.OptionSpec{
				{Name: "host", Kind: sdk.KindString},
				{Name: "port", Kind: sdk.KindInt, Default: 2222},
			},
		},
		result: sdk.RunResult{Outputs: map[string]any{"banner": "hello"}},
	}
	reg.Register(mod)

	run, err := runner.Execute(RunConfig{
		ModuleID: "test.success",
		Params:   session.NewParams(),
		Ask:      answersFrom(map[string]string{"host": "10.0.0.5"}),
		Operator: "tester",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if run.Status != core.RunSuccess {
		t.Errorf("status = %s, want %s", run.Status, core.RunSuccess)
	}
	if run.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
	if mod.gotCtx.Answers["host"] != "10.0.0.5" {
		t.Errorf("host answer = %v", mod.gotCtx.Answers["host"])
	}
	if mod.gotCtx.Answers["port"] != 2222 {
		t.Errorf("port answer = %v, want schema default", mod.gotCtx.Answers["port"])
	}

	fetched, err := runner.GetRun(run.UUID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if fetched.Outputs["banner"] != "hello" {
		t.Errorf("persisted outputs = %v", fetched.Outputs)
	}
}

func TestRunnerExecuteEmptyResult(t *testing.T) {
	runner, reg, _ := newTestRunner(t)

	reg.Register(&mockModule{
		meta:   sdk.ModuleMeta{ID: "test.empty"},
		result: sdk.RunResult{},
	})

	run, err := runner.Execute(RunConfig{
		ModuleID: "test.empty",
		Params:   session.NewParams(),
		Ask:      answersFrom(nil),
	})
	if err != nil {
		t.Fatalf("an exhausted run with no findings is not an error: %v", err)
	}
	if run.Status != core.RunEmpty {
		t.Errorf("status = %s, want %s", run.Status, core.RunEmpty)
	}
}

func TestRunnerModuleFailureDoesNotPropagate(t *testing.T) {
	runner, reg, _ := newTestRunner(t)

	reg.Register(&mockModule{
		meta:   sdk.ModuleMeta{ID: "test.fail"},
		result: sdk.ErrResult(errors.New("connection refused")),
	})

	run, err := runner.Execute(RunConfig{
		ModuleID: "test.fail",
		Params:   session.NewParams(),
		Ask:      answersFrom(nil),
	})
	if err != nil {
		t.Fatalf("module failure must not surface as a driver error: %v", err)
	}
	if run.Status != core.RunError {
		t.Errorf("status = %s, want %s", run.Status, core.RunError)
	}
	if run.ErrorDetail == nil || !strings.Contains(*run.ErrorDetail, "connection refused") {
		t.Errorf("ErrorDetail = %v", run.ErrorDetail)
	}
}

func TestRunnerUnknownModule(t *testing.T) {
	runner, _, _ := newTestRunner(t)

	_, err := runner.Execute(RunConfig{
		ModuleID: "no.such.module",
		Params:   session.NewParams(),
		Ask:      answersFrom(nil),
	})
	if err == nil {
		t.Fatal("expected error for unknown module")
	}
}

func TestRunnerGlobalParamOverridesDefault(t *testing.T) {
	runner, reg, _ := newTestRunner(t)

	mod := &mockModule{
		meta: sdk.ModuleMeta{
			ID: "test.params",
			Options: []sdk.OptionSpec{
				{Name: "port", Kind: sdk.KindInt, Default: 22},
			},
		},
		result: sdk.RunResult{Outputs: map[string]any{"ok": true}},
	}
	reg.Register(mod)

	params := session.NewParams()
	params.Set("port", 2022)

	if _, err := runner.Execute(RunConfig{
		ModuleID: "test.params",
		Params:   params,
		Ask:      answersFrom(nil),
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if mod.gotCtx.Answers["port"] != 2022 {
		t.Errorf("port = %v, want global param value 2022", mod.gotCtx.Answers["port"])
	}
}

func TestRunnerScopeViolation(t *testing.T) {
	runner, reg, runsDB := newTestRunner(t)

	reg.Register(&mockModule{
		meta: sdk.ModuleMeta{
			ID:      "test.scoped",
			Options: []sdk.OptionSpec{{Name: "host", Kind: sdk.KindString}},
		},
		result: sdk.RunResult{Outputs: map[string]any{"ok": true}},
	})

	runner.SetScope(scope.NewChecker(core.Scope{CIDRs: []string{"10.0.0.0/24"}}))

	_, err := runner.Execute(RunConfig{
		ModuleID: "test.scoped",
		Params:   session.NewParams(),
		Ask:      answersFrom(map[string]string{"host": "192.168.1.1"}),
	})
	if err == nil {
		t.Fatal("expected scope violation error")
	}

	var count int
	runsDB.QueryRow("SELECT COUNT(*) FROM module_runs").Scan(&count)
	if count != 0 {
		t.Errorf("out-of-scope run must not be recorded, got %d rows", count)
	}
}

func TestRunnerRedactsSecretAnswers(t *testing.T) {
	runner, reg, _ := newTestRunner(t)

	reg.Register(&mockModule{
		meta: sdk.ModuleMeta{
			ID:      "test.secret",
			Options: []sdk.OptionSpec{{Name: "password", Kind: sdk.KindSecret}},
		},
		result: sdk.RunResult{Outputs: map[string]any{"ok": true}},
	})

	run, err := runner.Execute(RunConfig{
		ModuleID: "test.secret",
		Params:   session.NewParams(),
		Ask:      answersFrom(map[string]string{"password": "hunter2"}),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	fetched, err := runner.GetRun(run.UUID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	stored, _ := fetched.Answers["password"].(string)
	if strings.Contains(stored, "hunter2") {
		t.Errorf("secret answer persisted in the clear: %q", stored)
	}
	if !strings.HasPrefix(stored, "[REDACTED") {
		t.Errorf("stored secret = %q, want redaction marker", stored)
	}
}

func TestRunnerListRunsReportsDatabaseFailure(t *testing.T) {
	runner, _, runsDB := newTestRunner(t)
	runsDB.Close()

	if _, err := runner.ListRuns("", ""); err == nil {
		t.Fatal("a failed read must surface as an error, not an empty history")
	}
}

func TestRunnerListRuns(t *testing.T) {
	runner, reg, _ := newTestRunner(t)

	reg.Register(&mockModule{
		meta:   sdk.ModuleMeta{ID: "test.list"},
		result: sdk.RunResult{Outputs: map[string]any{"n": 1}},
	})

	for i := 0; i < 3; i++ {
		if _, err := runner.Execute(RunConfig{
			ModuleID: "test.list",
			Params:   session.NewParams(),
			Ask:      answersFrom(nil),
		}); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	runs, err := runner.ListRuns("test.list", "")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}

	runs, err = runner.ListRuns("", string(core.RunError))
	if err != nil {
		t.Fatalf("ListRuns by status: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 errored runs, got %d", len(runs))
	}
}
