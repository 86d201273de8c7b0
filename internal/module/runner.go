package module

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talon-framework/talon/internal/audit"
	"github.com/talon-framework/talon/internal/core"
	"github.com/talon-framework/talon/internal/logging"
	"github.com/talon-framework/talon/internal/prompt"
	"github.com/talon-framework/talon/internal/scope"
	"github.com/talon-framework/talon/internal/session"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

// Runner executes modules and records their results.
type Runner struct {
	registry     *Registry
	db           *sql.DB
	audit        *audit.Logger
	logger       zerolog.Logger
	scopeChecker *scope.Checker
}

// NewRunner creates a module execution runner.
func NewRunner(reg *Registry, db *sql.DB, al *audit.Logger, logger zerolog.Logger) *Runner {
	return &Runner{
		registry: reg,
		db:       db,
		audit:    al,
		logger:   logger,
	}
}

// SetScope enables target scope enforcement on the runner. When set,
// Execute rejects runs whose resolved host falls outside the scope before
// any connection is made.
func (r *Runner) SetScope(checker *scope.Checker) {
	r.scopeChecker = checker
}

// RunConfig holds configuration for a module execution.
type RunConfig struct {
	ModuleID string
	Params   *session.Params
	Ask      prompt.Asker
	Progress sdk.Progress
	Operator string
}

// Execute resolves the module's options interactively, runs the module, and
// records the outcome. A failure inside the module marks the run record as
// errored but is not returned as an error: the caller gets the record and
// the console stays alive. The returned error is reserved for driver-level
// problems such as an unknown module, an aborted prompt, or a scope
// violation.
func (r *Runner) Execute(cfg RunConfig) (*core.RunRecord, error) {
	mod, ok := r.registry.Get(cfg.ModuleID)
	if !ok {
		return nil, fmt.Errorf("module not found: %s", cfg.ModuleID)
	}

	meta := mod.Meta()

	answers, err := prompt.Resolve(meta.Options, cfg.Params, cfg.Ask)
	if err != nil {
		return nil, fmt.Errorf("resolving options: %w", err)
	}

	runID := uuid.New().String()
	now := time.Now().UTC()

	if r.scopeChecker != nil {
		if host, ok := answers["host"].(string); ok && host != "" {
			if err := r.scopeChecker.CheckHost(host); err != nil {
				r.audit.Log(audit.EventScopeViolation, cfg.Operator, runID, map[string]string{
					"module_id": meta.ID,
					"host":      host,
					"violation": err.Error(),
				})
				return nil, fmt.Errorf("scope violation: %w", err)
			}
		}
	}

	run := &core.RunRecord{
		UUID:          runID,
		ModuleID:      meta.ID,
		ModuleVersion: meta.Version,
		Answers:       answers,
		Status:        core.RunPending,
		StartedAt:     now,
		Operator:      cfg.Operator,
	}

	if err := r.saveRun(run); err != nil {
		return nil, fmt.Errorf("saving run record: %w", err)
	}

	run.Status = core.RunRunning
	r.updateRun(run)

	r.audit.Log(audit.EventModuleRun, cfg.Operator, runID, map[string]string{
		"module_id":  meta.ID,
		"risk_class": meta.RiskClass,
		"action":     "started",
	})

	progress := cfg.Progress
	if progress == nil {
		progress = &findingLogger{logger: r.logger, runID: runID}
	}

	r.logger.Info().Str("module", meta.ID).Str("run", runID).Msg("module run started")

	result := mod.Run(sdk.RunContext{Answers: answers, RunID: runID}, progress)

	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt

	switch {
	case result.Error != nil:
		run.Status = core.RunError
		errMsg := result.Error.Error()
		run.ErrorDetail = &errMsg
		r.logger.Error().Str("module", meta.ID).Str("run", runID).
			Str("error", errMsg).Msg("module run failed")
	case len(result.Outputs) == 0:
		run.Status = core.RunEmpty
		r.logger.Info().Str("module", meta.ID).Str("run", runID).
			Msg("module run completed with no results")
	default:
		run.Status = core.RunSuccess
		run.Outputs = result.Outputs
		r.logger.Info().Str("module", meta.ID).Str("run", runID).
			Dur("elapsed", completedAt.Sub(now)).Msg("module run completed")
	}

	r.updateRun(run)

	r.audit.Log(audit.EventModuleRun, cfg.Operator, runID, map[string]string{
		"module_id": meta.ID,
		"action":    "completed",
		"status":    string(run.Status),
	})

	return run, nil
}

// ListRuns returns recorded runs, optionally filtered by module and status.
func (r *Runner) ListRuns(moduleFilter, statusFilter string) ([]core.RunRecord, error) {
	query := `SELECT uuid, module_id, module_version, answers, status,
	           started_at, completed_at, outputs, error_detail, operator
	           FROM module_runs WHERE 1=1`
	var args []any

	if moduleFilter != "" {
		query += " AND module_id = ?"
		args = append(args, moduleFilter)
	}
	if statusFilter != "" {
		query += " AND status = ?"
		args = append(args, statusFilter)
	}
	query += " ORDER BY started_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetRun returns a single run by UUID.
func (r *Runner) GetRun(runUUID string) (*core.RunRecord, error) {
	rows, err := r.db.Query(
		`SELECT uuid, module_id, module_version, answers, status,
		 started_at, completed_at, outputs, error_detail, operator
		 FROM module_runs WHERE uuid = ?`,
		runUUID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run not found: %s", runUUID)
	}
	return &runs[0], nil
}

func (r *Runner) saveRun(run *core.RunRecord) error {
	answersJSON, _ := json.Marshal(redactAnswers(run.Answers))
	outputsJSON, _ := json.Marshal(run.Outputs)

	_, err := r.db.Exec(
		`INSERT INTO module_runs (uuid, module_id, module_version, answers, status,
		 started_at, completed_at, outputs, error_detail, operator)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.UUID, run.ModuleID, run.ModuleVersion,
		string(answersJSON), string(run.Status),
		run.StartedAt.Format(time.RFC3339), nil,
		string(outputsJSON), nil, run.Operator,
	)
	return err
}

func (r *Runner) updateRun(run *core.RunRecord) {
	outputsJSON, _ := json.Marshal(run.Outputs)

	var completedStr *string
	if run.CompletedAt != nil {
		s := run.CompletedAt.Format(time.RFC3339)
		completedStr = &s
	}

	r.db.Exec(
		`UPDATE module_runs SET status = ?, completed_at = ?, outputs = ?, error_detail = ?
		 WHERE uuid = ?`,
		string(run.Status), completedStr, string(outputsJSON), run.ErrorDetail, run.UUID,
	)
}

func scanRuns(rows *sql.Rows) ([]core.RunRecord, error) {
	var runs []core.RunRecord
	for rows.Next() {
		var run core.RunRecord
		var answersJSON, outputsJSON, startedAt string
		var completedAt, errorDetail sql.NullString

		err := rows.Scan(
			&run.UUID, &run.ModuleID, &run.ModuleVersion,
			&answersJSON, &run.Status, &startedAt, &completedAt,
			&outputsJSON, &errorDetail, &run.Operator,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			run.CompletedAt = &t
		}
		if errorDetail.Valid {
			run.ErrorDetail = &errorDetail.String
		}
		json.Unmarshal([]byte(answersJSON), &run.Answers)
		json.Unmarshal([]byte(outputsJSON), &run.Outputs)

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// redactAnswers replaces secret-looking answer values before persistence so
// credential material never lands in the run history database.
func redactAnswers(answers map[string]any) map[string]any {
	out := make(map[string]any, len(answers))
	for k, v := range answers {
		if logging.IsSecretField(k) {
			out[k] = logging.RedactValue(fmt.Sprint(v))
			continue
		}
		out[k] = v
	}
	return out
}

type findingLogger struct {
	logger zerolog.Logger
	runID  string
}

func (f *findingLogger) Finding(fd sdk.Finding) {
	f.logger.Debug().Str("run", f.runID).Bool("valid", fd.Valid).Msg("module finding")
}
