// engine.go provides the Engine that wires together the TALON persistence
// subsystems backing a console session.
package core

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/talon-framework/talon/internal/audit"
	"github.com/talon-framework/talon/internal/db"
	"github.com/talon-framework/talon/internal/logging"
)

// Engine is the central coordinator for run history, audit logging, and
// structured logging. One engine is opened per console session.
type Engine struct {
	DataDir     string
	RunsDB      *sql.DB
	AuditDB     *sql.DB
	AuditLogger *audit.Logger
	Logger      zerolog.Logger
}

// Open prepares the data directory and opens all engine resources.
func Open(dataDir, logLevel string) (*Engine, error) {
	if err := db.EnsureDataDir(dataDir); err != nil {
		return nil, err
	}

	runsDB, err := db.OpenRunsDB(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening runs database: %w", err)
	}

	auditDB, err := db.OpenAuditDB(dataDir)
	if err != nil {
		runsDB.Close()
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	al, err := audit.NewLogger(auditDB)
	if err != nil {
		runsDB.Close()
		auditDB.Close()
		return nil, fmt.Errorf("creating audit logger: %w", err)
	}

	return &Engine{
		DataDir:     dataDir,
		RunsDB:      runsDB,
		AuditDB:     auditDB,
		AuditLogger: al,
		Logger:      logging.NewLogger(logLevel),
	}, nil
}

// Close cleanly shuts down all engine resources.
func (e *Engine) Close() error {
	var firstErr error
	if e.RunsDB != nil {
		if err := e.RunsDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.AuditDB != nil {
		if err := e.AuditDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
