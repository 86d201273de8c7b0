// Package db provides SQLite database management for the TALON data
// directory. Two databases: talon.db (run history) and talon-audit.db
// (append-only audit log).
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	RunsDBFile  = "talon.db"
	AuditDBFile = "talon-audit.db"
)

// RunsSchema defines the run history tables.
const RunsSchema = `
PRAGMA journal_mode=WAL;

-- Module runs
CREATE TABLE IF NOT EXISTS module_runs (
    uuid            TEXT PRIMARY KEY,
    module_id       TEXT NOT NULL,
    module_version  TEXT DEFAULT '',
    answers         TEXT DEFAULT '{}',
    status          TEXT NOT NULL DEFAULT 'pending',
    started_at      TEXT NOT NULL,
    completed_at    TEXT,
    outputs         TEXT DEFAULT '{}',
    error_detail    TEXT,
    operator        TEXT NOT NULL DEFAULT 'local'
);

CREATE INDEX IF NOT EXISTS idx_runs_module ON module_runs(module_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON module_runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_started ON module_runs(started_at);
`

// AuditSchema defines the append-only audit log table.
const AuditSchema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp   TEXT NOT NULL,
    run_uuid    TEXT DEFAULT '',
    operator    TEXT NOT NULL DEFAULT 'local',
    event_type  TEXT NOT NULL,
    detail      TEXT DEFAULT '{}',
    record_hash TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_event_type ON audit_log(event_type);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_run ON audit_log(run_uuid);
`

// OpenRunsDB opens or creates the run history database in the data directory.
func OpenRunsDB(dataDir string) (*sql.DB, error) {
	dbPath := filepath.Join(dataDir, RunsDBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening runs db: %w", err)
	}

	if _, err := db.Exec(RunsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing runs schema: %w", err)
	}

	return db, nil
}

// OpenAuditDB opens or creates the append-only audit database.
func OpenAuditDB(dataDir string) (*sql.DB, error) {
	dbPath := filepath.Join(dataDir, AuditDBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}

	if _, err := db.Exec(AuditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing audit schema: %w", err)
	}

	return db, nil
}

// EnsureDataDir creates the data directory structure.
func EnsureDataDir(path string) error {
	dirs := []string{
		path,
		filepath.Join(path, "reports"),
		filepath.Join(path, "sessions"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	return nil
}
