// Package core defines the foundational types shared by the TALON console:
// run records, target scope, and the engine wiring persistence together.
package core

import (
	"time"
)

// RunStatus tracks a module run's lifecycle.
type RunStatus string

const (
	RunPending RunStatus = "pending"
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
	// RunEmpty is the explicit marker for a run that completed without
	// findings. It is a successful terminal state, never an error.
	RunEmpty RunStatus = "empty"
)

// RunRecord records a single execution of a module.
type RunRecord struct {
	UUID          string         `json:"uuid"`
	ModuleID      string         `json:"module_id"`
	ModuleVersion string         `json:"module_version"`
	Answers       map[string]any `json:"answers,omitempty"`
	Status        RunStatus      `json:"status"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	Outputs       map[string]any `json:"outputs,omitempty"`
	ErrorDetail   *string        `json:"error_detail,omitempty"`
	Operator      string         `json:"operator"`
}

// Scope declares the authorized targets for a console session. An empty
// scope allows everything; a populated scope blocks modules from running
// against hosts outside it.
type Scope struct {
	Hosts []string `json:"hosts,omitempty"` // exact hostnames or IPs
	CIDRs []string `json:"cidrs,omitempty"` // IP ranges
}
