// Package runs implements the analysis run domain for gaslens. It provides
// types, data access, and business logic for launching workflow runs,
// persisting their results, and serving archived reports.
package runs

import (
	"time"

	"github.com/google/uuid"

	"github.com/gaslens/gaslens/analysis"
)

// Status tracks a run through its lifecycle.
type Status string

const (
	StatusRunning    Status = "running"
	StatusComplete   Status = "complete"
	StatusTerminated Status = "terminated"
)

// Terminal reports whether the run has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusTerminated
}

// Run represents a stored analysis run. It mirrors the runs table schema;
// State holds the full workflow state including every report and the stage
// log, and is populated once the run reaches a terminal status.
type Run struct {
	ID         uuid.UUID          `json:"id"`
	Chains     []string           `json:"chains"`
	Timeframe  analysis.Timeframe `json:"timeframe"`
	Status     Status             `json:"status"`
	State      *analysis.State    `json:"state,omitempty"`
	Failure    *Failure           `json:"failure,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

// Failure describes why a run terminated without completing.
type Failure struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ExecuteCommand carries the parameters for launching a run.
type ExecuteCommand struct {
	Chains    []string `json:"chains"`
	Timeframe string   `json:"timeframe"`
}

// ReportKey returns the storage key for a run's archived report.
func ReportKey(id uuid.UUID) string {
	return "runs/" + id.String() + "/report.json"
}
