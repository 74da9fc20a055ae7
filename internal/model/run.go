package model

import "time"

// RunStatus represents the state of a computation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// ComputationRun is one computation pass over a scenario. Result rows written
// by the pass carry its ID, so repeated passes never overwrite each other.
type ComputationRun struct {
	ID         string     `json:"id"`
	ScenarioID string     `json:"scenario_id"`
	Status     RunStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
