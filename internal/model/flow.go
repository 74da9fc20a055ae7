package model

import "time"

// MaterialFlow records a quantity of material moving between two stages.
// An empty FromStageID or ToStageID means the flow enters or leaves the scenario.
type MaterialFlow struct {
	ID           string    `json:"id" yaml:"-"`
	ScenarioID   string    `json:"scenario_id" yaml:"-"`
	FromStageID  string    `json:"from_stage_id,omitempty" yaml:"from_stage_id"`
	ToStageID    string    `json:"to_stage_id,omitempty" yaml:"to_stage_id"`
	MaterialType string    `json:"material_type" yaml:"material_type"`
	Quantity     float64   `json:"quantity" yaml:"quantity"`
	Unit         string    `json:"unit" yaml:"unit"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}
