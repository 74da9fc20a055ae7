package model

import "time"

// Stage types form the controlled vocabulary for LifecycleStage.StageType.
const (
	StageOreExtraction   = "ore_extraction"
	StageBeneficiation   = "beneficiation"
	StageSmelting        = "smelting"
	StageRefining        = "refining"
	StageCasting         = "casting"
	StageFabrication     = "fabrication"
	StageUse             = "use"
	StageScrapCollection = "scrap_collection"
	StageScrapSorting    = "scrap_sorting"
	StageRemelting       = "remelting"
	StageEndOfLife       = "eol"
)

// LifecycleStage is one ordered step of a scenario's production route.
type LifecycleStage struct {
	ID          string    `json:"id"`
	ScenarioID  string    `json:"scenario_id"`
	StageOrder  int       `json:"stage_order"`
	StageType   string    `json:"stage_type"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
