package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// IndicatorType names an environmental indicator.
type IndicatorType string

const (
	IndicatorGWP    IndicatorType = "gwp"
	IndicatorEnergy IndicatorType = "energy"
)

// ParseIndicatorType validates s against the indicators the engine produces.
func ParseIndicatorType(s string) (IndicatorType, error) {
	switch v := IndicatorType(s); v {
	case IndicatorGWP, IndicatorEnergy:
		return v, nil
	}
	return "", eris.Errorf("model: unknown indicator type %q", s)
}

// MetricType names a circularity metric.
type MetricType string

const (
	MetricRecycledContent MetricType = "recycled_content"
	MetricEfficiencyIndex MetricType = "efficiency_index"
	MetricRecoveryRate    MetricType = "recovery_rate"
	MetricLossRate        MetricType = "loss_rate"
	MetricLoopClosure     MetricType = "loop_closure"
)

// ParseMetricType validates s against the circularity metric vocabulary.
func ParseMetricType(s string) (MetricType, error) {
	switch v := MetricType(s); v {
	case MetricRecycledContent, MetricEfficiencyIndex, MetricRecoveryRate, MetricLossRate, MetricLoopClosure:
		return v, nil
	}
	return "", eris.Errorf("model: unknown metric type %q", s)
}

// Units used for persisted results.
const (
	UnitKgCO2e  = "kg CO2e"
	UnitKWh     = "kWh"
	UnitPercent = "%"
)

// EnvironmentalResult is an append-only environmental indicator value.
// StageID is empty for scenario-level aggregates.
type EnvironmentalResult struct {
	ID                string        `json:"id"`
	ScenarioID        string        `json:"scenario_id"`
	StageID           string        `json:"stage_id,omitempty"`
	RunID             string        `json:"run_id,omitempty"`
	IndicatorType     IndicatorType `json:"indicator_type"`
	Value             float64       `json:"value"`
	Unit              string        `json:"unit"`
	CalculationMethod string        `json:"calculation_method"`
	CreatedAt         time.Time     `json:"created_at"`
}

// CircularityResult is an append-only circularity metric value.
type CircularityResult struct {
	ID                string         `json:"id"`
	ScenarioID        string         `json:"scenario_id"`
	RunID             string         `json:"run_id,omitempty"`
	MetricType        MetricType     `json:"metric_type"`
	Value             float64        `json:"value"`
	Unit              string         `json:"unit"`
	CalculationMethod string         `json:"calculation_method"`
	Details           map[string]any `json:"details,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Results groups both result sets of a computation pass.
type Results struct {
	RunID         string                `json:"run_id,omitempty"`
	Environmental []EnvironmentalResult `json:"environmental"`
	Circularity   []CircularityResult   `json:"circularity"`
}
