package model

import (
	"strconv"
	"time"
)

// ParameterType describes how a parameter value is interpreted.
type ParameterType string

const (
	ParameterTypeNumeric ParameterType = "numeric"
	ParameterTypeText    ParameterType = "text"
	ParameterTypeScore   ParameterType = "score"
	ParameterTypeChoice  ParameterType = "choice"
)

var parameterTypes = []ParameterType{
	ParameterTypeNumeric, ParameterTypeText, ParameterTypeScore, ParameterTypeChoice,
}

// ParseParameterType normalises s, defaulting to numeric on mismatch.
func ParseParameterType(s string) ParameterType {
	return parseEnum(s, parameterTypes, ParameterTypeNumeric)
}

// IsNumeric reports whether values of this type live in the numeric column.
func (t ParameterType) IsNumeric() bool {
	return t == ParameterTypeNumeric || t == ParameterTypeScore
}

// ParameterSource records who supplied a parameter value.
type ParameterSource string

const (
	SourceManual          ParameterSource = "manual"
	SourceAIPrediction    ParameterSource = "ai_prediction"
	SourceIndustryDefault ParameterSource = "industry_default"
)

var parameterSources = []ParameterSource{SourceManual, SourceAIPrediction, SourceIndustryDefault}

// ParseParameterSource normalises s, defaulting to manual on mismatch.
func ParseParameterSource(s string) ParameterSource {
	return parseEnum(s, parameterSources, SourceManual)
}

// Well-known parameter names read by the computation engine.
const (
	ParamEnergyConsumption = "energy_consumption"
	ParamEmissionFactor    = "emission_factor"
	ParamRecycledContent   = "recycled_content_percentage"
	ParamMaterialYield     = "material_yield"
	ParamRecyclingRate     = "recycling_rate"
	ParamScrapRate         = "scrap_rate"
)

// AIProvenance describes the model that predicted a parameter value.
type AIProvenance struct {
	ModelName    string  `json:"model_name,omitempty"`
	ModelVersion string  `json:"model_version,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
}

// StageParameter is a single named input attached to a lifecycle stage.
// A parameter with neither Value nor TextValue set is incomplete.
type StageParameter struct {
	ID        string          `json:"id"`
	StageID   string          `json:"stage_id"`
	Name      string          `json:"name"`
	Type      ParameterType   `json:"type"`
	Unit      string          `json:"unit,omitempty"`
	Value     *float64        `json:"value"`
	TextValue *string         `json:"text_value,omitempty"`
	Source    ParameterSource `json:"source"`
	AI        *AIProvenance   `json:"ai,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsComplete reports whether the parameter holds a value.
func (p StageParameter) IsComplete() bool {
	return p.Value != nil || p.TextValue != nil
}

// Numeric returns the parameter as a float. Text values that parse as numbers
// are accepted so that free-form entries still feed the formulas.
func (p StageParameter) Numeric() (float64, bool) {
	if p.Value != nil {
		return *p.Value, true
	}
	if p.TextValue != nil {
		if f, err := strconv.ParseFloat(*p.TextValue, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// NewParameter carries the fields needed to create a parameter record.
type NewParameter struct {
	StageID string
	Name    string
	Type    ParameterType
	Unit    string
	Source  ParameterSource
}

// ParameterValue is an update applied to an existing parameter.
type ParameterValue struct {
	Value     *float64        `json:"value,omitempty"`
	TextValue *string         `json:"text_value,omitempty"`
	Source    ParameterSource `json:"source"`
	AI        *AIProvenance   `json:"ai,omitempty"`
}

// Float returns a pointer to v, for building ParameterValue literals.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
