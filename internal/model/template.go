package model

// StageDef is one entry of a stage template.
type StageDef struct {
	Order       int    `json:"order" yaml:"order"`
	StageType   string `json:"stage_type" yaml:"stage_type"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ParamDef is one entry of a parameter template. An empty StageType marks a
// global entry consulted when no stage-specific template matches.
type ParamDef struct {
	StageType    string        `json:"stage_type" yaml:"stage_type"`
	Name         string        `json:"name" yaml:"name"`
	Type         ParameterType `json:"type" yaml:"type"`
	Unit         string        `json:"unit,omitempty" yaml:"unit,omitempty"`
	DefaultValue *float64      `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
}
