package model

import "time"

// RouteType is the overall production strategy a scenario follows.
type RouteType string

const (
	RouteTypePrimary   RouteType = "primary"
	RouteTypeSecondary RouteType = "secondary"
	RouteTypeHybrid    RouteType = "hybrid"
)

// RouteTypes lists every recognised route type.
var RouteTypes = []RouteType{RouteTypePrimary, RouteTypeSecondary, RouteTypeHybrid}

// ParseRouteType normalises s into a RouteType, falling back to primary on mismatch.
func ParseRouteType(s string) RouteType {
	return parseEnum(s, RouteTypes, RouteTypePrimary)
}

// IsValid reports whether r is part of the route vocabulary.
func (r RouteType) IsValid() bool {
	return contains(RouteTypes, r)
}

// ScenarioStatus represents the lifecycle state of a scenario.
type ScenarioStatus string

const (
	ScenarioStatusDraft    ScenarioStatus = "draft"
	ScenarioStatusReady    ScenarioStatus = "ready"
	ScenarioStatusComputed ScenarioStatus = "computed"
	ScenarioStatusFailed   ScenarioStatus = "failed"
)

var scenarioStatuses = []ScenarioStatus{
	ScenarioStatusDraft, ScenarioStatusReady, ScenarioStatusComputed, ScenarioStatusFailed,
}

// ParseScenarioStatus normalises s into a ScenarioStatus, defaulting to draft.
func ParseScenarioStatus(s string) ScenarioStatus {
	return parseEnum(s, scenarioStatuses, ScenarioStatusDraft)
}

// Scenario is one parameterized production-route variant under assessment.
type Scenario struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	Name        string         `json:"name"`
	RouteType   RouteType      `json:"route_type"`
	IsBaseline  bool           `json:"is_baseline"`
	Status      ScenarioStatus `json:"status"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewScenario carries the caller-supplied fields for creating a scenario.
type NewScenario struct {
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	RouteType   RouteType `json:"route_type"`
	IsBaseline  bool      `json:"is_baseline"`
	Description string    `json:"description,omitempty"`
}
