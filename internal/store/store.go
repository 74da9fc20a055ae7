package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// ErrNotFound is returned (wrapped) by single-row getters when no row matches.
var ErrNotFound = eris.New("store: not found")

// ScenarioFilter specifies criteria for listing scenarios.
type ScenarioFilter struct {
	ProjectID string               `json:"project_id,omitempty"`
	Status    model.ScenarioStatus `json:"status,omitempty"`
	Limit     int                  `json:"limit,omitempty"`
	Offset    int                  `json:"offset,omitempty"`
}

// ScenarioRepo persists scenarios.
type ScenarioRepo interface {
	CreateScenario(ctx context.Context, in model.NewScenario) (*model.Scenario, error)
	GetScenario(ctx context.Context, id string) (*model.Scenario, error)
	ListScenarios(ctx context.Context, filter ScenarioFilter) ([]model.Scenario, error)
	UpdateScenarioStatus(ctx context.Context, id string, status model.ScenarioStatus) error
}

// StageRepo persists lifecycle stages. ListStagesByScenario returns stages in
// ascending stage_order.
type StageRepo interface {
	CreateStage(ctx context.Context, scenarioID string, def model.StageDef) (*model.LifecycleStage, error)
	GetStage(ctx context.Context, id string) (*model.LifecycleStage, error)
	ListStagesByScenario(ctx context.Context, scenarioID string) ([]model.LifecycleStage, error)
}

// ParameterRepo persists stage parameters.
type ParameterRepo interface {
	CreateParameter(ctx context.Context, in model.NewParameter) (*model.StageParameter, error)
	GetParameter(ctx context.Context, id string) (*model.StageParameter, error)
	ListParametersByStage(ctx context.Context, stageID string) ([]model.StageParameter, error)
	ListParametersByScenario(ctx context.Context, scenarioID string) ([]model.StageParameter, error)
	ListIncompleteParameters(ctx context.Context, scenarioID string) ([]model.StageParameter, error)
	UpdateParameterValue(ctx context.Context, id string, v model.ParameterValue) (*model.StageParameter, error)
	// FillParameterIfUnset writes v only while the parameter has neither a
	// numeric nor a text value, and reports whether it did.
	FillParameterIfUnset(ctx context.Context, id string, v model.ParameterValue) (bool, error)
}

// ResultRepo appends computation results. An empty runID on the list
// methods returns rows from every run.
type ResultRepo interface {
	CreateEnvironmentalResult(ctx context.Context, r model.EnvironmentalResult) (*model.EnvironmentalResult, error)
	CreateCircularityResult(ctx context.Context, r model.CircularityResult) (*model.CircularityResult, error)
	ListEnvironmentalResults(ctx context.Context, scenarioID, runID string) ([]model.EnvironmentalResult, error)
	ListCircularityResults(ctx context.Context, scenarioID, runID string) ([]model.CircularityResult, error)
}

// FlowRepo persists material flows.
type FlowRepo interface {
	RecordFlows(ctx context.Context, flows []model.MaterialFlow) (int, error)
	ListFlowsByScenario(ctx context.Context, scenarioID string) ([]model.MaterialFlow, error)
}

// RunRepo tracks computation passes.
type RunRepo interface {
	CreateRun(ctx context.Context, scenarioID string) (*model.ComputationRun, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, errMsg string) error
	LatestRun(ctx context.Context, scenarioID string, status model.RunStatus) (*model.ComputationRun, error)
}

// Store defines the persistence interface for the scenario engine.
type Store interface {
	ScenarioRepo
	StageRepo
	ParameterRepo
	ResultRepo
	FlowRepo
	RunRepo

	// WithinTx runs fn against a transaction-scoped Store. The transaction
	// commits when fn returns nil and rolls back otherwise. Calls nested
	// inside fn reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func notFound(entity, id string) error {
	return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
