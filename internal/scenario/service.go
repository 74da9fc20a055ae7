// Package scenario scaffolds scenarios from templates, gates computation on
// parameter completeness and orchestrates computation passes.
package scenario

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/lca"
	"github.com/sells-group/lca-cli/internal/lease"
	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/store"
	"github.com/sells-group/lca-cli/internal/template"
)

// Service is the entry point for scenario setup and computation. It holds no
// mutable state of its own and is safe for concurrent use.
type Service struct {
	store   store.Store
	catalog *template.Catalog
	engine  *lca.Engine
	locker  lease.Locker
}

// New wires a Service. A nil locker selects an in-process lease.
func New(st store.Store, catalog *template.Catalog, engine *lca.Engine, locker lease.Locker) *Service {
	if locker == nil {
		locker = lease.NewLocal()
	}
	return &Service{store: st, catalog: catalog, engine: engine, locker: locker}
}

// Detail is a scenario together with its stages and parameters.
type Detail struct {
	Scenario   *model.Scenario        `json:"scenario"`
	Stages     []model.LifecycleStage `json:"stages"`
	Parameters []model.StageParameter `json:"parameters"`
}

// CreateScenario persists a scenario, expands its route's stage template once
// and creates placeholder parameters for every stage. The whole setup commits
// or rolls back together.
func (s *Service) CreateScenario(ctx context.Context, in model.NewScenario) (*Detail, error) {
	if _, ok := s.catalog.StageTemplate(in.RouteType); !ok {
		return nil, eris.Wrapf(ErrTemplateNotFound, "route %q", in.RouteType)
	}

	var d Detail
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		sc, err := tx.CreateScenario(ctx, in)
		if err != nil {
			return err
		}
		d.Scenario = sc

		stages, err := s.generateStages(ctx, tx, sc.ID, sc.RouteType)
		if err != nil {
			return err
		}
		d.Stages = stages

		for i := range stages {
			params, err := s.generatePlaceholders(ctx, tx, &stages[i])
			if err != nil {
				return err
			}
			d.Parameters = append(d.Parameters, params...)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "scenario: create")
	}

	zap.L().Info("scenario: created",
		zap.String("scenario_id", d.Scenario.ID),
		zap.String("route", string(d.Scenario.RouteType)),
		zap.Int("stages", len(d.Stages)),
		zap.Int("parameters", len(d.Parameters)),
	)
	return &d, nil
}

// GenerateStagesFromTemplate creates one stage per entry of the route's stage
// template and returns them in template order. It does not check for
// existing stages: a second call creates a second set.
func (s *Service) GenerateStagesFromTemplate(ctx context.Context, scenarioID string, route model.RouteType) ([]model.LifecycleStage, error) {
	return s.generateStages(ctx, s.store, scenarioID, route)
}

func (s *Service) generateStages(ctx context.Context, st store.StageRepo, scenarioID string, route model.RouteType) ([]model.LifecycleStage, error) {
	defs, ok := s.catalog.StageTemplate(route)
	if !ok {
		return nil, eris.Wrapf(ErrTemplateNotFound, "route %q", route)
	}

	stages := make([]model.LifecycleStage, 0, len(defs))
	for _, def := range defs {
		stage, err := st.CreateStage(ctx, scenarioID, def)
		if err != nil {
			return nil, eris.Wrapf(err, "scenario: create stage %s", def.StageType)
		}
		stages = append(stages, *stage)
	}
	return stages, nil
}

// GenerateParameterPlaceholders creates an unset parameter with source
// industry_default for every parameter template of the stage's type.
// Parameters already on the stage are not consulted.
func (s *Service) GenerateParameterPlaceholders(ctx context.Context, stageID string) ([]model.StageParameter, error) {
	stage, err := s.store.GetStage(ctx, stageID)
	if eris.Is(err, store.ErrNotFound) {
		return nil, eris.Wrapf(ErrStageNotFound, "stage %s", stageID)
	}
	if err != nil {
		return nil, err
	}
	return s.generatePlaceholders(ctx, s.store, stage)
}

func (s *Service) generatePlaceholders(ctx context.Context, st store.ParameterRepo, stage *model.LifecycleStage) ([]model.StageParameter, error) {
	defs := s.catalog.ParameterTemplates(stage.StageType)
	params := make([]model.StageParameter, 0, len(defs))
	for _, def := range defs {
		p, err := st.CreateParameter(ctx, model.NewParameter{
			StageID: stage.ID,
			Name:    def.Name,
			Type:    def.Type,
			Unit:    def.Unit,
			Source:  model.SourceIndustryDefault,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "scenario: create parameter %s", def.Name)
		}
		params = append(params, *p)
	}
	return params, nil
}

// GetScenario returns the scenario with its stages and parameters.
func (s *Service) GetScenario(ctx context.Context, scenarioID string) (*Detail, error) {
	sc, err := s.scenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	stages, err := s.store.ListStagesByScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	params, err := s.store.ListParametersByScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	return &Detail{Scenario: sc, Stages: stages, Parameters: params}, nil
}

// ListScenarios returns scenarios matching filter.
func (s *Service) ListScenarios(ctx context.Context, filter store.ScenarioFilter) ([]model.Scenario, error) {
	return s.store.ListScenarios(ctx, filter)
}

func (s *Service) scenario(ctx context.Context, scenarioID string) (*model.Scenario, error) {
	sc, err := s.store.GetScenario(ctx, scenarioID)
	if eris.Is(err, store.ErrNotFound) {
		return nil, eris.Wrapf(ErrScenarioNotFound, "scenario %s", scenarioID)
	}
	return sc, err
}
