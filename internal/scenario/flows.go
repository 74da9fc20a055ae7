package scenario

import (
	"context"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/model"
)

// RecordMaterialFlows validates and appends a batch of material flows to a
// scenario. Both stage references must belong to the scenario when set, and
// the whole batch is rejected if any flow is invalid.
func (s *Service) RecordMaterialFlows(ctx context.Context, scenarioID string, flows []model.MaterialFlow) (int, error) {
	if _, err := s.scenario(ctx, scenarioID); err != nil {
		return 0, err
	}
	if len(flows) == 0 {
		return 0, nil
	}

	stages, err := s.store.ListStagesByScenario(ctx, scenarioID)
	if err != nil {
		return 0, err
	}
	owned := make(map[string]bool, len(stages))
	for _, st := range stages {
		owned[st.ID] = true
	}

	batch := make([]model.MaterialFlow, len(flows))
	for i, f := range flows {
		f.ScenarioID = scenarioID
		f.MaterialType = strings.TrimSpace(f.MaterialType)
		if f.MaterialType == "" {
			return 0, eris.Wrapf(ErrInvalidValue, "flow %d: material_type is required", i)
		}
		if f.Quantity < 0 || math.IsNaN(f.Quantity) || math.IsInf(f.Quantity, 0) {
			return 0, eris.Wrapf(ErrInvalidValue, "flow %d: quantity must be a non-negative number", i)
		}
		for _, id := range []string{f.FromStageID, f.ToStageID} {
			if id != "" && !owned[id] {
				return 0, eris.Wrapf(ErrStageNotFound, "flow %d: stage %s is not part of scenario %s", i, id, scenarioID)
			}
		}
		batch[i] = f
	}

	n, err := s.store.RecordFlows(ctx, batch)
	if err != nil {
		return 0, eris.Wrap(err, "scenario: record material flows")
	}
	zap.L().Info("scenario: material flows recorded",
		zap.String("scenario_id", scenarioID),
		zap.Int("count", n),
	)
	return n, nil
}

// ListMaterialFlows returns a scenario's flows in recording order.
func (s *Service) ListMaterialFlows(ctx context.Context, scenarioID string) ([]model.MaterialFlow, error) {
	if _, err := s.scenario(ctx, scenarioID); err != nil {
		return nil, err
	}
	return s.store.ListFlowsByScenario(ctx, scenarioID)
}
