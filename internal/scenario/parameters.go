package scenario

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/store"
)

// SetParameterValue records a value for one parameter and moves the owning
// scenario between draft and ready as its completeness changes.
func (s *Service) SetParameterValue(ctx context.Context, paramID string, v model.ParameterValue) (*model.StageParameter, error) {
	p, err := s.store.GetParameter(ctx, paramID)
	if eris.Is(err, store.ErrNotFound) {
		return nil, eris.Wrapf(ErrParameterNotFound, "parameter %s", paramID)
	}
	if err != nil {
		return nil, err
	}

	v, err = normalizeValue(p, v)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateParameterValue(ctx, paramID, v)
	if err != nil {
		return nil, err
	}

	stage, err := s.store.GetStage(ctx, p.StageID)
	if err != nil {
		return nil, err
	}
	if err := s.refreshStatus(ctx, stage.ScenarioID); err != nil {
		return nil, err
	}
	return updated, nil
}

// normalizeValue defaults the source, converts numeric text for numeric and
// score parameters, and drops AI provenance unless the source is an AI
// prediction.
func normalizeValue(p *model.StageParameter, v model.ParameterValue) (model.ParameterValue, error) {
	v.Source = model.ParseParameterSource(string(v.Source))
	if v.Source != model.SourceAIPrediction {
		v.AI = nil
	}

	if p.Type.IsNumeric() && v.Value == nil && v.TextValue != nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(*v.TextValue), 64)
		if err != nil {
			return v, eris.Wrapf(ErrInvalidValue, "%s expects a number, got %q", p.Name, *v.TextValue)
		}
		v.Value = model.Float(f)
		v.TextValue = nil
	}
	return v, nil
}

// ApplyIndustryDefaults fills every unset numeric or score parameter that has
// a template default, preferring the stage-type-specific template over the
// global one. Fills are conditional on the parameter still being unset, so a
// value written concurrently is never overwritten. It holds the scenario lease
// and returns the number of parameters actually filled.
func (s *Service) ApplyIndustryDefaults(ctx context.Context, scenarioID string) (int, error) {
	if _, err := s.scenario(ctx, scenarioID); err != nil {
		return 0, err
	}

	release, err := s.acquire(ctx, scenarioID)
	if err != nil {
		return 0, err
	}
	defer release()

	stages, err := s.store.ListStagesByScenario(ctx, scenarioID)
	if err != nil {
		return 0, err
	}
	stageTypes := make(map[string]string, len(stages))
	for _, st := range stages {
		stageTypes[st.ID] = st.StageType
	}

	var filled, missing int
	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		incomplete, err := tx.ListIncompleteParameters(ctx, scenarioID)
		if err != nil {
			return err
		}
		missing = len(incomplete)
		for _, p := range incomplete {
			if !p.Type.IsNumeric() {
				continue
			}
			def, ok := s.catalog.LookupDefault(stageTypes[p.StageID], p.Name)
			if !ok || def.DefaultValue == nil {
				continue
			}
			ok, err := tx.FillParameterIfUnset(ctx, p.ID, model.ParameterValue{
				Value:  model.Float(*def.DefaultValue),
				Source: model.SourceIndustryDefault,
			})
			if err != nil {
				return err
			}
			if ok {
				filled++
			}
		}
		return nil
	})
	if err != nil {
		return 0, eris.Wrap(err, "scenario: apply industry defaults")
	}

	if err := s.refreshStatus(ctx, scenarioID); err != nil {
		return filled, err
	}
	zap.L().Info("scenario: industry defaults applied",
		zap.String("scenario_id", scenarioID),
		zap.Int("filled", filled),
		zap.Int("still_missing", missing-filled),
	)
	return filled, nil
}

// refreshStatus sets ready when every parameter is filled and draft otherwise.
func (s *Service) refreshStatus(ctx context.Context, scenarioID string) error {
	complete, err := s.IsScenarioComplete(ctx, scenarioID)
	if err != nil {
		return err
	}
	status := model.ScenarioStatusDraft
	if complete {
		status = model.ScenarioStatusReady
	}
	return s.store.UpdateScenarioStatus(ctx, scenarioID, status)
}
