package scenario

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lca-cli/internal/lca"
	"github.com/sells-group/lca-cli/internal/lease"
	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/store"
)

func leaseKey(scenarioID string) string {
	return "scenario:" + scenarioID
}

// acquire takes the per-scenario lease shared by compute and autofill.
func (s *Service) acquire(ctx context.Context, scenarioID string) (func(), error) {
	release, err := s.locker.Acquire(ctx, leaseKey(scenarioID))
	if eris.Is(err, lease.ErrHeld) {
		return nil, eris.Wrapf(ErrComputeInProgress, "scenario %s", scenarioID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "scenario: acquire lease")
	}
	return release, nil
}

// ComputeScenarioResults runs one computation pass. It refuses to start while
// any parameter is unset, and a pass either persists every result row under a
// new run or none of them. Concurrent passes for the same scenario are
// rejected with ErrComputeInProgress.
func (s *Service) ComputeScenarioResults(ctx context.Context, scenarioID string) (*model.Results, error) {
	log := zap.L().With(zap.String("scenario_id", scenarioID))

	if _, err := s.scenario(ctx, scenarioID); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		stages []model.LifecycleStage
		params []model.StageParameter
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stages, err = s.store.ListStagesByScenario(gctx, scenarioID)
		return err
	})
	g.Go(func() error {
		var err error
		params, err = s.store.ListParametersByScenario(gctx, scenarioID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "scenario: load stages and parameters")
	}

	// Gate on the loaded snapshot so the engine never sees a value cleared
	// after a separate completeness read.
	if missing := countIncomplete(params); missing > 0 {
		return nil, eris.Wrapf(ErrIncompleteScenario, "scenario %s: %d parameters unset", scenarioID, missing)
	}

	run, err := s.store.CreateRun(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("run_id", run.ID))

	in := lca.Input{ScenarioID: scenarioID, RunID: run.ID, Stages: stages, Parameters: params}
	results := &model.Results{RunID: run.ID}

	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		env, err := s.engine.ComputeEnvironmentalIndicators(ctx, tx, in)
		if err != nil {
			return eris.Wrap(err, "scenario: environmental indicators")
		}
		circ, err := s.engine.ComputeCircularityMetrics(ctx, tx, in)
		if err != nil {
			return eris.Wrap(err, "scenario: circularity metrics")
		}
		results.Environmental = env
		results.Circularity = circ
		return nil
	})
	if err != nil {
		log.Error("scenario: computation failed", zap.Error(err))
		s.finish(ctx, scenarioID, run.ID, model.RunStatusFailed, model.ScenarioStatusFailed, err.Error())
		return nil, err
	}

	s.finish(ctx, scenarioID, run.ID, model.RunStatusComplete, model.ScenarioStatusComputed, "")
	log.Info("scenario: computation complete",
		zap.Int("environmental", len(results.Environmental)),
		zap.Int("circularity", len(results.Circularity)),
	)
	return results, nil
}

func countIncomplete(params []model.StageParameter) int {
	n := 0
	for _, p := range params {
		if !p.IsComplete() {
			n++
		}
	}
	return n
}

// finish records the run outcome. Failures here are logged rather than
// returned since the results themselves are already settled.
func (s *Service) finish(ctx context.Context, scenarioID, runID string, runStatus model.RunStatus, status model.ScenarioStatus, errMsg string) {
	if err := s.store.FinishRun(ctx, runID, runStatus, errMsg); err != nil {
		zap.L().Warn("scenario: finish run", zap.String("run_id", runID), zap.Error(err))
	}
	if err := s.store.UpdateScenarioStatus(ctx, scenarioID, status); err != nil {
		zap.L().Warn("scenario: update status", zap.String("scenario_id", scenarioID), zap.Error(err))
	}
}

// LatestResults returns the result rows of the most recent complete run.
func (s *Service) LatestResults(ctx context.Context, scenarioID string) (*model.Results, error) {
	if _, err := s.scenario(ctx, scenarioID); err != nil {
		return nil, err
	}
	run, err := s.store.LatestRun(ctx, scenarioID, model.RunStatusComplete)
	if eris.Is(err, store.ErrNotFound) {
		return nil, eris.Wrapf(ErrNoResults, "scenario %s", scenarioID)
	}
	if err != nil {
		return nil, err
	}

	env, err := s.store.ListEnvironmentalResults(ctx, scenarioID, run.ID)
	if err != nil {
		return nil, err
	}
	circ, err := s.store.ListCircularityResults(ctx, scenarioID, run.ID)
	if err != nil {
		return nil, err
	}
	return &model.Results{RunID: run.ID, Environmental: env, Circularity: circ}, nil
}
