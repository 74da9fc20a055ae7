package scenario

import (
	"context"

	"github.com/sells-group/lca-cli/internal/model"
)

// Report summarises how much of a scenario's parameter set is filled.
type Report struct {
	ScenarioID string                 `json:"scenario_id"`
	Total      int                    `json:"total"`
	Filled     int                    `json:"filled"`
	Complete   bool                   `json:"complete"`
	Missing    []model.StageParameter `json:"missing"`
}

// Percent returns the filled share in the 0..100 range. An empty parameter
// set counts as fully filled.
func (r Report) Percent() float64 {
	if r.Total == 0 {
		return 100
	}
	return 100 * float64(r.Filled) / float64(r.Total)
}

// IsScenarioComplete reports whether no parameter of the scenario is unset.
// A scenario without stages or parameters is complete.
func (s *Service) IsScenarioComplete(ctx context.Context, scenarioID string) (bool, error) {
	missing, err := s.store.ListIncompleteParameters(ctx, scenarioID)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// Completeness returns a Report for an existing scenario.
func (s *Service) Completeness(ctx context.Context, scenarioID string) (*Report, error) {
	if _, err := s.scenario(ctx, scenarioID); err != nil {
		return nil, err
	}
	params, err := s.store.ListParametersByScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	r := &Report{ScenarioID: scenarioID, Total: len(params), Missing: []model.StageParameter{}}
	for _, p := range params {
		if p.IsComplete() {
			r.Filled++
		} else {
			r.Missing = append(r.Missing, p)
		}
	}
	r.Complete = len(r.Missing) == 0
	return r, nil
}
