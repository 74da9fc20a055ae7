// Package lca derives environmental indicators and circularity metrics from a
// scenario's lifecycle stages and parameters, persisting each derived value as
// it is computed.
package lca

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/model"
)

const (
	defaultEmissionFactor = 0.5
	defaultRecoveryRate   = 70.0
)

// Calculation-method strings recorded alongside each result.
const (
	MethodStageGWP        = "energy_consumption × emission_factor"
	MethodStageEnergy     = "reported energy_consumption"
	MethodSum             = "sum of stage values"
	MethodRecycledContent = "recycled_content_percentage at first scrap_sorting/remelting stage"
	MethodEfficiency      = "100 × Π(material_yield/100) across stages"
	MethodRecovery        = "recycling_rate at eol stage (default 70)"
	MethodLoss            = "sum of scrap_rate across stages"
	MethodLoopClosure     = "recycled_content × recovery_rate / 100"
)

// ResultWriter appends result records. store.Store satisfies it, as does the
// transaction-scoped Store handed out by WithinTx.
type ResultWriter interface {
	CreateEnvironmentalResult(ctx context.Context, r model.EnvironmentalResult) (*model.EnvironmentalResult, error)
	CreateCircularityResult(ctx context.Context, r model.CircularityResult) (*model.CircularityResult, error)
}

// Options tunes the domain defaults. Zero values select the standard defaults.
type Options struct {
	DefaultEmissionFactor float64 `yaml:"default_emission_factor" mapstructure:"default_emission_factor"`
	DefaultRecoveryRate   float64 `yaml:"default_recovery_rate" mapstructure:"default_recovery_rate"`
}

// Input is one computation pass over a scenario. Stages are processed in the
// order given; callers pass them as returned by the stage repository.
type Input struct {
	ScenarioID string
	RunID      string
	Stages     []model.LifecycleStage
	Parameters []model.StageParameter
}

// Engine is stateless apart from its defaults and safe for concurrent use.
type Engine struct {
	emissionFactor float64
	recoveryRate   float64
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		emissionFactor: opts.DefaultEmissionFactor,
		recoveryRate:   opts.DefaultRecoveryRate,
	}
	if e.emissionFactor <= 0 {
		e.emissionFactor = defaultEmissionFactor
	}
	if e.recoveryRate <= 0 {
		e.recoveryRate = defaultRecoveryRate
	}
	return e
}

// ComputeEnvironmentalIndicators writes a GWP and an energy result for every
// stage reporting energy_consumption, followed by the two scenario totals.
// Stages without energy_consumption are skipped rather than counted as zero.
func (e *Engine) ComputeEnvironmentalIndicators(ctx context.Context, w ResultWriter, in Input) ([]model.EnvironmentalResult, error) {
	log := zap.L().With(zap.String("scenario_id", in.ScenarioID), zap.String("run_id", in.RunID))
	params := indexParameters(in.Parameters)

	var out []model.EnvironmentalResult
	var totalGWP, totalEnergy float64

	for _, stage := range in.Stages {
		energy, ok := params.numeric(stage.ID, model.ParamEnergyConsumption)
		if !ok {
			log.Debug("lca: stage has no energy_consumption, skipping", zap.String("stage", stage.Name))
			continue
		}
		factor, ok := params.numeric(stage.ID, model.ParamEmissionFactor)
		if !ok {
			factor = e.emissionFactor
		}
		gwp := energy * factor

		for _, r := range []model.EnvironmentalResult{
			{IndicatorType: model.IndicatorGWP, Value: gwp, Unit: model.UnitKgCO2e, CalculationMethod: MethodStageGWP},
			{IndicatorType: model.IndicatorEnergy, Value: energy, Unit: model.UnitKWh, CalculationMethod: MethodStageEnergy},
		} {
			r.ScenarioID = in.ScenarioID
			r.StageID = stage.ID
			r.RunID = in.RunID
			saved, err := w.CreateEnvironmentalResult(ctx, r)
			if err != nil {
				return out, err
			}
			out = append(out, *saved)
		}

		totalGWP += gwp
		totalEnergy += energy
	}

	for _, r := range []model.EnvironmentalResult{
		{IndicatorType: model.IndicatorGWP, Value: totalGWP, Unit: model.UnitKgCO2e, CalculationMethod: MethodSum},
		{IndicatorType: model.IndicatorEnergy, Value: totalEnergy, Unit: model.UnitKWh, CalculationMethod: MethodSum},
	} {
		r.ScenarioID = in.ScenarioID
		r.RunID = in.RunID
		saved, err := w.CreateEnvironmentalResult(ctx, r)
		if err != nil {
			return out, err
		}
		out = append(out, *saved)
	}

	log.Info("lca: environmental indicators computed",
		zap.Int("results", len(out)),
		zap.Float64("total_gwp", totalGWP),
		zap.Float64("total_energy", totalEnergy),
	)
	return out, nil
}

// ComputeCircularityMetrics writes the five circularity metrics. The recycled
// content row is written only when the scenario has a scrap_sorting or
// remelting stage; the other four rows are always written.
func (e *Engine) ComputeCircularityMetrics(ctx context.Context, w ResultWriter, in Input) ([]model.CircularityResult, error) {
	log := zap.L().With(zap.String("scenario_id", in.ScenarioID), zap.String("run_id", in.RunID))
	params := indexParameters(in.Parameters)

	var pending []model.CircularityResult

	// Recycled content.
	recycledContent := 0.0
	if stage := firstStage(in.Stages, model.StageScrapSorting, model.StageRemelting); stage != nil {
		if v, ok := params.numeric(stage.ID, model.ParamRecycledContent); ok {
			recycledContent = v
		}
		pending = append(pending, model.CircularityResult{
			MetricType:        model.MetricRecycledContent,
			Value:             recycledContent,
			CalculationMethod: MethodRecycledContent,
			Details:           stageDetails(stage),
		})
	}

	// Efficiency index.
	efficiency := 100.0
	contributing := 0
	for _, stage := range in.Stages {
		if y, ok := params.numeric(stage.ID, model.ParamMaterialYield); ok {
			efficiency *= y / 100
			contributing++
		}
	}
	pending = append(pending, model.CircularityResult{
		MetricType:        model.MetricEfficiencyIndex,
		Value:             efficiency,
		CalculationMethod: MethodEfficiency,
		Details:           map[string]any{"contributing_stages": contributing},
	})

	// Recovery rate.
	recovery := e.recoveryRate
	var recoveryDetails map[string]any
	if stage := firstStage(in.Stages, model.StageEndOfLife); stage != nil {
		if v, ok := params.numeric(stage.ID, model.ParamRecyclingRate); ok {
			recovery = v
		}
		recoveryDetails = stageDetails(stage)
	}
	pending = append(pending, model.CircularityResult{
		MetricType:        model.MetricRecoveryRate,
		Value:             recovery,
		CalculationMethod: MethodRecovery,
		Details:           recoveryDetails,
	})

	// Loss rate.
	loss := 0.0
	for _, stage := range in.Stages {
		if v, ok := params.numeric(stage.ID, model.ParamScrapRate); ok {
			loss += v
		}
	}
	pending = append(pending, model.CircularityResult{
		MetricType:        model.MetricLossRate,
		Value:             loss,
		CalculationMethod: MethodLoss,
	})

	// Loop closure.
	pending = append(pending, model.CircularityResult{
		MetricType:        model.MetricLoopClosure,
		Value:             recycledContent * recovery / 100,
		CalculationMethod: MethodLoopClosure,
		Details: map[string]any{
			"recycled_content": recycledContent,
			"recovery_rate":    recovery,
		},
	})

	out := make([]model.CircularityResult, 0, len(pending))
	for _, r := range pending {
		r.ScenarioID = in.ScenarioID
		r.RunID = in.RunID
		r.Unit = model.UnitPercent
		saved, err := w.CreateCircularityResult(ctx, r)
		if err != nil {
			return out, err
		}
		out = append(out, *saved)
	}

	log.Info("lca: circularity metrics computed", zap.Int("results", len(out)))
	return out, nil
}

func firstStage(stages []model.LifecycleStage, types ...string) *model.LifecycleStage {
	for i := range stages {
		for _, t := range types {
			if stages[i].StageType == t {
				return &stages[i]
			}
		}
	}
	return nil
}

func stageDetails(stage *model.LifecycleStage) map[string]any {
	return map[string]any{
		"stage_id":   stage.ID,
		"stage_name": stage.Name,
		"stage_type": stage.StageType,
	}
}
