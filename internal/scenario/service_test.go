package scenario

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lca-cli/internal/lca"
	"github.com/sells-group/lca-cli/internal/lease"
	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/store"
	"github.com/sells-group/lca-cli/internal/template"
)

func testCatalog(t *testing.T) *template.Catalog {
	t.Helper()
	c, err := template.NewCatalog(
		map[model.RouteType][]model.StageDef{
			model.RouteTypePrimary: {
				{Order: 0, StageType: model.StageSmelting, Name: "Smelting"},
				{Order: 1, StageType: model.StageRemelting, Name: "Remelting"},
				{Order: 2, StageType: model.StageEndOfLife, Name: "End of life"},
			},
		},
		[]model.ParamDef{
			{StageType: model.StageSmelting, Name: model.ParamEnergyConsumption, Type: model.ParameterTypeNumeric, Unit: "kWh/t", DefaultValue: model.Float(100)},
			{StageType: model.StageSmelting, Name: "furnace_type", Type: model.ParameterTypeChoice},
			{StageType: model.StageRemelting, Name: model.ParamRecycledContent, Type: model.ParameterTypeNumeric, Unit: "%", DefaultValue: model.Float(40)},
			{StageType: model.StageRemelting, Name: model.ParamMaterialYield, Type: model.ParameterTypeNumeric, Unit: "%", DefaultValue: model.Float(90)},
			{StageType: model.StageEndOfLife, Name: model.ParamRecyclingRate, Type: model.ParameterTypeNumeric, Unit: "%", DefaultValue: model.Float(75)},
			{StageType: model.StageEndOfLife, Name: model.ParamMaterialYield, Type: model.ParameterTypeNumeric, Unit: "%", DefaultValue: model.Float(95)},
			{Name: model.ParamEmissionFactor, Type: model.ParameterTypeNumeric, Unit: "kg CO2e/kWh", DefaultValue: model.Float(0.8)},
		},
	)
	require.NoError(t, err)
	return c
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestService(t *testing.T, st store.Store, locker lease.Locker) *Service {
	t.Helper()
	return New(st, testCatalog(t), lca.NewEngine(lca.Options{}), locker)
}

// failingStore fails circularity writes made inside a transaction.
type failingStore struct {
	store.Store
}

func (f *failingStore) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.WithinTx(ctx, func(tx store.Store) error {
		return fn(&failingStore{Store: tx})
	})
}

func (f *failingStore) CreateCircularityResult(context.Context, model.CircularityResult) (*model.CircularityResult, error) {
	return nil, errors.New("disk full")
}

func paramByName(t *testing.T, params []model.StageParameter, name string) model.StageParameter {
	t.Helper()
	for _, p := range params {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("parameter %s not found", name)
	return model.StageParameter{}
}

func TestCreateScenario(t *testing.T) {
	svc := newTestService(t, newTestStore(t), nil)
	ctx := context.Background()

	d, err := svc.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", Name: "Baseline", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)

	assert.Equal(t, model.ScenarioStatusDraft, d.Scenario.Status)
	require.Len(t, d.Stages, 3)
	for i, st := range d.Stages {
		assert.Equal(t, i, st.StageOrder)
	}
	assert.Equal(t, model.StageEndOfLife, d.Stages[2].StageType)

	require.Len(t, d.Parameters, 6)
	for _, p := range d.Parameters {
		assert.Nil(t, p.Value)
		assert.Equal(t, model.SourceIndustryDefault, p.Source)
	}

	got, err := svc.GetScenario(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Len(t, got.Stages, 3)
	assert.Len(t, got.Parameters, 6)
}

func TestCreateScenario_UnknownRouteWritesNothing(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, nil)
	ctx := context.Background()

	_, err := svc.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypeHybrid})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrTemplateNotFound))

	list, err := st.ListScenarios(ctx, store.ScenarioFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGenerateStagesFromTemplate_NotIdempotent(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, nil)
	ctx := context.Background()

	sc, err := st.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)

	first, err := svc.GenerateStagesFromTemplate(ctx, sc.ID, model.RouteTypePrimary)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := svc.GenerateStagesFromTemplate(ctx, sc.ID, model.RouteTypePrimary)
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.NotEqual(t, first[0].ID, second[0].ID)

	all, err := st.ListStagesByScenario(ctx, sc.ID)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestGenerateStagesFromTemplate_UnknownRoute(t *testing.T) {
	svc := newTestService(t, newTestStore(t), nil)

	_, err := svc.GenerateStagesFromTemplate(context.Background(), "sc-1", model.RouteTypeSecondary)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrTemplateNotFound))
}

func TestGenerateParameterPlaceholders(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, nil)
	ctx := context.Background()

	sc, err := st.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)
	stage, err := st.CreateStage(ctx, sc.ID, model.StageDef{Order: 0, StageType: model.StageRemelting, Name: "Remelting"})
	require.NoError(t, err)

	params, err := svc.GenerateParameterPlaceholders(ctx, stage.ID)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, model.ParamRecycledContent, params[0].Name)
	assert.Equal(t, model.ParamMaterialYield, params[1].Name)
	assert.Equal(t, "%", params[0].Unit)
	for _, p := range params {
		assert.Nil(t, p.Value)
		assert.Equal(t, model.SourceIndustryDefault, p.Source)
		assert.Equal(t, stage.ID, p.StageID)
	}

	_, err = svc.GenerateParameterPlaceholders(ctx, "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrStageNotFound))
}

func TestIsScenarioComplete_VacuouslyTrue(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, nil)
	ctx := context.Background()

	sc, err := st.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)

	complete, err := svc.IsScenarioComplete(ctx, sc.ID)
	require.NoError(t, err)
	assert.True(t, complete)

	report, err := svc.Completeness(ctx, sc.ID)
	require.NoError(t, err)
	assert.True(t, report.Complete)
	assert.InDelta(t, 100, report.Percent(), 1e-9)
}

func TestComputeScenarioResults_IncompleteWritesNothing(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, nil)
	ctx := context.Background()

	d, err := svc.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)

	_, err = svc.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrIncompleteScenario))

	env, err := st.ListEnvironmentalResults(ctx, d.Scenario.ID, "")
	require.NoError(t, err)
	assert.Empty(t, env)
	circ, err := st.ListCircularityResults(ctx, d.Scenario.ID, "")
	require.NoError(t, err)
	assert.Empty(t, circ)
	_, err = st.LatestRun(ctx, d.Scenario.ID, "")
	assert.True(t, eris.Is(err, store.ErrNotFound))
}

func TestComputeScenarioResults_UnknownScenario(t *testing.T) {
	svc := newTestService(t, newTestStore(t), nil)

	_, err := svc.ComputeScenarioResults(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrScenarioNotFound))
}

// readyScenario creates a scenario, adds a manual emission_factor parameter
// to the smelting stage and fills everything.
func readyScenario(t *testing.T, svc *Service, st store.Store) *Detail {
	t.Helper()
	ctx := context.Background()

	d, err := svc.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)

	_, err = st.CreateParameter(ctx, model.NewParameter{
		StageID: d.Stages[0].ID,
		Name:    model.ParamEmissionFactor,
		Type:    model.ParameterTypeNumeric,
		Source:  model.SourceManual,
	})
	require.NoError(t, err)

	filled, err := svc.ApplyIndustryDefaults(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, filled)

	report, err := svc.Completeness(ctx, d.Scenario.ID)
	require.NoError(t, err)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, "furnace_type", report.Missing[0].Name)

	sc, err := st.GetScenario(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScenarioStatusDraft, sc.Status)

	furnace := paramByName(t, d.Parameters, "furnace_type")
	_, err = svc.SetParameterValue(ctx, furnace.ID, model.ParameterValue{TextValue: model.String("electric")})
	require.NoError(t, err)

	sc, err = st.GetScenario(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScenarioStatusReady, sc.Status)
	return d
}

func TestComputeScenarioResults_EndToEnd(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, nil)
	ctx := context.Background()
	d := readyScenario(t, svc, st)

	res, err := svc.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	// Only smelting reports energy: 100 kWh at the global factor 0.8.
	require.Len(t, res.Environmental, 4)
	assert.Equal(t, d.Stages[0].ID, res.Environmental[0].StageID)
	assert.InDelta(t, 80, res.Environmental[0].Value, 1e-9)
	assert.InDelta(t, 80, res.Environmental[2].Value, 1e-9)
	assert.InDelta(t, 100, res.Environmental[3].Value, 1e-9)

	require.Len(t, res.Circularity, 5)
	got := map[model.MetricType]float64{}
	for _, r := range res.Circularity {
		got[r.MetricType] = r.Value
		assert.Equal(t, res.RunID, r.RunID)
	}
	assert.InDelta(t, 40, got[model.MetricRecycledContent], 1e-9)
	assert.InDelta(t, 85.5, got[model.MetricEfficiencyIndex], 1e-9)
	assert.InDelta(t, 75, got[model.MetricRecoveryRate], 1e-9)
	assert.InDelta(t, 0, got[model.MetricLossRate], 1e-9)
	assert.InDelta(t, 30, got[model.MetricLoopClosure], 1e-9)

	sc, err := st.GetScenario(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScenarioStatusComputed, sc.Status)

	latest, err := svc.LatestResults(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, latest.RunID)
	assert.Len(t, latest.Environmental, 4)
	assert.Len(t, latest.Circularity, 5)
}

func TestComputeScenarioResults_RecomputeAppendsNewRun(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, nil)
	ctx := context.Background()
	d := readyScenario(t, svc, st)

	first, err := svc.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.NoError(t, err)
	second, err := svc.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)

	all, err := st.ListEnvironmentalResults(ctx, d.Scenario.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 8)

	latest, err := svc.LatestResults(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, latest.RunID)
	assert.Len(t, latest.Environmental, 4)
}

func TestComputeScenarioResults_FailureRollsBackPass(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, nil)
	ctx := context.Background()
	d := readyScenario(t, svc, st)

	failing := newTestService(t, &failingStore{Store: st}, nil)
	_, err := failing.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	env, err := st.ListEnvironmentalResults(ctx, d.Scenario.ID, "")
	require.NoError(t, err)
	assert.Empty(t, env)

	run, err := st.LatestRun(ctx, d.Scenario.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "disk full")

	sc, err := st.GetScenario(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScenarioStatusFailed, sc.Status)

	_, err = svc.LatestResults(ctx, d.Scenario.ID)
	assert.True(t, eris.Is(err, ErrNoResults))
}

func TestComputeScenarioResults_LeaseHeld(t *testing.T) {
	st := newTestStore(t)
	locker := lease.NewLocal()
	svc := newTestService(t, st, locker)
	ctx := context.Background()
	d := readyScenario(t, svc, st)

	release, err := locker.Acquire(ctx, leaseKey(d.Scenario.ID))
	require.NoError(t, err)

	_, err = svc.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrComputeInProgress))

	release()
	_, err = svc.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.NoError(t, err)
}

// mockLocker is a testify mock of lease.Locker.
type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Acquire(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	release, _ := args.Get(0).(func())
	return release, args.Error(1)
}

func TestComputeScenarioResults_LeaseBackendError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	d := readyScenario(t, newTestService(t, st, nil), st)

	locker := &mockLocker{}
	svc := newTestService(t, st, locker)

	locker.On("Acquire", mock.Anything, "scenario:"+d.Scenario.ID).
		Return(nil, errors.New("redis: connection refused")).Once()

	_, err := svc.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.Error(t, err)
	assert.False(t, eris.Is(err, ErrComputeInProgress))
	assert.Contains(t, err.Error(), "acquire lease")
	locker.AssertExpectations(t)

	_, err = st.LatestRun(ctx, d.Scenario.ID, "")
	assert.True(t, eris.Is(err, store.ErrNotFound), "no run is recorded without the lease")
}

func TestComputeScenarioResults_ReleasesLease(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	d := readyScenario(t, newTestService(t, st, nil), st)

	locker := &mockLocker{}
	svc := newTestService(t, st, locker)

	released := 0
	locker.On("Acquire", mock.Anything, "scenario:"+d.Scenario.ID).
		Return(func() { released++ }, nil).Twice()

	_, err := svc.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.NoError(t, err)
	_, err = svc.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, released)
	locker.AssertExpectations(t)
}

// clearingStore clears energy_consumption right before the compute pass
// loads its parameters, after any earlier completeness read succeeded.
type clearingStore struct {
	store.Store
	paramID string
}

func (c *clearingStore) ListParametersByScenario(ctx context.Context, scenarioID string) ([]model.StageParameter, error) {
	if _, err := c.Store.UpdateParameterValue(ctx, c.paramID, model.ParameterValue{Source: model.SourceManual}); err != nil {
		return nil, err
	}
	return c.Store.ListParametersByScenario(ctx, scenarioID)
}

func TestComputeScenarioResults_GatesOnLoadedParameters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	d := readyScenario(t, newTestService(t, st, nil), st)

	complete, err := newTestService(t, st, nil).IsScenarioComplete(ctx, d.Scenario.ID)
	require.NoError(t, err)
	require.True(t, complete)

	energy := paramByName(t, d.Parameters, model.ParamEnergyConsumption)
	svc := newTestService(t, &clearingStore{Store: st, paramID: energy.ID}, nil)

	_, err = svc.ComputeScenarioResults(ctx, d.Scenario.ID)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrIncompleteScenario))

	_, err = st.LatestRun(ctx, d.Scenario.ID, "")
	assert.True(t, eris.Is(err, store.ErrNotFound), "no run is recorded from an incomplete snapshot")
	env, err := st.ListEnvironmentalResults(ctx, d.Scenario.ID, "")
	require.NoError(t, err)
	assert.Empty(t, env)
}

// racingStore writes a manual value to one parameter right after the
// autofill pass lists the incomplete set inside its transaction.
type racingStore struct {
	store.Store
	paramID string
}

func (r *racingStore) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	return r.Store.WithinTx(ctx, func(tx store.Store) error {
		return fn(&racingStore{Store: tx, paramID: r.paramID})
	})
}

func (r *racingStore) ListIncompleteParameters(ctx context.Context, scenarioID string) ([]model.StageParameter, error) {
	params, err := r.Store.ListIncompleteParameters(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	_, err = r.Store.UpdateParameterValue(ctx, r.paramID, model.ParameterValue{Value: model.Float(555), Source: model.SourceManual})
	return params, err
}

func TestApplyIndustryDefaults_KeepsConcurrentManualValue(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	d, err := newTestService(t, st, nil).CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)
	energy := paramByName(t, d.Parameters, model.ParamEnergyConsumption)

	svc := newTestService(t, &racingStore{Store: st, paramID: energy.ID}, nil)
	filled, err := svc.ApplyIndustryDefaults(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, filled, "the manually written parameter is not counted")

	got, err := st.GetParameter(ctx, energy.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Value)
	assert.InDelta(t, 555, *got.Value, 1e-9)
	assert.Equal(t, model.SourceManual, got.Source)
}

func TestApplyIndustryDefaults_SkipsNonNumericDefaults(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	catalog, err := template.NewCatalog(
		map[model.RouteType][]model.StageDef{
			model.RouteTypePrimary: {{Order: 0, StageType: model.StageSmelting, Name: "Smelting"}},
		},
		[]model.ParamDef{
			{StageType: model.StageSmelting, Name: model.ParamEnergyConsumption, Type: model.ParameterTypeNumeric, DefaultValue: model.Float(100)},
			{StageType: model.StageSmelting, Name: "furnace_type", Type: model.ParameterTypeChoice, DefaultValue: model.Float(1)},
			{StageType: model.StageSmelting, Name: "operator_notes", Type: model.ParameterTypeText, DefaultValue: model.Float(0)},
		},
	)
	require.NoError(t, err)
	svc := New(st, catalog, lca.NewEngine(lca.Options{}), nil)

	d, err := svc.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)

	filled, err := svc.ApplyIndustryDefaults(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, filled)

	for _, name := range []string{"furnace_type", "operator_notes"} {
		got, err := st.GetParameter(ctx, paramByName(t, d.Parameters, name).ID)
		require.NoError(t, err)
		assert.Nil(t, got.Value, name)
		assert.False(t, got.IsComplete(), name)
	}
}

func TestApplyIndustryDefaults_LeaseHeld(t *testing.T) {
	st := newTestStore(t)
	locker := lease.NewLocal()
	svc := newTestService(t, st, locker)
	ctx := context.Background()

	d, err := svc.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)

	release, err := locker.Acquire(ctx, leaseKey(d.Scenario.ID))
	require.NoError(t, err)

	_, err = svc.ApplyIndustryDefaults(ctx, d.Scenario.ID)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrComputeInProgress))

	missing, err := st.ListIncompleteParameters(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Len(t, missing, 6, "nothing is filled while the lease is held")

	release()
	filled, err := svc.ApplyIndustryDefaults(ctx, d.Scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, filled)
}

func TestSetParameterValue(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, nil)
	ctx := context.Background()

	d, err := svc.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)
	energy := paramByName(t, d.Parameters, model.ParamEnergyConsumption)

	t.Run("NumericText", func(t *testing.T) {
		p, err := svc.SetParameterValue(ctx, energy.ID, model.ParameterValue{TextValue: model.String(" 12.5 ")})
		require.NoError(t, err)
		require.NotNil(t, p.Value)
		assert.InDelta(t, 12.5, *p.Value, 1e-9)
		assert.Nil(t, p.TextValue)
		assert.Equal(t, model.SourceManual, p.Source)
	})

	t.Run("InvalidNumber", func(t *testing.T) {
		_, err := svc.SetParameterValue(ctx, energy.ID, model.ParameterValue{TextValue: model.String("lots")})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrInvalidValue))
	})

	t.Run("AIProvenanceKeptOnlyForAI", func(t *testing.T) {
		ai := &model.AIProvenance{ModelName: "predictor", ModelVersion: "1", Confidence: 0.7}

		p, err := svc.SetParameterValue(ctx, energy.ID, model.ParameterValue{Value: model.Float(9), Source: model.SourceManual, AI: ai})
		require.NoError(t, err)
		assert.Nil(t, p.AI)

		p, err = svc.SetParameterValue(ctx, energy.ID, model.ParameterValue{Value: model.Float(9), Source: model.SourceAIPrediction, AI: ai})
		require.NoError(t, err)
		require.NotNil(t, p.AI)
		assert.Equal(t, "predictor", p.AI.ModelName)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := svc.SetParameterValue(ctx, "missing", model.ParameterValue{Value: model.Float(1)})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrParameterNotFound))
	})
}

func TestApplyIndustryDefaults_UnknownScenario(t *testing.T) {
	svc := newTestService(t, newTestStore(t), nil)

	_, err := svc.ApplyIndustryDefaults(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrScenarioNotFound))
}

func TestLatestResults_NoRuns(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, nil)
	ctx := context.Background()

	d, err := svc.CreateScenario(ctx, model.NewScenario{ProjectID: "p1", RouteType: model.RouteTypePrimary})
	require.NoError(t, err)

	_, err = svc.LatestResults(ctx, d.Scenario.ID)
	assert.True(t, eris.Is(err, ErrNoResults))
}
