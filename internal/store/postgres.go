package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/db"
	"github.com/sells-group/lca-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	q       db.Querier
	inTx    bool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, q: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scenarios (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	project_id  TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	route_type  TEXT NOT NULL,
	is_baseline BOOLEAN NOT NULL DEFAULT false,
	status      TEXT NOT NULL DEFAULT 'draft',
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS lifecycle_stages (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	seq         BIGSERIAL,
	scenario_id TEXT NOT NULL REFERENCES scenarios(id),
	stage_order INTEGER NOT NULL,
	stage_type  TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stage_parameters (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	seq              BIGSERIAL,
	stage_id         TEXT NOT NULL REFERENCES lifecycle_stages(id),
	name             TEXT NOT NULL,
	type             TEXT NOT NULL DEFAULT 'numeric',
	unit             TEXT NOT NULL DEFAULT '',
	value            DOUBLE PRECISION,
	text_value       TEXT,
	source           TEXT NOT NULL DEFAULT 'industry_default',
	ai_model_name    TEXT,
	ai_model_version TEXT,
	ai_confidence    DOUBLE PRECISION,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS computation_runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	seq         BIGSERIAL,
	scenario_id TEXT NOT NULL REFERENCES scenarios(id),
	status      TEXT NOT NULL DEFAULT 'running',
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS environmental_results (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	seq                BIGSERIAL,
	scenario_id        TEXT NOT NULL REFERENCES scenarios(id),
	stage_id           TEXT,
	run_id             TEXT REFERENCES computation_runs(id),
	indicator_type     TEXT NOT NULL,
	value              DOUBLE PRECISION NOT NULL,
	unit               TEXT NOT NULL DEFAULT '',
	calculation_method TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS circularity_results (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	seq                BIGSERIAL,
	scenario_id        TEXT NOT NULL REFERENCES scenarios(id),
	run_id             TEXT REFERENCES computation_runs(id),
	metric_type        TEXT NOT NULL,
	value              DOUBLE PRECISION NOT NULL,
	unit               TEXT NOT NULL DEFAULT '',
	calculation_method TEXT NOT NULL DEFAULT '',
	details            JSONB,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS material_flows (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	seq           BIGSERIAL,
	scenario_id   TEXT NOT NULL REFERENCES scenarios(id),
	from_stage_id TEXT,
	to_stage_id   TEXT,
	material_type TEXT NOT NULL,
	quantity      DOUBLE PRECISION NOT NULL,
	unit          TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scenarios_project ON scenarios(project_id);
CREATE INDEX IF NOT EXISTS idx_stages_scenario ON lifecycle_stages(scenario_id, stage_order);
CREATE INDEX IF NOT EXISTS idx_parameters_stage ON stage_parameters(stage_id);
CREATE INDEX IF NOT EXISTS idx_runs_scenario ON computation_runs(scenario_id, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_env_results_scenario ON environmental_results(scenario_id, run_id);
CREATE INDEX IF NOT EXISTS idx_circ_results_scenario ON circularity_results(scenario_id, run_id);
CREATE INDEX IF NOT EXISTS idx_flows_scenario ON material_flows(scenario_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.q.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.q.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil && !s.inTx {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	if err := fn(&PostgresStore{pool: s.pool, q: tx, inTx: true}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit tx")
}

// Scenarios

func (s *PostgresStore) CreateScenario(ctx context.Context, in model.NewScenario) (*model.Scenario, error) {
	sc := &model.Scenario{
		ID:          uuid.New().String(),
		ProjectID:   in.ProjectID,
		Name:        in.Name,
		RouteType:   in.RouteType,
		IsBaseline:  in.IsBaseline,
		Status:      model.ScenarioStatusDraft,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	sc.UpdatedAt = sc.CreatedAt

	_, err := s.q.Exec(ctx,
		`INSERT INTO scenarios (id, project_id, name, route_type, is_baseline, status, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sc.ID, sc.ProjectID, sc.Name, string(sc.RouteType), sc.IsBaseline, string(sc.Status),
		sc.Description, sc.CreatedAt, sc.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert scenario")
	}
	return sc, nil
}

const pgScenarioColumns = `id, project_id, name, route_type, is_baseline, status, description, created_at, updated_at`

func (s *PostgresStore) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+pgScenarioColumns+` FROM scenarios WHERE id = $1`, id)
	sc, err := scanScenario(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("scenario", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get scenario %s", id)
	}
	return sc, nil
}

func (s *PostgresStore) ListScenarios(ctx context.Context, filter ScenarioFilter) ([]model.Scenario, error) {
	query := `SELECT ` + pgScenarioColumns + ` FROM scenarios WHERE 1=1`
	var args []any
	argIdx := 1

	if filter.ProjectID != "" {
		query += fmt.Sprintf(` AND project_id = $%d`, argIdx)
		args = append(args, filter.ProjectID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, defaultLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scenarios")
	}
	defer rows.Close()

	var out []model.Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan scenario")
		}
		out = append(out, *sc)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list scenarios iterate")
}

func (s *PostgresStore) UpdateScenarioStatus(ctx context.Context, id string, status model.ScenarioStatus) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE scenarios SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update scenario status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound("scenario", id)
	}
	return nil
}

// Stages

func (s *PostgresStore) CreateStage(ctx context.Context, scenarioID string, def model.StageDef) (*model.LifecycleStage, error) {
	st := &model.LifecycleStage{
		ID:          uuid.New().String(),
		ScenarioID:  scenarioID,
		StageOrder:  def.Order,
		StageType:   def.StageType,
		Name:        def.Name,
		Description: def.Description,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.q.Exec(ctx,
		`INSERT INTO lifecycle_stages (id, scenario_id, stage_order, stage_type, name, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		st.ID, st.ScenarioID, st.StageOrder, st.StageType, st.Name, st.Description, st.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert stage for scenario %s", scenarioID)
	}
	return st, nil
}

const pgStageColumns = `id, scenario_id, stage_order, stage_type, name, description, created_at`

func (s *PostgresStore) GetStage(ctx context.Context, id string) (*model.LifecycleStage, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+pgStageColumns+` FROM lifecycle_stages WHERE id = $1`, id)
	st, err := scanStage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("stage", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get stage %s", id)
	}
	return st, nil
}

func (s *PostgresStore) ListStagesByScenario(ctx context.Context, scenarioID string) ([]model.LifecycleStage, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+pgStageColumns+` FROM lifecycle_stages
		 WHERE scenario_id = $1 ORDER BY stage_order ASC, seq ASC`,
		scenarioID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stages")
	}
	defer rows.Close()

	var out []model.LifecycleStage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan stage")
		}
		out = append(out, *st)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list stages iterate")
}

// Parameters

func (s *PostgresStore) CreateParameter(ctx context.Context, in model.NewParameter) (*model.StageParameter, error) {
	now := time.Now().UTC()
	p := &model.StageParameter{
		ID:        uuid.New().String(),
		StageID:   in.StageID,
		Name:      in.Name,
		Type:      in.Type,
		Unit:      in.Unit,
		Source:    in.Source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.q.Exec(ctx,
		`INSERT INTO stage_parameters (id, stage_id, name, type, unit, source, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.StageID, p.Name, string(p.Type), p.Unit, string(p.Source), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert parameter %s for stage %s", in.Name, in.StageID)
	}
	return p, nil
}

const pgParamColumns = `p.id, p.stage_id, p.name, p.type, p.unit, p.value, p.text_value, p.source,
	p.ai_model_name, p.ai_model_version, p.ai_confidence, p.created_at, p.updated_at`

func (s *PostgresStore) GetParameter(ctx context.Context, id string) (*model.StageParameter, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+pgParamColumns+` FROM stage_parameters p WHERE p.id = $1`, id)
	p, err := scanPgParameter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("parameter", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get parameter %s", id)
	}
	return p, nil
}

func (s *PostgresStore) ListParametersByStage(ctx context.Context, stageID string) ([]model.StageParameter, error) {
	return s.queryParameters(ctx, "list parameters by stage",
		`SELECT `+pgParamColumns+` FROM stage_parameters p
		 WHERE p.stage_id = $1 ORDER BY p.seq ASC`,
		stageID,
	)
}

func (s *PostgresStore) ListParametersByScenario(ctx context.Context, scenarioID string) ([]model.StageParameter, error) {
	return s.queryParameters(ctx, "list parameters by scenario",
		`SELECT `+pgParamColumns+` FROM stage_parameters p
		 JOIN lifecycle_stages s ON s.id = p.stage_id
		 WHERE s.scenario_id = $1
		 ORDER BY s.stage_order ASC, s.seq ASC, p.seq ASC`,
		scenarioID,
	)
}

func (s *PostgresStore) ListIncompleteParameters(ctx context.Context, scenarioID string) ([]model.StageParameter, error) {
	return s.queryParameters(ctx, "list incomplete parameters",
		`SELECT `+pgParamColumns+` FROM stage_parameters p
		 JOIN lifecycle_stages s ON s.id = p.stage_id
		 WHERE s.scenario_id = $1 AND p.value IS NULL AND p.text_value IS NULL
		 ORDER BY s.stage_order ASC, s.seq ASC, p.seq ASC`,
		scenarioID,
	)
}

func (s *PostgresStore) UpdateParameterValue(ctx context.Context, id string, v model.ParameterValue) (*model.StageParameter, error) {
	var aiName, aiVersion *string
	var aiConf *float64
	if v.AI != nil {
		aiName = &v.AI.ModelName
		aiVersion = &v.AI.ModelVersion
		aiConf = &v.AI.Confidence
	}

	tag, err := s.q.Exec(ctx,
		`UPDATE stage_parameters
		 SET value = $1, text_value = $2, source = $3, ai_model_name = $4, ai_model_version = $5, ai_confidence = $6, updated_at = $7
		 WHERE id = $8`,
		v.Value, v.TextValue, string(v.Source), aiName, aiVersion, aiConf, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update parameter %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFound("parameter", id)
	}
	return s.GetParameter(ctx, id)
}

func (s *PostgresStore) FillParameterIfUnset(ctx context.Context, id string, v model.ParameterValue) (bool, error) {
	tag, err := s.q.Exec(ctx,
		`UPDATE stage_parameters
		 SET value = $1, text_value = $2, source = $3, ai_model_name = NULL, ai_model_version = NULL, ai_confidence = NULL, updated_at = $4
		 WHERE id = $5 AND value IS NULL AND text_value IS NULL`,
		v.Value, v.TextValue, string(v.Source), time.Now().UTC(), id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: fill parameter %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) queryParameters(ctx context.Context, op, query string, args ...any) ([]model.StageParameter, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	defer rows.Close()

	var out []model.StageParameter
	for rows.Next() {
		p, err := scanPgParameter(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan parameter")
		}
		out = append(out, *p)
	}
	return out, eris.Wrapf(rows.Err(), "postgres: %s iterate", op)
}

// Results

func (s *PostgresStore) CreateEnvironmentalResult(ctx context.Context, r model.EnvironmentalResult) (*model.EnvironmentalResult, error) {
	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()

	_, err := s.q.Exec(ctx,
		`INSERT INTO environmental_results (id, scenario_id, stage_id, run_id, indicator_type, value, unit, calculation_method, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.ScenarioID, optional(r.StageID), optional(r.RunID), string(r.IndicatorType),
		r.Value, r.Unit, r.CalculationMethod, r.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert environmental result %s", r.IndicatorType)
	}
	return &r, nil
}

func (s *PostgresStore) CreateCircularityResult(ctx context.Context, r model.CircularityResult) (*model.CircularityResult, error) {
	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()

	var details []byte
	if len(r.Details) > 0 {
		b, err := json.Marshal(r.Details)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal circularity details")
		}
		details = b
	}

	_, err := s.q.Exec(ctx,
		`INSERT INTO circularity_results (id, scenario_id, run_id, metric_type, value, unit, calculation_method, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.ScenarioID, optional(r.RunID), string(r.MetricType),
		r.Value, r.Unit, r.CalculationMethod, details, r.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert circularity result %s", r.MetricType)
	}
	return &r, nil
}

func (s *PostgresStore) ListEnvironmentalResults(ctx context.Context, scenarioID, runID string) ([]model.EnvironmentalResult, error) {
	query := `SELECT id, scenario_id, stage_id, run_id, indicator_type, value, unit, calculation_method, created_at
	          FROM environmental_results WHERE scenario_id = $1`
	args := []any{scenarioID}
	if runID != "" {
		query += ` AND run_id = $2`
		args = append(args, runID)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list environmental results")
	}
	defer rows.Close()

	var out []model.EnvironmentalResult
	for rows.Next() {
		var r model.EnvironmentalResult
		var stageID, run *string
		var indicator string
		if err := rows.Scan(&r.ID, &r.ScenarioID, &stageID, &run, &indicator,
			&r.Value, &r.Unit, &r.CalculationMethod, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan environmental result")
		}
		r.IndicatorType = model.IndicatorType(indicator)
		r.StageID = deref(stageID)
		r.RunID = deref(run)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list environmental results iterate")
}

func (s *PostgresStore) ListCircularityResults(ctx context.Context, scenarioID, runID string) ([]model.CircularityResult, error) {
	query := `SELECT id, scenario_id, run_id, metric_type, value, unit, calculation_method, details, created_at
	          FROM circularity_results WHERE scenario_id = $1`
	args := []any{scenarioID}
	if runID != "" {
		query += ` AND run_id = $2`
		args = append(args, runID)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list circularity results")
	}
	defer rows.Close()

	var out []model.CircularityResult
	for rows.Next() {
		var r model.CircularityResult
		var run *string
		var metric string
		var details []byte
		if err := rows.Scan(&r.ID, &r.ScenarioID, &run, &metric,
			&r.Value, &r.Unit, &r.CalculationMethod, &details, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan circularity result")
		}
		r.MetricType = model.MetricType(metric)
		r.RunID = deref(run)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &r.Details); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal circularity details")
			}
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list circularity results iterate")
}

// Flows

var flowColumns = []string{
	"id", "scenario_id", "from_stage_id", "to_stage_id", "material_type", "quantity", "unit", "created_at",
}

// RecordFlows bulk-inserts flows with the COPY protocol.
func (s *PostgresStore) RecordFlows(ctx context.Context, flows []model.MaterialFlow) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(flows))
	for _, f := range flows {
		rows = append(rows, []any{
			uuid.New().String(), f.ScenarioID, optional(f.FromStageID), optional(f.ToStageID),
			f.MaterialType, f.Quantity, f.Unit, now,
		})
	}
	n, err := db.CopyFrom(ctx, s.q, "material_flows", flowColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: record flows")
	}
	return int(n), nil
}

func (s *PostgresStore) ListFlowsByScenario(ctx context.Context, scenarioID string) ([]model.MaterialFlow, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, scenario_id, from_stage_id, to_stage_id, material_type, quantity, unit, created_at
		 FROM material_flows WHERE scenario_id = $1 ORDER BY seq ASC`,
		scenarioID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list flows")
	}
	defer rows.Close()

	var out []model.MaterialFlow
	for rows.Next() {
		var f model.MaterialFlow
		var from, to *string
		if err := rows.Scan(&f.ID, &f.ScenarioID, &from, &to, &f.MaterialType, &f.Quantity, &f.Unit, &f.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan flow")
		}
		f.FromStageID = deref(from)
		f.ToStageID = deref(to)
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list flows iterate")
}

// Runs

func (s *PostgresStore) CreateRun(ctx context.Context, scenarioID string) (*model.ComputationRun, error) {
	run := &model.ComputationRun{
		ID:         uuid.New().String(),
		ScenarioID: scenarioID,
		Status:     model.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	_, err := s.q.Exec(ctx,
		`INSERT INTO computation_runs (id, scenario_id, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.ScenarioID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert run for scenario %s", scenarioID)
	}
	return run, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE computation_runs SET status = $1, error = $2, finished_at = $3 WHERE id = $4`,
		string(status), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("run", runID)
	}
	return nil
}

func (s *PostgresStore) LatestRun(ctx context.Context, scenarioID string, status model.RunStatus) (*model.ComputationRun, error) {
	query := `SELECT id, scenario_id, status, error, started_at, finished_at
	          FROM computation_runs WHERE scenario_id = $1`
	args := []any{scenarioID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY started_at DESC, seq DESC LIMIT 1`

	var run model.ComputationRun
	var runStatus string
	err := s.q.QueryRow(ctx, query, args...).
		Scan(&run.ID, &run.ScenarioID, &runStatus, &run.Error, &run.StartedAt, &run.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("run for scenario", scenarioID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest run for scenario %s", scenarioID)
	}
	run.Status = model.RunStatus(runStatus)
	return &run, nil
}

// helpers

func scanPgParameter(row scannable) (*model.StageParameter, error) {
	var p model.StageParameter
	var typ, source string
	var aiName, aiVersion *string
	var aiConf *float64

	if err := row.Scan(&p.ID, &p.StageID, &p.Name, &typ, &p.Unit, &p.Value, &p.TextValue, &source,
		&aiName, &aiVersion, &aiConf, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Type = model.ParseParameterType(typ)
	p.Source = model.ParseParameterSource(source)
	if aiName != nil || aiVersion != nil || aiConf != nil {
		p.AI = &model.AIProvenance{ModelName: deref(aiName), ModelVersion: deref(aiVersion)}
		if aiConf != nil {
			p.AI.Confidence = *aiConf
		}
	}
	return &p, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
