package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lca-cli/internal/model"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
	q  sqlQuerier
	tx bool
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, q: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scenarios (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	route_type  TEXT NOT NULL,
	is_baseline INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'draft',
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS lifecycle_stages (
	id          TEXT PRIMARY KEY,
	scenario_id TEXT NOT NULL REFERENCES scenarios(id),
	stage_order INTEGER NOT NULL,
	stage_type  TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS stage_parameters (
	id               TEXT PRIMARY KEY,
	stage_id         TEXT NOT NULL REFERENCES lifecycle_stages(id),
	name             TEXT NOT NULL,
	type             TEXT NOT NULL DEFAULT 'numeric',
	unit             TEXT NOT NULL DEFAULT '',
	value            REAL,
	text_value       TEXT,
	source           TEXT NOT NULL DEFAULT 'industry_default',
	ai_model_name    TEXT,
	ai_model_version TEXT,
	ai_confidence    REAL,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS computation_runs (
	id          TEXT PRIMARY KEY,
	scenario_id TEXT NOT NULL REFERENCES scenarios(id),
	status      TEXT NOT NULL DEFAULT 'running',
	error       TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS environmental_results (
	id                 TEXT PRIMARY KEY,
	scenario_id        TEXT NOT NULL REFERENCES scenarios(id),
	stage_id           TEXT,
	run_id             TEXT,
	indicator_type     TEXT NOT NULL,
	value              REAL NOT NULL,
	unit               TEXT NOT NULL DEFAULT '',
	calculation_method TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS circularity_results (
	id                 TEXT PRIMARY KEY,
	scenario_id        TEXT NOT NULL REFERENCES scenarios(id),
	run_id             TEXT,
	metric_type        TEXT NOT NULL,
	value              REAL NOT NULL,
	unit               TEXT NOT NULL DEFAULT '',
	calculation_method TEXT NOT NULL DEFAULT '',
	details            TEXT,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS material_flows (
	id            TEXT PRIMARY KEY,
	scenario_id   TEXT NOT NULL REFERENCES scenarios(id),
	from_stage_id TEXT,
	to_stage_id   TEXT,
	material_type TEXT NOT NULL,
	quantity      REAL NOT NULL,
	unit          TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scenarios_project ON scenarios(project_id);
CREATE INDEX IF NOT EXISTS idx_stages_scenario ON lifecycle_stages(scenario_id, stage_order);
CREATE INDEX IF NOT EXISTS idx_parameters_stage ON stage_parameters(stage_id);
CREATE INDEX IF NOT EXISTS idx_runs_scenario ON computation_runs(scenario_id, started_at);
CREATE INDEX IF NOT EXISTS idx_env_results_scenario ON environmental_results(scenario_id, run_id);
CREATE INDEX IF NOT EXISTS idx_circ_results_scenario ON circularity_results(scenario_id, run_id);
CREATE INDEX IF NOT EXISTS idx_flows_scenario ON material_flows(scenario_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.q.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	if s.tx {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	if err := fn(&SQLiteStore{db: s.db, q: tx, tx: true}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}

// Scenarios

func (s *SQLiteStore) CreateScenario(ctx context.Context, in model.NewScenario) (*model.Scenario, error) {
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

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO scenarios (id, project_id, name, route_type, is_baseline, status, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.ProjectID, sc.Name, string(sc.RouteType), sc.IsBaseline, string(sc.Status),
		sc.Description, sc.CreatedAt, sc.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert scenario")
	}
	return sc, nil
}

const sqliteScenarioColumns = `id, project_id, name, route_type, is_baseline, status, description, created_at, updated_at`

func (s *SQLiteStore) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+sqliteScenarioColumns+` FROM scenarios WHERE id = ?`, id)
	sc, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("scenario", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get scenario %s", id)
	}
	return sc, nil
}

func (s *SQLiteStore) ListScenarios(ctx context.Context, filter ScenarioFilter) ([]model.Scenario, error) {
	query := `SELECT ` + sqliteScenarioColumns + ` FROM scenarios WHERE 1=1`
	var args []any

	if filter.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, defaultLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scenarios")
	}
	defer rows.Close()

	var out []model.Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scenario")
		}
		out = append(out, *sc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list scenarios iterate")
}

func (s *SQLiteStore) UpdateScenarioStatus(ctx context.Context, id string, status model.ScenarioStatus) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE scenarios SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update scenario status %s", id)
	}
	return checkRowsAffected(res, "scenario", id)
}

// Stages

func (s *SQLiteStore) CreateStage(ctx context.Context, scenarioID string, def model.StageDef) (*model.LifecycleStage, error) {
	st := &model.LifecycleStage{
		ID:          uuid.New().String(),
		ScenarioID:  scenarioID,
		StageOrder:  def.Order,
		StageType:   def.StageType,
		Name:        def.Name,
		Description: def.Description,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO lifecycle_stages (id, scenario_id, stage_order, stage_type, name, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.ScenarioID, st.StageOrder, st.StageType, st.Name, st.Description, st.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert stage for scenario %s", scenarioID)
	}
	return st, nil
}

const sqliteStageColumns = `id, scenario_id, stage_order, stage_type, name, description, created_at`

func (s *SQLiteStore) GetStage(ctx context.Context, id string) (*model.LifecycleStage, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+sqliteStageColumns+` FROM lifecycle_stages WHERE id = ?`, id)
	st, err := scanStage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("stage", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get stage %s", id)
	}
	return st, nil
}

func (s *SQLiteStore) ListStagesByScenario(ctx context.Context, scenarioID string) ([]model.LifecycleStage, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+sqliteStageColumns+` FROM lifecycle_stages
		 WHERE scenario_id = ? ORDER BY stage_order ASC, rowid ASC`,
		scenarioID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stages")
	}
	defer rows.Close()

	var out []model.LifecycleStage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stage")
		}
		out = append(out, *st)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list stages iterate")
}

// Parameters

func (s *SQLiteStore) CreateParameter(ctx context.Context, in model.NewParameter) (*model.StageParameter, error) {
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
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO stage_parameters (id, stage_id, name, type, unit, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.StageID, p.Name, string(p.Type), p.Unit, string(p.Source), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert parameter %s for stage %s", in.Name, in.StageID)
	}
	return p, nil
}

const sqliteParamColumns = `p.id, p.stage_id, p.name, p.type, p.unit, p.value, p.text_value, p.source,
	p.ai_model_name, p.ai_model_version, p.ai_confidence, p.created_at, p.updated_at`

func (s *SQLiteStore) GetParameter(ctx context.Context, id string) (*model.StageParameter, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+sqliteParamColumns+` FROM stage_parameters p WHERE p.id = ?`, id)
	p, err := scanParameter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("parameter", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get parameter %s", id)
	}
	return p, nil
}

func (s *SQLiteStore) ListParametersByStage(ctx context.Context, stageID string) ([]model.StageParameter, error) {
	return s.queryParameters(ctx, "list parameters by stage",
		`SELECT `+sqliteParamColumns+` FROM stage_parameters p
		 WHERE p.stage_id = ? ORDER BY p.rowid ASC`,
		stageID,
	)
}

func (s *SQLiteStore) ListParametersByScenario(ctx context.Context, scenarioID string) ([]model.StageParameter, error) {
	return s.queryParameters(ctx, "list parameters by scenario",
		`SELECT `+sqliteParamColumns+` FROM stage_parameters p
		 JOIN lifecycle_stages s ON s.id = p.stage_id
		 WHERE s.scenario_id = ?
		 ORDER BY s.stage_order ASC, s.rowid ASC, p.rowid ASC`,
		scenarioID,
	)
}

func (s *SQLiteStore) ListIncompleteParameters(ctx context.Context, scenarioID string) ([]model.StageParameter, error) {
	return s.queryParameters(ctx, "list incomplete parameters",
		`SELECT `+sqliteParamColumns+` FROM stage_parameters p
		 JOIN lifecycle_stages s ON s.id = p.stage_id
		 WHERE s.scenario_id = ? AND p.value IS NULL AND p.text_value IS NULL
		 ORDER BY s.stage_order ASC, s.rowid ASC, p.rowid ASC`,
		scenarioID,
	)
}

func (s *SQLiteStore) UpdateParameterValue(ctx context.Context, id string, v model.ParameterValue) (*model.StageParameter, error) {
	var aiName, aiVersion sql.NullString
	var aiConf sql.NullFloat64
	if v.AI != nil {
		aiName = sql.NullString{String: v.AI.ModelName, Valid: true}
		aiVersion = sql.NullString{String: v.AI.ModelVersion, Valid: true}
		aiConf = sql.NullFloat64{Float64: v.AI.Confidence, Valid: true}
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE stage_parameters
		 SET value = ?, text_value = ?, source = ?, ai_model_name = ?, ai_model_version = ?, ai_confidence = ?, updated_at = ?
		 WHERE id = ?`,
		nullFloat(v.Value), nullString(v.TextValue), string(v.Source),
		aiName, aiVersion, aiConf, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update parameter %s", id)
	}
	if err := checkRowsAffected(res, "parameter", id); err != nil {
		return nil, err
	}
	return s.GetParameter(ctx, id)
}

func (s *SQLiteStore) FillParameterIfUnset(ctx context.Context, id string, v model.ParameterValue) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE stage_parameters
		 SET value = ?, text_value = ?, source = ?, ai_model_name = NULL, ai_model_version = NULL, ai_confidence = NULL, updated_at = ?
		 WHERE id = ? AND value IS NULL AND text_value IS NULL`,
		nullFloat(v.Value), nullString(v.TextValue), string(v.Source), time.Now().UTC(), id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: fill parameter %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) queryParameters(ctx context.Context, op, query string, args ...any) ([]model.StageParameter, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", op)
	}
	defer rows.Close()

	var out []model.StageParameter
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan parameter")
		}
		out = append(out, *p)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: %s iterate", op)
}

// Results

func (s *SQLiteStore) CreateEnvironmentalResult(ctx context.Context, r model.EnvironmentalResult) (*model.EnvironmentalResult, error) {
	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO environmental_results (id, scenario_id, stage_id, run_id, indicator_type, value, unit, calculation_method, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ScenarioID, emptyToNull(r.StageID), emptyToNull(r.RunID), string(r.IndicatorType),
		r.Value, r.Unit, r.CalculationMethod, r.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert environmental result %s", r.IndicatorType)
	}
	return &r, nil
}

func (s *SQLiteStore) CreateCircularityResult(ctx context.Context, r model.CircularityResult) (*model.CircularityResult, error) {
	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()

	var details sql.NullString
	if len(r.Details) > 0 {
		b, err := json.Marshal(r.Details)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal circularity details")
		}
		details = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO circularity_results (id, scenario_id, run_id, metric_type, value, unit, calculation_method, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ScenarioID, emptyToNull(r.RunID), string(r.MetricType),
		r.Value, r.Unit, r.CalculationMethod, details, r.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert circularity result %s", r.MetricType)
	}
	return &r, nil
}

func (s *SQLiteStore) ListEnvironmentalResults(ctx context.Context, scenarioID, runID string) ([]model.EnvironmentalResult, error) {
	query := `SELECT id, scenario_id, stage_id, run_id, indicator_type, value, unit, calculation_method, created_at
	          FROM environmental_results WHERE scenario_id = ?`
	args := []any{scenarioID}
	if runID != "" {
		query += ` AND run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY rowid ASC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list environmental results")
	}
	defer rows.Close()

	var out []model.EnvironmentalResult
	for rows.Next() {
		var r model.EnvironmentalResult
		var stageID, run sql.NullString
		if err := rows.Scan(&r.ID, &r.ScenarioID, &stageID, &run, &r.IndicatorType,
			&r.Value, &r.Unit, &r.CalculationMethod, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan environmental result")
		}
		r.StageID = stageID.String
		r.RunID = run.String
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list environmental results iterate")
}

func (s *SQLiteStore) ListCircularityResults(ctx context.Context, scenarioID, runID string) ([]model.CircularityResult, error) {
	query := `SELECT id, scenario_id, run_id, metric_type, value, unit, calculation_method, details, created_at
	          FROM circularity_results WHERE scenario_id = ?`
	args := []any{scenarioID}
	if runID != "" {
		query += ` AND run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY rowid ASC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list circularity results")
	}
	defer rows.Close()

	var out []model.CircularityResult
	for rows.Next() {
		var r model.CircularityResult
		var run, details sql.NullString
		if err := rows.Scan(&r.ID, &r.ScenarioID, &run, &r.MetricType,
			&r.Value, &r.Unit, &r.CalculationMethod, &details, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan circularity result")
		}
		r.RunID = run.String
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &r.Details); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal circularity details")
			}
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list circularity results iterate")
}

// Flows

func (s *SQLiteStore) RecordFlows(ctx context.Context, flows []model.MaterialFlow) (int, error) {
	if len(flows) == 0 {
		return 0, nil
	}
	err := s.WithinTx(ctx, func(tx Store) error {
		q := tx.(*SQLiteStore).q
		now := time.Now().UTC()
		for _, f := range flows {
			_, err := q.ExecContext(ctx,
				`INSERT INTO material_flows (id, scenario_id, from_stage_id, to_stage_id, material_type, quantity, unit, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), f.ScenarioID, emptyToNull(f.FromStageID), emptyToNull(f.ToStageID),
				f.MaterialType, f.Quantity, f.Unit, now,
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: insert flow %s", f.MaterialType)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(flows), nil
}

func (s *SQLiteStore) ListFlowsByScenario(ctx context.Context, scenarioID string) ([]model.MaterialFlow, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, scenario_id, from_stage_id, to_stage_id, material_type, quantity, unit, created_at
		 FROM material_flows WHERE scenario_id = ? ORDER BY rowid ASC`,
		scenarioID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list flows")
	}
	defer rows.Close()

	var out []model.MaterialFlow
	for rows.Next() {
		var f model.MaterialFlow
		var from, to sql.NullString
		if err := rows.Scan(&f.ID, &f.ScenarioID, &from, &to, &f.MaterialType, &f.Quantity, &f.Unit, &f.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan flow")
		}
		f.FromStageID = from.String
		f.ToStageID = to.String
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list flows iterate")
}

// Runs

func (s *SQLiteStore) CreateRun(ctx context.Context, scenarioID string) (*model.ComputationRun, error) {
	run := &model.ComputationRun{
		ID:         uuid.New().String(),
		ScenarioID: scenarioID,
		Status:     model.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO computation_runs (id, scenario_id, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.ScenarioID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert run for scenario %s", scenarioID)
	}
	return run, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE computation_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) LatestRun(ctx context.Context, scenarioID string, status model.RunStatus) (*model.ComputationRun, error) {
	query := `SELECT id, scenario_id, status, error, started_at, finished_at
	          FROM computation_runs WHERE scenario_id = ?`
	args := []any{scenarioID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT 1`

	var run model.ComputationRun
	var finished sql.NullTime
	err := s.q.QueryRowContext(ctx, query, args...).
		Scan(&run.ID, &run.ScenarioID, &run.Status, &run.Error, &run.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("run for scenario", scenarioID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest run for scenario %s", scenarioID)
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanScenario(row scannable) (*model.Scenario, error) {
	var sc model.Scenario
	var route, status string
	if err := row.Scan(&sc.ID, &sc.ProjectID, &sc.Name, &route, &sc.IsBaseline, &status,
		&sc.Description, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
		return nil, err
	}
	sc.RouteType = model.ParseRouteType(route)
	sc.Status = model.ParseScenarioStatus(status)
	return &sc, nil
}

func scanStage(row scannable) (*model.LifecycleStage, error) {
	var st model.LifecycleStage
	if err := row.Scan(&st.ID, &st.ScenarioID, &st.StageOrder, &st.StageType, &st.Name,
		&st.Description, &st.CreatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

func scanParameter(row scannable) (*model.StageParameter, error) {
	var p model.StageParameter
	var typ, source string
	var value, aiConf sql.NullFloat64
	var text, aiName, aiVersion sql.NullString

	if err := row.Scan(&p.ID, &p.StageID, &p.Name, &typ, &p.Unit, &value, &text, &source,
		&aiName, &aiVersion, &aiConf, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Type = model.ParseParameterType(typ)
	p.Source = model.ParseParameterSource(source)
	if value.Valid {
		p.Value = model.Float(value.Float64)
	}
	if text.Valid {
		p.TextValue = model.String(text.String)
	}
	if aiName.Valid || aiVersion.Valid || aiConf.Valid {
		p.AI = &model.AIProvenance{
			ModelName:    aiName.String,
			ModelVersion: aiVersion.String,
			Confidence:   aiConf.Float64,
		}
	}
	return &p, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func emptyToNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
