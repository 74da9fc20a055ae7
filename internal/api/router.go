// Package api exposes the scenario service over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/report"
	"github.com/sells-group/lca-cli/internal/scenario"
	"github.com/sells-group/lca-cli/internal/store"
)

const requestTimeout = 60 * time.Second

type handler struct {
	svc *scenario.Service
}

// NewRouter builds the HTTP routes for svc. An empty allowedOrigins permits
// every origin.
func NewRouter(svc *scenario.Service, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/scenarios", func(r chi.Router) {
		r.Get("/", h.listScenarios)
		r.Post("/", h.createScenario)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getScenario)
			r.Get("/completeness", h.completeness)
			r.Post("/autofill", h.autofill)
			r.Post("/compute", h.compute)
			r.Get("/results", h.results)
			r.Get("/report.xlsx", h.exportReport)
			r.Get("/flows", h.listFlows)
			r.Post("/flows", h.recordFlows)
		})
	})
	r.Put("/parameters/{id}", h.setParameter)

	return r
}

func (h *handler) listScenarios(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ScenarioFilter{
		ProjectID: q.Get("project_id"),
		Limit:     atoiOr(q.Get("limit"), 0),
		Offset:    atoiOr(q.Get("offset"), 0),
	}
	if s := q.Get("status"); s != "" {
		filter.Status = model.ParseScenarioStatus(s)
	}

	scenarios, err := h.svc.ListScenarios(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if scenarios == nil {
		scenarios = []model.Scenario{}
	}
	writeJSON(w, http.StatusOK, scenarios)
}

func (h *handler) createScenario(w http.ResponseWriter, r *http.Request) {
	var req model.NewScenario
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if req.ProjectID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "project_id and name are required"})
		return
	}

	detail, err := h.svc.CreateScenario(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (h *handler) getScenario(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetScenario(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type completenessResponse struct {
	*scenario.Report
	Percent float64 `json:"percent"`
}

func (h *handler) completeness(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Completeness(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completenessResponse{Report: rep, Percent: rep.Percent()})
}

func (h *handler) listFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := h.svc.ListMaterialFlows(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if flows == nil {
		flows = []model.MaterialFlow{}
	}
	writeJSON(w, http.StatusOK, flows)
}

func (h *handler) recordFlows(w http.ResponseWriter, r *http.Request) {
	var req []model.MaterialFlow
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	n, err := h.svc.RecordMaterialFlows(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"recorded": n})
}

func (h *handler) autofill(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ApplyIndustryDefaults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"filled": n})
}

func (h *handler) compute(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.ComputeScenarioResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *handler) results(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.LatestResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *handler) exportReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, err := h.svc.GetScenario(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := h.svc.LatestResults(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="scenario-`+id+`.xlsx"`)
	err = report.WriteXLSX(w, report.Report{
		Scenario: *detail.Scenario,
		Stages:   detail.Stages,
		Results:  *results,
	})
	if err != nil {
		// Headers are already sent.
		zap.L().Error("api: write report", zap.String("scenario_id", id), zap.Error(err))
	}
}

func (h *handler) setParameter(w http.ResponseWriter, r *http.Request) {
	var req model.ParameterValue
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	p, err := h.svc.SetParameterValue(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps service failures onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case eris.Is(err, scenario.ErrScenarioNotFound),
		eris.Is(err, scenario.ErrStageNotFound),
		eris.Is(err, scenario.ErrParameterNotFound),
		eris.Is(err, scenario.ErrNoResults):
		return http.StatusNotFound
	case eris.Is(err, scenario.ErrIncompleteScenario),
		eris.Is(err, scenario.ErrInvalidValue),
		eris.Is(err, scenario.ErrTemplateNotFound):
		return http.StatusUnprocessableEntity
	case eris.Is(err, scenario.ErrComputeInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
