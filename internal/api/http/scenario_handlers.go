package http

import (
	"context"
	"net/http"

	"github.com/siad-agro/siad-api/internal/audit"
	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/prices"
	"github.com/siad-agro/siad-api/internal/scenario"
)

// QuoteBoard is the part of the price service the scenario routes read.
type QuoteBoard interface {
	Current(ctx context.Context) (prices.Board, error)
}

type projectionResp struct {
	Inputs scenario.Inputs `json:"inputs"`
	scenario.Projection
	Display  scenario.Display `json:"display"`
	Warnings []string         `json:"warnings,omitempty"`
}

func newProjectionResp(in scenario.Inputs) projectionResp {
	p := scenario.Project(in)
	return projectionResp{Inputs: in, Projection: p, Display: p.Display(), Warnings: in.DomainWarnings()}
}

type presetResp struct {
	scenario.Preset
	Projection projectionResp `json:"projection"`
}

// ProjectHandler runs the projector on the posted slider values. Out-of-domain values
// are projected anyway and reported in warnings.
func ProjectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in scenario.Inputs
		if !decodeJSON(w, r, &in) {
			return
		}
		writeJSON(w, http.StatusOK, newProjectionResp(in))
	}
}

func PresetsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		presets := scenario.Presets()
		out := make([]presetResp, 0, len(presets))
		for _, p := range presets {
			out = append(out, presetResp{Preset: p, Projection: newProjectionResp(p.Inputs())})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// MonteCarloHandler prices the simulation at the current spot quote when the request
// leaves bag_price unset.
func MonteCarloHandler(board QuoteBoard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scenario.MonteCarloRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.BagPrice == 0 && board != nil {
			if b, err := board.Current(r.Context()); err == nil {
				if q, ok := b.Get(prices.KeySoybeanSpot); ok && q.Data.PriceRSc > 0 {
					req.BagPrice = q.Data.PriceRSc
				}
			}
		}
		res, err := scenario.MonteCarlo(r.Context(), req)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func CreateScenarioHandler(svc *scenario.Service, rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sc scenario.Scenario
		if !decodeJSON(w, r, &sc) {
			return
		}
		uid := authmw.UserIDFromContext(r.Context())
		out, err := svc.Create(r.Context(), uid, sc)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		rec.Record(r, uid, audit.ActionScenario, map[string]any{"scenario_id": out.ID, "name": out.Name})
		writeJSON(w, http.StatusCreated, out)
	}
}

// ListScenariosHandler lists the caller's scenarios.
func ListScenariosHandler(svc *scenario.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), authmw.UserIDFromContext(r.Context()))
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func EvaluateScenarioHandler(svc *scenario.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "scenarioID")
		if !ok {
			return
		}
		ev, err := svc.Evaluate(r.Context(), id)
		if err != nil {
			fail(w, r, err, locale.MsgScenarioNotFound)
			return
		}
		writeJSON(w, http.StatusOK, ev)
	}
}

// CompareScenariosHandler takes a JSON array of scenario ids and returns the latest
// evaluation of each evaluated one.
func CompareScenariosHandler(svc *scenario.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ids []int64
		if !decodeJSON(w, r, &ids) {
			return
		}
		list, err := svc.Compare(r.Context(), ids)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
