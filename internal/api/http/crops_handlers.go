package http

import (
	"net/http"

	"github.com/siad-agro/siad-api/internal/crops"
	"github.com/siad-agro/siad-api/internal/locale"
)

type simulationCompareReq struct {
	Scenarios []crops.SimulationRequest `json:"scenarios"`
}

func ListSeasonsHandler(svc *crops.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Seasons(r.Context())
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func ProductivityHandler(svc *crops.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := parseInt64Default(r.URL.Query().Get("season_id"), 0)
		if id == 0 {
			locale.WriteError(w, r, http.StatusBadRequest, locale.MsgBadRequest)
			return
		}
		list, err := svc.Productivity(r.Context(), id)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func SimulateHandler(svc *crops.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req crops.SimulationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Run(r.Context(), req)
		if err != nil {
			fail(w, r, err, locale.MsgFieldNotFound)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func CompareSimulationsHandler(svc *crops.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req simulationCompareReq
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Compare(r.Context(), req.Scenarios)
		if err != nil {
			fail(w, r, err, locale.MsgFieldNotFound)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
