package http

import (
	"net/http"

	"github.com/siad-agro/siad-api/internal/inputs"
	"github.com/siad-agro/siad-api/internal/locale"
)

func ListInputsHandler(store *inputs.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context())
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func CreateInputHandler(store *inputs.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var it inputs.Item
		if !decodeJSON(w, r, &it) {
			return
		}
		out, err := store.Create(r.Context(), it)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func CostAnalysisHandler(store *inputs.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req inputs.CostAnalysisRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		out, err := store.AnalyzeCost(r.Context(), req)
		if err != nil {
			fail(w, r, err, locale.MsgFieldNotFound)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
