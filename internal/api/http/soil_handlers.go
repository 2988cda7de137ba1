package http

import (
	"net/http"

	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/soil"
)

func CreateSoilSampleHandler(store *soil.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s soil.Sample
		if !decodeJSON(w, r, &s) {
			return
		}
		out, err := store.Create(r.Context(), s)
		if err != nil {
			fail(w, r, err, locale.MsgFieldNotFound)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func SoilAnalysisHandler(store *soil.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := parseInt64Default(r.URL.Query().Get("field_id"), 0)
		if id == 0 {
			locale.WriteError(w, r, http.StatusBadRequest, locale.MsgBadRequest)
			return
		}
		a, err := store.Analyze(r.Context(), id)
		if err != nil {
			fail(w, r, err, locale.MsgFieldNotFound)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
