package http

import (
	"net/http"

	"github.com/siad-agro/siad-api/internal/audit"
	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/prices"
)

func CurrentPricesHandler(svc *prices.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.Current(r.Context())
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func RefreshPricesHandler(svc *prices.Service, rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Refresh(r.Context())
		if err != nil {
			fail(w, r, err, "")
			return
		}
		rec.Record(r, authmw.UserIDFromContext(r.Context()), audit.ActionPriceRefresh,
			map[string]any{"live_quotes": res.LiveQuotes})
		writeJSON(w, http.StatusOK, res)
	}
}
