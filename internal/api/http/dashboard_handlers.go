package http

import (
	"net/http"

	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/dashboard"
	"github.com/siad-agro/siad-api/internal/users"
)

func kpiFilter(r *http.Request) dashboard.KPIFilter {
	q := r.URL.Query()
	return dashboard.KPIFilter{
		FarmID:  parseInt64Default(q.Get("farm_id"), 0),
		FieldID: parseInt64Default(q.Get("field_id"), 0),
	}
}

func KPIsHandler(src dashboard.KPISource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, err := src.KPIs(r.Context(), kpiFilter(r))
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, k)
	}
}

// OverviewHandler always answers 200; degraded panels carry source "fallback". The
// station is ?station=, then the user's saved preference, then the configured default.
func OverviewHandler(svc *dashboard.Service, us *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		station := stationParam(r, "")
		if station == "" {
			if u, err := us.Get(r.Context(), authmw.UserIDFromContext(r.Context())); err == nil {
				station = u.Preferences.Station
			}
		}
		writeJSON(w, http.StatusOK, svc.Overview(r.Context(), station, kpiFilter(r)))
	}
}
