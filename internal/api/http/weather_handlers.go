package http

import (
	"net/http"
	"strings"

	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/weather"
)

func ListStationsHandler(store weather.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListStations(r.Context())
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// stationParam reads ?station=, falling back to def.
func stationParam(r *http.Request, def string) string {
	if s := strings.TrimSpace(r.URL.Query().Get("station")); s != "" {
		return strings.ToUpper(s)
	}
	return def
}

func ForecastHandler(store weather.Store, defStation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fc, err := store.Forecast(r.Context(), stationParam(r, defStation))
		if err != nil {
			fail(w, r, err, locale.MsgStationNotFound)
			return
		}
		writeJSON(w, http.StatusOK, fc)
	}
}

func HistoryHandler(store weather.Store, defStation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := store.History(r.Context(), stationParam(r, defStation))
		if err != nil {
			fail(w, r, err, locale.MsgStationNotFound)
			return
		}
		writeJSON(w, http.StatusOK, h)
	}
}

func RainfallStatsHandler(store weather.Store, defStation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.RainfallStats(r.Context(), stationParam(r, defStation))
		if err != nil {
			fail(w, r, err, locale.MsgStationNotFound)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
