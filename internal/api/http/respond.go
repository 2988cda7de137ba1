package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/logging"
	"github.com/siad-agro/siad-api/internal/prices"
	"github.com/siad-agro/siad-api/internal/reports"
	"github.com/siad-agro/siad-api/internal/storage"
	"github.com/siad-agro/siad-api/internal/users"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"detail": locale.T(r.Context(), locale.MsgBadRequest),
			"reason": err.Error(),
		})
		return false
	}
	return true
}

// fail maps service errors to status codes. notFound names the missing resource.
func fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		if notFound == "" {
			notFound = locale.MsgNotFound
		}
		locale.WriteError(w, r, http.StatusNotFound, notFound)
	case errors.Is(err, db.ErrInvalid), errors.Is(err, storage.ErrBadKey):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"detail": locale.T(r.Context(), locale.MsgBadRequest),
			"reason": err.Error(),
		})
	case errors.Is(err, users.ErrEmailTaken):
		locale.WriteError(w, r, http.StatusConflict, locale.MsgEmailTaken)
	case errors.Is(err, db.ErrConflict):
		locale.WriteError(w, r, http.StatusConflict, locale.MsgConflict)
	case errors.Is(err, users.ErrInvalidCredentials):
		locale.WriteError(w, r, http.StatusUnauthorized, locale.MsgInvalidCreds)
	case errors.Is(err, users.ErrInvalidRefresh):
		locale.WriteError(w, r, http.StatusUnauthorized, locale.MsgInvalidRefresh)
	case errors.Is(err, users.ErrRoleNotAllowed):
		locale.WriteError(w, r, http.StatusForbidden, locale.MsgAccessDenied)
	case errors.Is(err, users.ErrWrongPassword):
		locale.WriteError(w, r, http.StatusForbidden, locale.MsgWrongPassword)
	case errors.Is(err, reports.ErrNotReady):
		locale.WriteError(w, r, http.StatusConflict, locale.MsgReportNotReady)
	case errors.Is(err, reports.ErrQueueFull):
		locale.WriteError(w, r, http.StatusServiceUnavailable, locale.MsgBusy)
	case errors.Is(err, prices.ErrUnavailable):
		locale.WriteError(w, r, http.StatusServiceUnavailable, locale.MsgPricesUnavailable)
	default:
		logging.FromContext(r.Context()).Error("handler failed", zap.Error(err), zap.String("path", r.URL.Path))
		locale.WriteError(w, r, http.StatusInternalServerError, locale.MsgInternal)
	}
}

// pathID parses a positive integer URL parameter, answering 400 otherwise.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		locale.WriteError(w, r, http.StatusBadRequest, locale.MsgBadRequest)
		return 0, false
	}
	return id, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func parseInt64Default(s string, def int64) int64 {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil && v >= 0 {
		return v
	}
	return def
}
