package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/siad-agro/siad-api/internal/audit"
	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/reports"
)

// CreateReportHandler answers 202: rendering happens on the worker pool.
func CreateReportHandler(q *reports.Queue, rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reports.Request
		if !decodeJSON(w, r, &req) {
			return
		}
		j, err := q.Enqueue(r.Context(), req)
		if err != nil && !errors.Is(err, reports.ErrQueueFull) {
			fail(w, r, err, "")
			return
		}
		rec.Record(r, authmw.UserIDFromContext(r.Context()), audit.ActionReport,
			map[string]any{"report_id": j.ID, "report_type": string(j.ReportType)})
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusAccepted, j)
	}
}

func ListReportsHandler(q *reports.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := q.List(r.Context())
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetReportHandler(q *reports.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "reportID")
		if !ok {
			return
		}
		j, err := q.Get(r.Context(), id)
		if err != nil {
			fail(w, r, err, locale.MsgReportNotFound)
			return
		}
		writeJSON(w, http.StatusOK, j)
	}
}

func DownloadReportHandler(q *reports.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "reportID")
		if !ok {
			return
		}
		rc, err := q.Open(r.Context(), id)
		if err != nil {
			fail(w, r, err, locale.MsgReportNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="relatorio-%d.html"`, id))
		_, _ = io.Copy(w, rc)
	}
}
