package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/siad-agro/siad-api/internal/audit"
	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/etl"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/rbac"
	"github.com/siad-agro/siad-api/internal/reports"
	"github.com/siad-agro/siad-api/internal/storage"
)

func UploadHandler(svc *etl.Service, rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, etl.MaxUploadBytes+1<<20)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			locale.WriteError(w, r, http.StatusBadRequest, locale.MsgBadRequest)
			return
		}
		defer f.Close()

		job, err := svc.Ingest(r.Context(), hdr.Filename, f)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		rec.Record(r, authmw.UserIDFromContext(r.Context()), audit.ActionUpload,
			map[string]any{"key": job.JobID, "filename": job.Filename, "issues": len(job.Issues)})
		writeJSON(w, http.StatusOK, job)
	}
}

// NormalizeRainfallHandler takes the stored key in ?file_path=.
func NormalizeRainfallHandler(svc *etl.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.URL.Query().Get("file_path"))
		if key == "" {
			locale.WriteError(w, r, http.StatusBadRequest, locale.MsgBadRequest)
			return
		}
		out, err := svc.NormalizeRainfall(r.Context(), key)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"normalized_path": out})
	}
}

func PreviewHandler(svc *etl.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m etl.Mapping
		if !decodeJSON(w, r, &m) {
			return
		}
		p, err := svc.Preview(r.Context(), m)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// MountFiles serves stored blobs: GET /* returns the blob at whatever follows the mount
// point.
func MountFiles(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if !strings.HasPrefix(path.Clean(key), reports.BlobPrefix) && !rbac.Allowed(r.Context(), "etl:upload") {
			locale.WriteError(w, r, http.StatusForbidden, locale.MsgAccessDenied)
			return
		}
		rc, err := bs.Get(r.Context(), key)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
		_, _ = io.Copy(w, rc)
	})
}
