package http

import (
	"net/http"

	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/fields"
	"github.com/siad-agro/siad-api/internal/locale"
)

// ListFieldsHandler lists every field with its layers; ?owner_id= narrows the list.
func ListFieldsHandler(store *fields.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), parseInt64Default(r.URL.Query().Get("owner_id"), 0))
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetFieldHandler(store *fields.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "fieldID")
		if !ok {
			return
		}
		f, err := store.Get(r.Context(), id)
		if err != nil {
			fail(w, r, err, locale.MsgFieldNotFound)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func CreateFieldHandler(store *fields.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f fields.Field
		if !decodeJSON(w, r, &f) {
			return
		}
		out, err := store.Create(r.Context(), authmw.UserIDFromContext(r.Context()), f)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func AddLayerHandler(store *fields.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "fieldID")
		if !ok {
			return
		}
		var l fields.Layer
		if !decodeJSON(w, r, &l) {
			return
		}
		out, err := store.AddLayer(r.Context(), id, l)
		if err != nil {
			fail(w, r, err, locale.MsgFieldNotFound)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}
