package http

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/siad-agro/siad-api/internal/audit"
	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/users"
)

type bulkResult struct {
	Created int      `json:"created"`
	Skipped []string `json:"skipped"`
}

// BulkRegisterHandler registers accounts from a CSV or JSON upload. Rows whose e-mail is
// already registered are skipped; any other invalid row aborts with 400.
func BulkRegisterHandler(svc *users.Service, rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []users.RegisterInput
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				locale.WriteError(w, r, http.StatusBadRequest, locale.MsgBadRequest)
				return
			}
			defer f.Close()
			// sniff CSV vs JSON by the first non-space byte
			br := bufio.NewReader(f)
			first, err := firstNonSpace(br)
			if err != nil {
				locale.WriteError(w, r, http.StatusBadRequest, locale.MsgBadRequest)
				return
			}
			if first == '[' {
				err = json.NewDecoder(br).Decode(&rows)
			} else {
				rows, err = parseUserCSV(br)
			}
			if err != nil {
				fail(w, r, fmt.Errorf("%v: %w", err, db.ErrInvalid), "")
				return
			}
		} else if !decodeJSON(w, r, &rows) {
			return
		}

		res := bulkResult{Skipped: []string{}}
		for i, in := range rows {
			in.Email = strings.ToLower(strings.TrimSpace(in.Email))
			u, err := svc.Register(r.Context(), in)
			if errors.Is(err, users.ErrEmailTaken) {
				res.Skipped = append(res.Skipped, in.Email)
				continue
			}
			if err != nil {
				fail(w, r, fmt.Errorf("row %d: %w", i+1, err), "")
				return
			}
			rec.Record(r, authmw.UserIDFromContext(r.Context()), audit.ActionRegister,
				map[string]any{"email": u.Email, "role": u.Role, "bulk": true})
			res.Created++
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
		default:
			return b[0], nil
		}
	}
}

func parseUserCSV(r io.Reader) ([]users.RegisterInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"email", "password", "full_name", "role"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var rows []users.RegisterInput
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := users.RegisterInput{
			Email:    rec[idx["email"]],
			Password: rec[idx["password"]],
			FullName: rec[idx["full_name"]],
			Role:     strings.ToLower(rec[idx["role"]]),
		}
		if i, ok := idx["locale"]; ok {
			row.Locale = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func ListUsersHandler(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), r.URL.Query().Get("role"))
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetPreferencesHandler(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Get(r.Context(), authmw.UserIDFromContext(r.Context()))
		if err != nil {
			fail(w, r, err, locale.MsgUserNotFound)
			return
		}
		p := u.Preferences
		if p.Locale == "" {
			p.Locale = u.Locale
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func PutPreferencesHandler(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p users.Preferences
		if !decodeJSON(w, r, &p) {
			return
		}
		u, err := svc.SavePreferences(r.Context(), authmw.UserIDFromContext(r.Context()), p)
		if err != nil {
			fail(w, r, err, locale.MsgUserNotFound)
			return
		}
		writeJSON(w, http.StatusOK, u.Preferences)
	}
}
