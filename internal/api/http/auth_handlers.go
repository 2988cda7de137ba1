package http

import (
	"net/http"
	"strings"

	"github.com/siad-agro/siad-api/internal/audit"
	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/rbac"
	"github.com/siad-agro/siad-api/internal/users"
)

// Recorder appends audit entries; failures are logged by the implementation.
type Recorder interface {
	Record(req *http.Request, userID int64, action string, payload map[string]any)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type loginResp struct {
	authmw.TokenPair
	User users.User `json:"user"`
}

type meResp struct {
	users.User
	Permissions []string `json:"permissions"`
}

func RegisterHandler(svc *users.Service, rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in users.RegisterInput
		if !decodeJSON(w, r, &in) {
			return
		}
		in.Email = strings.ToLower(strings.TrimSpace(in.Email))
		u, err := svc.SignUp(r.Context(), in)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		rec.Record(r, u.ID, audit.ActionRegister, map[string]any{"email": u.Email, "role": u.Role})
		writeJSON(w, http.StatusCreated, u)
	}
}

func LoginHandler(svc *users.Service, rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if !decodeJSON(w, r, &req) {
			return
		}
		u, pair, err := svc.Login(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		rec.Record(r, u.ID, audit.ActionLogin, nil)
		writeJSON(w, http.StatusOK, loginResp{TokenPair: pair, User: u})
	}
}

func RefreshHandler(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshReq
		if !decodeJSON(w, r, &req) {
			return
		}
		pair, err := svc.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func LogoutHandler(svc *users.Service, rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshReq
		if !decodeJSON(w, r, &req) {
			return
		}
		uid, err := svc.Logout(r.Context(), req.RefreshToken)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		if uid != 0 {
			rec.Record(r, uid, audit.ActionLogout, nil)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// MeHandler returns the caller's account with the permissions of its stored role.
func MeHandler(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Get(r.Context(), authmw.UserIDFromContext(r.Context()))
		if err != nil {
			fail(w, r, err, locale.MsgUserNotFound)
			return
		}
		writeJSON(w, http.StatusOK, meResp{User: u, Permissions: rbac.Permissions(u.Role)})
	}
}
