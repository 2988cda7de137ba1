package http

import (
	"net/http"

	"github.com/siad-agro/siad-api/internal/audit"
	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/users"
)

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordHandler also signs the user out everywhere: existing refresh tokens are
// revoked, so clients must log in again.
func ChangePasswordHandler(svc *users.Service, rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.UserIDFromContext(r.Context())
		if userID == 0 {
			locale.WriteError(w, r, http.StatusUnauthorized, locale.MsgInvalidToken)
			return
		}

		var req changePasswordReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
			fail(w, r, err, locale.MsgUserNotFound)
			return
		}
		rec.Record(r, userID, audit.ActionPasswordReset, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}
