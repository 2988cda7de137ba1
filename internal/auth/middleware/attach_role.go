package auth

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/rbac"
)

// AttachUserFromDB replaces the token role with the stored one and rejects tokens whose
// user was deleted or deactivated after issue. Mount after JWTMiddleware.
func AttachUserFromDB(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var (
				role   string
				active bool
			)
			err := db.QueryRowContext(ctx, `SELECT role, is_active FROM users WHERE id=$1`, UserIDFromContext(ctx)).
				Scan(&role, &active)
			switch {
			case errors.Is(err, sql.ErrNoRows) || (err == nil && !active):
				locale.WriteError(w, r, http.StatusUnauthorized, locale.MsgUserNotFound)
			case err != nil:
				locale.WriteError(w, r, http.StatusInternalServerError, locale.MsgInternal)
			default:
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			}
		})
	}
}
