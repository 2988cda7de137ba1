package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siad-agro/siad-api/internal/db/dbtest"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/rbac"
)

func newSvc() *AuthService {
	return NewAuthService("access-secret", "refresh-secret", 30*time.Minute, 7*24*time.Hour)
}

func TestIssueAndParsePair(t *testing.T) {
	a := newSvc()
	pair, err := a.IssuePair(42, rbac.RoleAgronomo, "en-US")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	c, err := a.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	uid, _ := c.UserID()
	assert.Equal(t, int64(42), uid)
	assert.Equal(t, rbac.RoleAgronomo, c.Role)
	assert.Equal(t, "en-US", c.Locale)

	rc, err := a.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TypeRefresh, rc.Type)

	// each secret only validates its own token type
	_, err = a.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
	_, err = a.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestPairsAreUnique(t *testing.T) {
	a := newSvc()
	p1, err := a.IssuePair(1, rbac.RoleGestor, "")
	require.NoError(t, err)
	p2, err := a.IssuePair(1, rbac.RoleGestor, "")
	require.NoError(t, err)
	assert.NotEqual(t, p1.RefreshToken, p2.RefreshToken)
}

func TestExpiredAccessRejected(t *testing.T) {
	a := newSvc()
	a.now = func() time.Time { return time.Now().Add(-time.Hour) }
	pair, err := a.IssuePair(1, rbac.RoleGestor, "")
	require.NoError(t, err)
	a.now = time.Now
	_, err = a.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestForeignSecretRejected(t *testing.T) {
	pair, err := NewAuthService("other", "other2", time.Minute, time.Minute).IssuePair(1, rbac.RoleGestor, "")
	require.NoError(t, err)
	_, err = newSvc().ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	a := newSvc()
	var uid int64
	var role string
	var lang string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid = UserIDFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
		lang = locale.FromContext(r.Context()).String()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Token inválido"}`, rec.Body.String())

	pair, err := a.IssuePair(9, rbac.RoleProdutor, "es")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), uid)
	assert.Equal(t, rbac.RoleProdutor, role)
	assert.Equal(t, "es", lang)
}

func TestAttachUserFromDB(t *testing.T) {
	dbh := dbtest.Open(t)
	active := dbtest.InsertID(t, dbh, `INSERT INTO users (email,hashed_password,full_name,role,is_active,created_at,updated_at)
		VALUES ('a@siad.ag','x','A','gestor',TRUE,0,0) RETURNING id`)
	inactive := dbtest.InsertID(t, dbh, `INSERT INTO users (email,hashed_password,full_name,role,is_active,created_at,updated_at)
		VALUES ('b@siad.ag','x','B','gestor',FALSE,0,0) RETURNING id`)

	var role string
	h := AttachUserFromDB(dbh)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role = rbac.RoleFromContext(r.Context())
	}))
	serve := func(uid int64, claimRole string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := rbac.WithRole(WithUserID(req.Context(), uid), claimRole)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req.WithContext(ctx))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(active, rbac.RoleVisualizador))
	assert.Equal(t, rbac.RoleGestor, role, "stored role wins over the token claim")
	assert.Equal(t, http.StatusUnauthorized, serve(inactive, rbac.RoleGestor))
	assert.Equal(t, http.StatusUnauthorized, serve(999, rbac.RoleGestor))
}
