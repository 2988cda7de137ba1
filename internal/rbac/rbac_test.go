package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerRoles(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{RoleVisualizador, "dashboard:view", true},
		{RoleVisualizador, "scenario:create", false},
		{RoleProdutor, "scenario:create", true},
		{RoleProdutor, "soil:create", false},
		{RoleProdutor, "etl:upload", false},
		{RoleAgronomo, "etl:upload", true},
		{RoleAgronomo, "fields:layer", true},
		{RoleAgronomo, "prices:refresh", false},
		{RoleAgronomo, "users:list", false},
		{RoleGestor, "prices:refresh", true},
		{RoleGestor, "users:list", true},
		{"intruso", "dashboard:view", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Has(tc.role, tc.perm), "%s %s", tc.role, tc.perm)
	}
	assert.True(t, c.Any(RoleProdutor, "etl:upload", "reports:create"))
	assert.False(t, c.Any(RoleVisualizador, "etl:upload", "reports:create"))
}

func TestReadOnlyListNotAliased(t *testing.T) {
	assert.Len(t, RolePermissions[RoleVisualizador], len(readOnly))
	assert.NotContains(t, RolePermissions[RoleVisualizador], "scenario:create")
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("agronomo"))
	assert.False(t, ValidRole("admin"))
}

func TestAllowed(t *testing.T) {
	ctx := WithRole(context.Background(), RoleAgronomo)
	assert.True(t, Allowed(ctx, "etl:preview"))
	assert.False(t, Allowed(ctx, "prices:refresh"))
	assert.False(t, Allowed(context.Background(), "dashboard:view"))
}

func TestSelfServiceRole(t *testing.T) {
	assert.True(t, SelfServiceRole(RoleProdutor))
	assert.True(t, SelfServiceRole(RoleVisualizador))
	assert.False(t, SelfServiceRole(RoleAgronomo))
	assert.False(t, SelfServiceRole(RoleGestor))
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := Require("soil:create")(ok)

	req := httptest.NewRequest(http.MethodPost, "/soil/samples", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"detail":"Acesso negado"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), RoleAgronomo)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	RequireAny("etl:upload", "prices:refresh")(ok).ServeHTTP(rec, req.WithContext(WithRole(req.Context(), RoleProdutor)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
