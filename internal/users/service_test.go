package users

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/db/dbtest"
	"github.com/siad-agro/siad-api/internal/rbac"
)

func newService(t *testing.T) *Service {
	t.Helper()
	auth := authmw.NewAuthService("a", "r", 30*time.Minute, 7*24*time.Hour)
	svc := NewService(NewSQLStore(dbtest.Open(t)), auth)
	svc.cost = bcrypt.MinCost
	return svc
}

func register(t *testing.T, svc *Service, email, role string) User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Email: email, Password: "campo123", FullName: "Produtor Rural", Role: role,
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	svc := newService(t)
	u := register(t, svc, "Produtor@Siad.ag", rbac.RoleProdutor)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "produtor@siad.ag", u.Email)
	assert.Equal(t, "pt-BR", u.Locale)
	assert.True(t, u.IsActive)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "produtor@siad.ag", Password: "campo123", FullName: "X", Role: rbac.RoleProdutor,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)
	bad := []RegisterInput{
		{Email: "not-an-email", Password: "campo123", FullName: "X", Role: "produtor"},
		{Email: "a@siad.ag", Password: "123", FullName: "X", Role: "produtor"},
		{Email: "a@siad.ag", Password: "campo123", FullName: " ", Role: "produtor"},
		{Email: "a@siad.ag", Password: "campo123", FullName: "X", Role: "admin"},
	}
	for _, in := range bad {
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, db.ErrInvalid, "%+v", in)
	}
}

func TestSignUpKeepsElevatedRolesClosed(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	for _, role := range []string{rbac.RoleGestor, rbac.RoleAgronomo} {
		_, err := svc.SignUp(ctx, RegisterInput{
			Email: role + "@siad.ag", Password: "campo123", FullName: "X", Role: role,
		})
		assert.ErrorIs(t, err, ErrRoleNotAllowed, role)
	}
	_, err := svc.SignUp(ctx, RegisterInput{Email: "x@siad.ag", Password: "campo123", FullName: "X", Role: "admin"})
	assert.ErrorIs(t, err, db.ErrInvalid)

	u, err := svc.SignUp(ctx, RegisterInput{
		Email: "v@siad.ag", Password: "campo123", FullName: "Leitor", Role: rbac.RoleVisualizador,
	})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleVisualizador, u.Role)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLoginRefreshLogout(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	u := register(t, svc, "agro@siad.ag", rbac.RoleAgronomo)

	_, _, err := svc.Login(ctx, "agro@siad.ag", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ghost@siad.ag", "campo123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, pair, err := svc.Login(ctx, "AGRO@siad.ag", "campo123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := svc.auth.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAgronomo, claims.Role)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh, "rotated token is revoked")

	owner, err := svc.Logout(ctx, next.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner)
	_, err = svc.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	owner, err = svc.Logout(ctx, next.RefreshToken)
	require.NoError(t, err)
	assert.Zero(t, owner, "second logout is a no-op")

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshRejectsUnstoredToken(t *testing.T) {
	svc := newService(t)
	u := register(t, svc, "p@siad.ag", rbac.RoleProdutor)
	pair, err := svc.auth.IssuePair(u.ID, u.Role, u.Locale)
	require.NoError(t, err)
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

// revokeBetween revokes the token right after the ownership check, the way a second
// concurrent refresh on another connection would.
type revokeBetween struct {
	Store
}

func (s revokeBetween) RefreshTokenOwner(ctx context.Context, token string) (int64, error) {
	uid, err := s.Store.RefreshTokenOwner(ctx, token)
	if err == nil {
		_ = s.Store.RevokeRefreshToken(ctx, token)
	}
	return uid, err
}

func TestRefreshLosesRotationRace(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	register(t, svc, "r@siad.ag", rbac.RoleProdutor)
	_, pair, err := svc.Login(ctx, "r@siad.ag", "campo123")
	require.NoError(t, err)

	racing := NewService(revokeBetween{svc.store}, svc.auth).WithCost(bcrypt.MinCost)
	_, err = racing.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestConcurrentRefreshIssuesOnePair(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	register(t, svc, "c@siad.ag", rbac.RoleProdutor)
	_, pair, err := svc.Login(ctx, "c@siad.ag", "campo123")
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		ok atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Refresh(ctx, pair.RefreshToken); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, ok.Load())
}

func TestRevokeRefreshTokenOnce(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	u := register(t, svc, "o@siad.ag", rbac.RoleProdutor)
	require.NoError(t, svc.store.SaveRefreshToken(ctx, u.ID, "tok"))
	require.NoError(t, svc.store.RevokeRefreshToken(ctx, "tok"))
	assert.ErrorIs(t, svc.store.RevokeRefreshToken(ctx, "tok"), ErrInvalidRefresh)
	assert.ErrorIs(t, svc.store.RevokeRefreshToken(ctx, "missing"), ErrInvalidRefresh)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	u := register(t, svc, "g@siad.ag", rbac.RoleGestor)
	_, pair, err := svc.Login(ctx, "g@siad.ag", "campo123")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "nope", "admin123"), ErrWrongPassword)
	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "campo123", "x"), db.ErrInvalid)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "campo123", "admin123"))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
	_, _, err = svc.Login(ctx, "g@siad.ag", "admin123")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, 999, "a", "bbbbbbbb")
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	u := register(t, svc, "v@siad.ag", rbac.RoleVisualizador)

	saved, err := svc.SavePreferences(ctx, u.ID, Preferences{Theme: "dark", MapLayers: []string{"ndvi", "solo"}, Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "en-US", saved.Locale)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, Preferences{Theme: "dark", MapLayers: []string{"ndvi", "solo"}, Locale: "en-US"}, got.Preferences)
	assert.Equal(t, "en-US", got.Locale)

	_, err = svc.SavePreferences(ctx, u.ID, Preferences{MapLayers: []string{"lava"}})
	assert.ErrorIs(t, err, db.ErrInvalid)
	_, err = svc.SavePreferences(ctx, u.ID, Preferences{Theme: "neon"})
	assert.ErrorIs(t, err, db.ErrInvalid)
}

func TestList(t *testing.T) {
	svc := newService(t)
	register(t, svc, "b@siad.ag", rbac.RoleProdutor)
	register(t, svc, "a@siad.ag", rbac.RoleAgronomo)
	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a@siad.ag", all[0].Email)
	prod, err := svc.List(context.Background(), rbac.RoleProdutor)
	require.NoError(t, err)
	require.Len(t, prod, 1)
}
