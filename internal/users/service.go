package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/rbac"
)

const minPasswordLen = 6

type Service struct {
	store Store
	auth  *authmw.AuthService
	cost  int
}

func NewService(store Store, auth *authmw.AuthService) *Service {
	return &Service{store: store, auth: auth, cost: 12}
}

// WithCost sets the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Locale   string `json:"locale"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return User{}, fmt.Errorf("email: %w", db.ErrInvalid)
	}
	if len(in.Password) < minPasswordLen {
		return User{}, fmt.Errorf("password shorter than %d: %w", minPasswordLen, db.ErrInvalid)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return User{}, fmt.Errorf("full_name required: %w", db.ErrInvalid)
	}
	if !rbac.ValidRole(in.Role) {
		return User{}, fmt.Errorf("role %q: %w", in.Role, db.ErrInvalid)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}
	return s.store.Create(ctx, User{
		Email:          in.Email,
		FullName:       strings.TrimSpace(in.FullName),
		Role:           in.Role,
		Locale:         locale.Parse(in.Locale, locale.PortugueseBR).String(),
		HashedPassword: string(hash),
	})
}

// SignUp is the public registration path: only produtor and visualizador accounts.
func (s *Service) SignUp(ctx context.Context, in RegisterInput) (User, error) {
	if rbac.ValidRole(in.Role) && !rbac.SelfServiceRole(in.Role) {
		return User{}, fmt.Errorf("role %q: %w", in.Role, ErrRoleNotAllowed)
	}
	return s.Register(ctx, in)
}

// Login checks the password and stores the refresh token of the issued pair.
func (s *Service) Login(ctx context.Context, email, password string) (User, authmw.TokenPair, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return User{}, authmw.TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, authmw.TokenPair{}, err
	}
	if !u.IsActive || bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) != nil {
		return User{}, authmw.TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.issue(ctx, u)
	return u, pair, err
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair issued.
// Concurrent refreshes of one token issue at most one pair.
func (s *Service) Refresh(ctx context.Context, token string) (authmw.TokenPair, error) {
	if _, err := s.auth.ParseRefresh(token); err != nil {
		return authmw.TokenPair{}, ErrInvalidRefresh
	}
	uid, err := s.store.RefreshTokenOwner(ctx, token)
	if err != nil {
		return authmw.TokenPair{}, err
	}
	u, err := s.store.Get(ctx, uid)
	if err != nil {
		return authmw.TokenPair{}, err
	}
	if !u.IsActive {
		return authmw.TokenPair{}, ErrInvalidRefresh
	}
	if err := s.store.RevokeRefreshToken(ctx, token); err != nil {
		return authmw.TokenPair{}, err
	}
	return s.issue(ctx, u)
}

// Logout revokes token and returns its owner. Unknown or revoked tokens are a no-op
// reported with owner 0.
func (s *Service) Logout(ctx context.Context, token string) (int64, error) {
	uid, err := s.store.RefreshTokenOwner(ctx, token)
	if errors.Is(err, ErrInvalidRefresh) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := s.store.RevokeRefreshToken(ctx, token); err != nil {
		if errors.Is(err, ErrInvalidRefresh) {
			return 0, nil
		}
		return 0, err
	}
	return uid, nil
}

func (s *Service) issue(ctx context.Context, u User) (authmw.TokenPair, error) {
	pair, err := s.auth.IssuePair(u.ID, u.Role, u.Locale)
	if err != nil {
		return authmw.TokenPair{}, err
	}
	if err := s.store.SaveRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return authmw.TokenPair{}, fmt.Errorf("save refresh token: %w", err)
	}
	return pair, nil
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) { return s.store.Get(ctx, id) }

func (s *Service) List(ctx context.Context, role string) ([]User, error) {
	return s.store.List(ctx, role)
}

// ChangePassword also revokes every refresh token of the user.
func (s *Service) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("password shorter than %d: %w", minPasswordLen, db.ErrInvalid)
	}
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(oldPassword)) != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}
	return s.store.RevokeAll(ctx, id)
}

var validLayers = map[string]bool{"solo": true, "drenagem": true, "ndvi": true, "clima": true, "produtividade": true}

var validThemes = map[string]bool{"": true, "light": true, "dark": true, "system": true}

// SavePreferences validates and stores UI preferences. A preference locale also becomes
// the account locale used in new tokens.
func (s *Service) SavePreferences(ctx context.Context, id int64, p Preferences) (User, error) {
	if !validThemes[p.Theme] {
		return User{}, fmt.Errorf("theme %q: %w", p.Theme, db.ErrInvalid)
	}
	for _, l := range p.MapLayers {
		if !validLayers[l] {
			return User{}, fmt.Errorf("map layer %q: %w", l, db.ErrInvalid)
		}
	}
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	loc := u.Locale
	if p.Locale != "" {
		loc = locale.Parse(p.Locale, locale.PortugueseBR).String()
		p.Locale = loc
	}
	if err := s.store.UpdatePreferences(ctx, id, p, loc); err != nil {
		return User{}, err
	}
	u.Preferences, u.Locale = p, loc
	return u, nil
}
