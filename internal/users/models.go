package users

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWrongPassword      = errors.New("incorrect current password")
	ErrRoleNotAllowed     = errors.New("role not open to self sign-up")
)

type User struct {
	ID             int64       `json:"id"`
	Email          string      `json:"email"`
	FullName       string      `json:"full_name"`
	Role           string      `json:"role"`
	Locale         string      `json:"locale"`
	Preferences    Preferences `json:"preferences"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      int64       `json:"created_at"`
	UpdatedAt      int64       `json:"updated_at"`
	HashedPassword string      `json:"-"`
}

// Preferences hold the dashboard UI state that used to live in the browser.
type Preferences struct {
	Theme     string   `json:"theme,omitempty"`
	MapLayers []string `json:"map_layers,omitempty"`
	Locale    string   `json:"locale,omitempty"`
	Station   string   `json:"station,omitempty"`
}

type Store interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, role string) ([]User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdatePreferences(ctx context.Context, id int64, p Preferences, locale string) error

	SaveRefreshToken(ctx context.Context, userID int64, token string) error
	// RefreshTokenOwner returns the user of a stored, unrevoked token.
	RefreshTokenOwner(ctx context.Context, token string) (int64, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID int64) error
}
