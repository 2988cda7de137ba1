package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/rbac"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"

	issuer = "siad-agro"
)

var ErrTokenType = errors.New("wrong token type")

// AuthService signs access and refresh tokens with separate HS256 secrets.
type AuthService struct {
	access, refresh       []byte
	accessTTL, refreshTTL time.Duration
	now                   func() time.Time
}

func NewAuthService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		access:     []byte(accessSecret),
		refresh:    []byte(refreshSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

type Claims struct {
	Role   string `json:"role,omitempty"`
	Locale string `json:"locale,omitempty"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (a *AuthService) IssuePair(userID int64, role, loc string) (TokenPair, error) {
	acc, err := a.issue(Claims{Role: role, Locale: loc, Type: TypeAccess}, userID, a.access, a.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	ref, err := a.issue(Claims{Type: TypeRefresh}, userID, a.refresh, a.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return TokenPair{AccessToken: acc, RefreshToken: ref, TokenType: "bearer"}, nil
}

func (a *AuthService) issue(c Claims, userID int64, key []byte, ttl time.Duration) (string, error) {
	now := a.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(), // refresh tokens are stored with a UNIQUE constraint
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &c).SignedString(key)
}

func (a *AuthService) ParseAccess(tokenStr string) (*Claims, error) {
	return a.parse(tokenStr, a.access, TypeAccess)
}

func (a *AuthService) ParseRefresh(tokenStr string) (*Claims, error) {
	return a.parse(tokenStr, a.refresh, TypeRefresh)
}

func (a *AuthService) parse(tokenStr string, key []byte, typ string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if c.Type != typ {
		return nil, ErrTokenType
	}
	if _, err := c.UserID(); err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}
	return c, nil
}

// JWTMiddleware validates the bearer access token and puts user id, role and locale
// in the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				locale.WriteError(w, r, http.StatusUnauthorized, locale.MsgInvalidToken)
				return
			}
			c, err := a.ParseAccess(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				locale.WriteError(w, r, http.StatusUnauthorized, locale.MsgInvalidToken)
				return
			}
			uid, _ := c.UserID()
			ctx := WithUserID(r.Context(), uid)
			ctx = rbac.WithRole(ctx, c.Role)
			if c.Locale != "" {
				ctx = locale.With(ctx, locale.Parse(c.Locale, locale.FromContext(ctx)))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
