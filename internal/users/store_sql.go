package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/siad-agro/siad-api/internal/db"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(dbh *sql.DB) *SQLStore { return &SQLStore{db: dbh} }

const userCols = `id,email,hashed_password,full_name,role,locale,preferences,is_active,created_at,updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var prefs string
	if err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FullName, &u.Role, &u.Locale,
		&prefs, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	_ = json.Unmarshal([]byte(prefs), &u.Preferences)
	return u, nil
}

func (s *SQLStore) Create(ctx context.Context, u User) (User, error) {
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return User{}, err
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = db.Now()
	u.UpdatedAt = u.CreatedAt
	u.IsActive = true
	err = s.db.QueryRowContext(ctx, `INSERT INTO users
		(email,hashed_password,full_name,role,locale,preferences,is_active,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		u.Email, u.HashedPassword, u.FullName, u.Role, u.Locale, string(prefs), true, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if db.IsUniqueViolation(err) {
		return User{}, fmt.Errorf("%s: %w", u.Email, ErrEmailTaken)
	}
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %d: %w", id, db.ErrNotFound)
	}
	return u, err
}

func (s *SQLStore) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`,
		strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %s: %w", email, db.ErrNotFound)
	}
	return u, err
}

func (s *SQLStore) List(ctx context.Context, role string) ([]User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if role == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY email`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users WHERE role=$1 ORDER BY email`, role)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return s.exec(ctx, id, `UPDATE users SET hashed_password=$1, updated_at=$2 WHERE id=$3`, hash, db.Now(), id)
}

func (s *SQLStore) UpdatePreferences(ctx context.Context, id int64, p Preferences, locale string) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.exec(ctx, id, `UPDATE users SET preferences=$1, locale=$2, updated_at=$3 WHERE id=$4`, string(b), locale, db.Now(), id)
}

func (s *SQLStore) exec(ctx context.Context, id int64, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", id, db.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) SaveRefreshToken(ctx context.Context, userID int64, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token, created_at, revoked) VALUES ($1,$2,$3,$4)`,
		userID, token, db.Now(), false)
	return err
}

func (s *SQLStore) RefreshTokenOwner(ctx context.Context, token string) (int64, error) {
	var (
		uid     int64
		revoked bool
	)
	err := s.db.QueryRowContext(ctx, `SELECT user_id, revoked FROM refresh_tokens WHERE token=$1`, token).Scan(&uid, &revoked)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && revoked) {
		return 0, ErrInvalidRefresh
	}
	return uid, err
}

// RevokeRefreshToken flips an active token to revoked. Only one caller can win; the
// others get ErrInvalidRefresh.
func (s *SQLStore) RevokeRefreshToken(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked=$1 WHERE token=$2 AND revoked=$3`, true, token, false)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrInvalidRefresh
	}
	return nil
}

func (s *SQLStore) RevokeAll(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked=$1 WHERE user_id=$2`, true, userID)
	return err
}
