// Package audit appends security-relevant actions to the audit_logs table.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/siad-agro/siad-api/internal/db"
)

// Actions recorded by the API.
const (
	ActionRegister      = "auth.register"
	ActionLogin         = "auth.login"
	ActionLogout        = "auth.logout"
	ActionPasswordReset = "auth.change_password"
	ActionScenario      = "scenario.create"
	ActionPriceRefresh  = "prices.refresh"
	ActionReport        = "report.enqueue"
	ActionUpload        = "etl.upload"
)

type Entry struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	CreatedAt int64          `json:"created_at"`
}

type Repo struct {
	db  *sql.DB
	log *zap.Logger
}

func NewRepo(dbh *sql.DB, log *zap.Logger) *Repo {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repo{db: dbh, log: log}
}

func (r *Repo) Append(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("audit payload: %w", err)
	}
	if e.Payload == nil {
		payload = []byte("{}")
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (user_id, action, payload, ip_address, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.UserID, e.Action, string(payload), e.IPAddress, db.Now())
	return err
}

// Record appends an entry for the request and logs instead of failing the caller.
func (r *Repo) Record(req *http.Request, userID int64, action string, payload map[string]any) {
	e := Entry{UserID: userID, Action: action, Payload: payload, IPAddress: clientIP(req)}
	if err := r.Append(req.Context(), e); err != nil {
		r.log.Warn("audit append failed", zap.String("action", action), zap.Int64("user_id", userID), zap.Error(err))
	}
}

// List returns the newest entries first.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,user_id,action,payload,ip_address,created_at FROM audit_logs
		 ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		var e Entry
		var pj string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &pj, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(pj), &e.Payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
