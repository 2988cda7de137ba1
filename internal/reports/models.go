// Package reports renders report documents in the background and keeps their status.
package reports

import (
	"context"
	"time"
)

type Type string

const (
	TypeSafra    Type = "safra"
	TypeClima    Type = "clima"
	TypeCustos   Type = "custos"
	TypePrevisao Type = "previsao"
	TypeMapas    Type = "mapas"
)

func (t Type) Valid() bool {
	switch t {
	case TypeSafra, TypeClima, TypeCustos, TypePrevisao, TypeMapas:
		return true
	}
	return false
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

type Request struct {
	ReportType Type           `json:"report_type"`
	Params     map[string]any `json:"params"`
}

type Job struct {
	ID         int64          `json:"id"`
	ReportType Type           `json:"report_type"`
	Status     Status         `json:"status"`
	Params     map[string]any `json:"params,omitempty"`
	FileURL    *string        `json:"file_url"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	FinishedAt *time.Time     `json:"finished_at"`
}

type Store interface {
	Create(ctx context.Context, req Request) (Job, error)
	Get(ctx context.Context, id int64) (Job, error)
	List(ctx context.Context) ([]Job, error)
	Pending(ctx context.Context) ([]int64, error)
	SetRunning(ctx context.Context, id int64) error
	Finish(ctx context.Context, id int64, fileURL string) error
	Fail(ctx context.Context, id int64, msg string) error
}
