// Package dashboard aggregates the figures shown on the landing page.
package dashboard

import (
	"context"
	"database/sql"
	"math"
	"time"
)

type KPIFilter struct {
	FarmID  int64 // owner of the fields
	FieldID int64
}

type KPIs struct {
	AreaHa              float64 `json:"area_ha"`
	AvgProductivityKgHa float64 `json:"avg_productivity_kg_ha"`
	TotalYieldT         float64 `json:"total_yield_t"`
	AvgMoisturePct      float64 `json:"avg_moisture_pct"`
	AvgProteinPct       float64 `json:"avg_protein_pct"`
	EstimatedMarginRHa  float64 `json:"estimated_margin_r_ha"`
	LastUpdated         string  `json:"last_updated"`
}

// Lab and cost figures are not collected yet; these are the reference values.
const (
	refMoisturePct = 13.2
	refProteinPct  = 38.5
	refMarginRHa   = 2100.0
	kgPerBag       = 60
)

type KPIStore struct{ db *sql.DB }

func NewKPIStore(dbh *sql.DB) *KPIStore { return &KPIStore{db: dbh} }

func where(f KPIFilter) (string, []any) {
	clause, args := " WHERE 1=1", []any{}
	if f.FarmID != 0 {
		args = append(args, f.FarmID)
		clause += " AND f.owner_id=$1"
	}
	if f.FieldID != 0 {
		args = append(args, f.FieldID)
		if len(args) == 1 {
			clause += " AND f.id=$1"
		} else {
			clause += " AND f.id=$2"
		}
	}
	return clause, args
}

func (s *KPIStore) KPIs(ctx context.Context, f KPIFilter) (KPIs, error) {
	clause, args := where(f)
	var area sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `SELECT SUM(f.area_ha) FROM fields f`+clause, args...).Scan(&area); err != nil {
		return KPIs{}, err
	}
	var avgKg, totalT sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `SELECT AVG(p.yield_bag_ha * 60), SUM(p.area_ha * p.yield_bag_ha * 60 / 1000)
		FROM crop_productivity p
		JOIN seasons s ON s.id = p.season_id
		JOIN fields f ON f.id = s.field_id`+clause, args...).Scan(&avgKg, &totalT)
	if err != nil {
		return KPIs{}, err
	}
	return KPIs{
		AreaHa:              round1(area.Float64),
		AvgProductivityKgHa: round1(avgKg.Float64),
		TotalYieldT:         round1(totalT.Float64),
		AvgMoisturePct:      refMoisturePct,
		AvgProteinPct:       refProteinPct,
		EstimatedMarginRHa:  refMarginRHa,
		LastUpdated:         time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
