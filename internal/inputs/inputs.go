// Package inputs manages the input catalog and per-field cost analyses.
package inputs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/siad-agro/siad-api/internal/db"
)

type Item struct {
	ID       int64   `json:"id,omitempty" yaml:"-"`
	Name     string  `json:"name" yaml:"name"`
	Unit     string  `json:"unit" yaml:"unit"`
	UnitCost float64 `json:"unit_cost" yaml:"unit_cost"`
	Supplier string  `json:"supplier,omitempty" yaml:"supplier"`
}

type CostAnalysisRequest struct {
	FieldID        int64          `json:"field_id"`
	SeasonID       *int64         `json:"season_id,omitempty"`
	CostPerHa      float64        `json:"cost_per_ha"`
	MarginExpected float64        `json:"margin_expected"`
	DeltaPricePct  float64        `json:"delta_price_pct"`
	Payload        map[string]any `json:"payload,omitempty"`
}

type CostComparison struct {
	BaselineCost float64            `json:"baseline_cost"`
	ScenarioCost float64            `json:"scenario_cost"`
	Sensitivity  map[string]float64 `json:"sensitivity"`
}

// Share of a price change carried by each input group.
var sensitivityShares = map[string]float64{
	"fertilizantes": 0.40,
	"defensivos":    0.35,
	"sementes":      0.25,
}

// Compare prices a cost change against baseline.
func Compare(baseline float64, req CostAnalysisRequest) CostComparison {
	sens := make(map[string]float64, len(sensitivityShares))
	for k, share := range sensitivityShares {
		sens[k] = req.DeltaPricePct * share
	}
	return CostComparison{
		BaselineCost: baseline,
		ScenarioCost: math.Round(req.CostPerHa*(1+req.DeltaPricePct/100)*100) / 100,
		Sensitivity:  sens,
	}
}

type Store struct{ db *sql.DB }

func NewStore(dbh *sql.DB) *Store { return &Store{db: dbh} }

func (s *Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,unit,unit_cost,supplier FROM input_items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Unit, &it.UnitCost, &it.Supplier); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, it Item) (Item, error) {
	it.Name, it.Unit = strings.TrimSpace(it.Name), strings.TrimSpace(it.Unit)
	if it.Name == "" || it.Unit == "" {
		return Item{}, fmt.Errorf("name and unit required: %w", db.ErrInvalid)
	}
	if it.UnitCost <= 0 {
		return Item{}, fmt.Errorf("unit_cost must be positive: %w", db.ErrInvalid)
	}
	err := s.db.QueryRowContext(ctx, `INSERT INTO input_items (name,unit,unit_cost,supplier,created_at)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`, it.Name, it.Unit, it.UnitCost, it.Supplier, db.Now()).Scan(&it.ID)
	if err != nil {
		return Item{}, fmt.Errorf("insert input: %w", err)
	}
	return it, nil
}

// AnalyzeCost compares against the field's latest stored analysis (or the request cost
// when there is none) and stores the request as the new latest analysis.
func (s *Store) AnalyzeCost(ctx context.Context, req CostAnalysisRequest) (CostComparison, error) {
	if req.CostPerHa < 0 {
		return CostComparison{}, fmt.Errorf("cost_per_ha must not be negative: %w", db.ErrInvalid)
	}
	baseline := req.CostPerHa
	var prev float64
	err := s.db.QueryRowContext(ctx, `SELECT cost_per_ha FROM input_cost_analysis
		WHERE field_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`, req.FieldID).Scan(&prev)
	switch {
	case err == nil:
		baseline = prev
	case !errors.Is(err, sql.ErrNoRows):
		return CostComparison{}, err
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return CostComparison{}, err
	}
	if req.Payload == nil {
		payload = []byte("{}")
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO input_cost_analysis
		(field_id,season_id,cost_per_ha,margin_expected,delta_price_pct,payload,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		req.FieldID, req.SeasonID, req.CostPerHa, req.MarginExpected, req.DeltaPricePct, string(payload), db.Now()); err != nil {
		return CostComparison{}, fmt.Errorf("insert cost analysis: %w", err)
	}
	return Compare(baseline, req), nil
}
