// Package soil stores soil samples and derives liming and fertilizer recommendations.
package soil

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/siad-agro/siad-api/internal/db"
)

type Sample struct {
	ID             int64   `json:"id,omitempty"`
	FieldID        int64   `json:"field_id"`
	DepthCM        int     `json:"depth_cm"`
	PH             float64 `json:"ph"`
	OrganicMatter  float64 `json:"organic_matter"`
	Nitrogen       float64 `json:"nitrogen"`
	Phosphorus     float64 `json:"phosphorus"`
	Potassium      float64 `json:"potassium"`
	Recommendation string  `json:"recommendation,omitempty"`
}

type Analysis struct {
	FieldID            int64              `json:"field_id"`
	Samples            int                `json:"samples"`
	AvgPH              float64            `json:"avg_ph"`
	LimeRecommendation float64            `json:"lime_recommendation_kg_ha"`
	FertilizerPlan     map[string]float64 `json:"fertilizer_plan"`
	Warnings           []string           `json:"warnings"`
}

const (
	targetPH     = 6.2
	limeKgPerPH  = 250.0
	acidPH       = 5.5
	WarnNoData   = "Sem dados"
	WarnAcidSoil = "pH abaixo do ideal, sugerir calcário"
)

// Analyze averages the samples of a field.
func Analyze(fieldID int64, samples []Sample) Analysis {
	if len(samples) == 0 {
		return Analysis{FieldID: fieldID, FertilizerPlan: map[string]float64{}, Warnings: []string{WarnNoData}}
	}
	var ph, n, p, k float64
	for _, s := range samples {
		ph += s.PH
		n += s.Nitrogen
		p += s.Phosphorus
		k += s.Potassium
	}
	cnt := float64(len(samples))
	avgPH := ph / cnt
	a := Analysis{
		FieldID:            fieldID,
		Samples:            len(samples),
		AvgPH:              round2(avgPH),
		LimeRecommendation: round2(math.Max(0, (targetPH-avgPH)*limeKgPerPH)),
		FertilizerPlan: map[string]float64{
			"N": round2(n / cnt * 1.2),
			"P": round2(p / cnt * 0.8),
			"K": round2(k / cnt * 0.6),
		},
		Warnings: []string{},
	}
	if avgPH < acidPH {
		a.Warnings = append(a.Warnings, WarnAcidSoil)
	}
	return a
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

type Store struct{ db *sql.DB }

func NewStore(dbh *sql.DB) *Store { return &Store{db: dbh} }

func (s *Store) Create(ctx context.Context, smp Sample) (Sample, error) {
	if smp.DepthCM <= 0 {
		return Sample{}, fmt.Errorf("depth_cm must be positive: %w", db.ErrInvalid)
	}
	if smp.PH < 0 || smp.PH > 14 {
		return Sample{}, fmt.Errorf("ph %.2f out of range: %w", smp.PH, db.ErrInvalid)
	}
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fields WHERE id=$1`, smp.FieldID).Scan(&exists); err != nil {
		return Sample{}, err
	}
	if exists == 0 {
		return Sample{}, fmt.Errorf("field %d: %w", smp.FieldID, db.ErrNotFound)
	}
	err := s.db.QueryRowContext(ctx, `INSERT INTO soil_samples
		(field_id,depth_cm,ph,organic_matter,nitrogen,phosphorus,potassium,recommendation,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		smp.FieldID, smp.DepthCM, smp.PH, smp.OrganicMatter, smp.Nitrogen, smp.Phosphorus, smp.Potassium,
		smp.Recommendation, db.Now()).Scan(&smp.ID)
	if err != nil {
		return Sample{}, fmt.Errorf("insert soil sample: %w", err)
	}
	return smp, nil
}

func (s *Store) ByField(ctx context.Context, fieldID int64) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,field_id,depth_cm,ph,organic_matter,nitrogen,phosphorus,potassium,recommendation
		FROM soil_samples WHERE field_id=$1 ORDER BY depth_cm, id`, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Sample{}
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.ID, &smp.FieldID, &smp.DepthCM, &smp.PH, &smp.OrganicMatter,
			&smp.Nitrogen, &smp.Phosphorus, &smp.Potassium, &smp.Recommendation); err != nil {
			return nil, err
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

func (s *Store) Analyze(ctx context.Context, fieldID int64) (Analysis, error) {
	samples, err := s.ByField(ctx, fieldID)
	if err != nil {
		return Analysis{}, err
	}
	return Analyze(fieldID, samples), nil
}
