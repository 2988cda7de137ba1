package crops

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/siad-agro/siad-api/internal/db"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(dbh *sql.DB) *SQLStore { return &SQLStore{db: dbh} }

func (s *SQLStore) CreateSeason(ctx context.Context, se Season) (Season, error) {
	if _, err := time.Parse(db.DateLayout, se.PlantingDate); err != nil {
		return Season{}, fmt.Errorf("planting_date %q: %w", se.PlantingDate, db.ErrInvalid)
	}
	if se.HarvestDate != nil {
		if _, err := time.Parse(db.DateLayout, *se.HarvestDate); err != nil {
			return Season{}, fmt.Errorf("harvest_date %q: %w", *se.HarvestDate, db.ErrInvalid)
		}
	}
	if se.ExpectedYieldBagHa <= 0 || se.CostPerHa < 0 {
		return Season{}, fmt.Errorf("expected yield must be positive and cost non-negative: %w", db.ErrInvalid)
	}
	err := s.db.QueryRowContext(ctx, `INSERT INTO seasons
		(field_id,cultivar,planting_date,harvest_date,expected_yield_bag_ha,cost_per_ha,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		se.FieldID, se.Cultivar, se.PlantingDate, se.HarvestDate, se.ExpectedYieldBagHa, se.CostPerHa, db.Now()).Scan(&se.ID)
	if err != nil {
		return Season{}, fmt.Errorf("insert season: %w", err)
	}
	return se, nil
}

// ListSeasons returns the newest planting first.
func (s *SQLStore) ListSeasons(ctx context.Context) ([]Season, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,field_id,cultivar,planting_date,harvest_date,expected_yield_bag_ha,cost_per_ha
		FROM seasons ORDER BY planting_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Season{}
	for rows.Next() {
		var se Season
		var harvest sql.NullString
		if err := rows.Scan(&se.ID, &se.FieldID, &se.Cultivar, &se.PlantingDate, &harvest, &se.ExpectedYieldBagHa, &se.CostPerHa); err != nil {
			return nil, err
		}
		if harvest.Valid {
			se.HarvestDate = &harvest.String
		}
		out = append(out, se)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddProductivity(ctx context.Context, p Productivity) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO crop_productivity
		(season_id,area_ha,yield_bag_ha,ndvi_avg,rainfall_total,efficiency_index) VALUES ($1,$2,$3,$4,$5,$6)`,
		p.SeasonID, p.AreaHa, p.YieldBagHa, p.NDVIAvg, p.RainfallTotal, p.EfficiencyIndex)
	return err
}

func (s *SQLStore) ListProductivity(ctx context.Context, seasonID int64) ([]Productivity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT season_id,area_ha,yield_bag_ha,ndvi_avg,rainfall_total,efficiency_index
		FROM crop_productivity WHERE season_id=$1 ORDER BY id`, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Productivity{}
	for rows.Next() {
		var p Productivity
		if err := rows.Scan(&p.SeasonID, &p.AreaHa, &p.YieldBagHa, &p.NDVIAvg, &p.RainfallTotal, &p.EfficiencyIndex); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) FieldBaseline(ctx context.Context, fieldID int64) (Baseline, bool, error) {
	var y, m sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `SELECT AVG(p.yield_bag_ha), AVG(p.efficiency_index)
		FROM crop_productivity p JOIN seasons se ON se.id = p.season_id
		WHERE se.field_id=$1`, fieldID).Scan(&y, &m)
	if err != nil {
		return Baseline{}, false, err
	}
	if !y.Valid {
		return Baseline{}, false, nil
	}
	return Baseline{YieldBagHa: y.Float64, MarginHa: m.Float64}, true, nil
}

func (s *SQLStore) SaveSimulation(ctx context.Context, req SimulationRequest, res SimulationResult) error {
	payload, err := json.Marshal(res.Breakdown)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO crop_simulations
		(field_id,scenario_name,delta_rainfall,delta_inputs,cultivar,density_plants_ha,expected_margin_per_ha,payload,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		req.FieldID, res.ScenarioName, req.RainfallDeltaPct, req.InputCostDeltaPct, req.Cultivar,
		DefaultDensityHa, res.ProjectedMargin, string(payload), db.Now())
	return err
}
