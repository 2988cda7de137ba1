package scenario

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/siad-agro/siad-api/internal/db"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dbh *sql.DB) *SQLStore {
	return &SQLStore{db: dbh}
}

func (s *SQLStore) Create(ctx context.Context, sc Scenario) (Scenario, error) {
	sc.CreatedAt = db.Now()
	err := s.db.QueryRowContext(ctx, `INSERT INTO scenarios
		(owner_id,name,description,rainfall_delta_pct,input_cost_delta_pct,fertilizer_delta_pct,cultivar,bag_price,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		sc.OwnerID, sc.Name, sc.Description, sc.RainfallDeltaPct, sc.InputCostDeltaPct,
		sc.FertilizerDeltaPct, sc.Cultivar, sc.BagPrice, sc.CreatedAt).Scan(&sc.ID)
	if err != nil {
		return Scenario{}, fmt.Errorf("insert scenario: %w", err)
	}
	return sc, nil
}

const scenarioCols = `id,owner_id,name,description,rainfall_delta_pct,input_cost_delta_pct,fertilizer_delta_pct,cultivar,bag_price,created_at`

func scanScenario(row interface{ Scan(...any) error }) (Scenario, error) {
	var sc Scenario
	err := row.Scan(&sc.ID, &sc.OwnerID, &sc.Name, &sc.Description, &sc.RainfallDeltaPct,
		&sc.InputCostDeltaPct, &sc.FertilizerDeltaPct, &sc.Cultivar, &sc.BagPrice, &sc.CreatedAt)
	return sc, err
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Scenario, error) {
	sc, err := scanScenario(s.db.QueryRowContext(ctx, `SELECT `+scenarioCols+` FROM scenarios WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Scenario{}, fmt.Errorf("scenario %d: %w", id, db.ErrNotFound)
	}
	return sc, err
}

func (s *SQLStore) List(ctx context.Context, ownerID int64) ([]Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+scenarioCols+` FROM scenarios WHERE owner_id=$1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Scenario{}
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveEvaluation(ctx context.Context, e Evaluation) (Evaluation, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return Evaluation{}, err
	}
	e.CreatedAt = db.Now()
	err = s.db.QueryRowContext(ctx, `INSERT INTO scenario_evaluations
		(scenario_id,projected_yield,projected_cost,projected_margin,risk_score,payload,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		e.ScenarioID, e.ProjectedYield, e.ProjectedCost, e.ProjectedMargin, e.RiskScore, string(payload), e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return Evaluation{}, fmt.Errorf("insert evaluation: %w", err)
	}
	return e, nil
}

func (s *SQLStore) LatestEvaluations(ctx context.Context, ids []int64) ([]Evaluation, error) {
	latest := map[int64]Evaluation{}
	for _, id := range ids {
		if _, seen := latest[id]; seen {
			continue
		}
		var e Evaluation
		var pj string
		err := s.db.QueryRowContext(ctx, `SELECT id,scenario_id,projected_yield,projected_cost,projected_margin,risk_score,payload,created_at
			FROM scenario_evaluations WHERE scenario_id=$1 ORDER BY id DESC LIMIT 1`, id).
			Scan(&e.ID, &e.ScenarioID, &e.ProjectedYield, &e.ProjectedCost, &e.ProjectedMargin, &e.RiskScore, &pj, &e.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(pj), &e.Payload)
		latest[id] = e
	}
	out := make([]Evaluation, 0, len(latest))
	for _, e := range latest {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScenarioID < out[j].ScenarioID })
	return out, nil
}
