package crops

import "context"

type Season struct {
	ID                 int64   `json:"id"`
	FieldID            int64   `json:"field_id"`
	Cultivar           string  `json:"cultivar"`
	PlantingDate       string  `json:"planting_date"`
	HarvestDate        *string `json:"harvest_date"`
	ExpectedYieldBagHa float64 `json:"expected_yield_bag_ha"`
	CostPerHa          float64 `json:"cost_per_ha"`
}

type Productivity struct {
	SeasonID        int64   `json:"season_id"`
	AreaHa          float64 `json:"area_ha"`
	YieldBagHa      float64 `json:"yield_bag_ha"`
	NDVIAvg         float64 `json:"ndvi_avg"`
	RainfallTotal   float64 `json:"rainfall_total"`
	EfficiencyIndex float64 `json:"efficiency_index"`
}

type SimulationRequest struct {
	FieldID            int64   `json:"field_id"`
	RainfallDeltaPct   float64 `json:"rainfall_delta_pct"`
	InputCostDeltaPct  float64 `json:"input_cost_delta_pct"`
	FertilizerDeltaPct float64 `json:"fertilizer_delta_pct"`
	Cultivar           string  `json:"cultivar"`
	BagPrice           float64 `json:"bag_price"`
}

type SimulationResult struct {
	ScenarioName    string             `json:"scenario_name"`
	ProjectedYield  float64            `json:"projected_yield"`
	ProjectedMargin float64            `json:"projected_margin"`
	RiskScore       float64            `json:"risk_score"`
	Breakdown       map[string]float64 `json:"breakdown"`
}

// Baseline is the historical yield and margin of a field.
type Baseline struct {
	YieldBagHa float64
	MarginHa   float64
}

type Store interface {
	CreateSeason(ctx context.Context, s Season) (Season, error)
	ListSeasons(ctx context.Context) ([]Season, error)
	AddProductivity(ctx context.Context, p Productivity) error
	ListProductivity(ctx context.Context, seasonID int64) ([]Productivity, error)
	// FieldBaseline averages productivity over the field's seasons; ok is false without data.
	FieldBaseline(ctx context.Context, fieldID int64) (b Baseline, ok bool, err error)
	SaveSimulation(ctx context.Context, req SimulationRequest, res SimulationResult) error
}
