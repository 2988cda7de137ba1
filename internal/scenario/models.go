package scenario

import "context"

// Scenario is a saved what-if configuration owned by a user.
type Scenario struct {
	ID                 int64   `json:"id"`
	OwnerID            int64   `json:"owner_id"`
	Name               string  `json:"name"`
	Description        string  `json:"description,omitempty"`
	RainfallDeltaPct   float64 `json:"rainfall_delta_pct"`
	InputCostDeltaPct  float64 `json:"input_cost_delta_pct"`
	FertilizerDeltaPct float64 `json:"fertilizer_delta_pct"`
	Cultivar           string  `json:"cultivar"`
	BagPrice           float64 `json:"bag_price"`
	CreatedAt          int64   `json:"created_at,omitempty"`
}

// Inputs maps the saved scenario onto projector inputs.
func (s Scenario) Inputs() Inputs {
	return Inputs{
		RainfallDeltaPct:      s.RainfallDeltaPct,
		InputCostDeltaPct:     s.InputCostDeltaPct,
		FertilizationDeltaPct: s.FertilizerDeltaPct,
		PricePerUnit:          s.BagPrice,
	}
}

type Evaluation struct {
	ID         int64          `json:"id"`
	ScenarioID int64          `json:"scenario_id"`
	Projection                // flattened into the JSON object
	Payload    map[string]any `json:"payload,omitempty"`
	CreatedAt  int64          `json:"created_at"`
}

// Preset is a canned scenario offered by the dashboard.
type Preset struct {
	ID                    string  `json:"id" yaml:"id"`
	Title                 string  `json:"title" yaml:"title"`
	RainfallDeltaPct      float64 `json:"rainfall_delta_pct" yaml:"rainfall_delta_pct"`
	InputCostDeltaPct     float64 `json:"input_cost_delta_pct" yaml:"input_cost_delta_pct"`
	FertilizationDeltaPct float64 `json:"fertilization_delta_pct" yaml:"fertilization_delta_pct"`
	Cultivar              string  `json:"cultivar" yaml:"cultivar"`
	Price                 float64 `json:"price" yaml:"price"`
}

func (p Preset) Inputs() Inputs {
	return Inputs{
		RainfallDeltaPct:      p.RainfallDeltaPct,
		InputCostDeltaPct:     p.InputCostDeltaPct,
		FertilizationDeltaPct: p.FertilizationDeltaPct,
		PricePerUnit:          p.Price,
	}
}

// Presets returns the built-in scenario cards.
func Presets() []Preset {
	return []Preset{
		{ID: "base", Title: "Baseline", Cultivar: "SOJA RR", Price: 152},
		{ID: "rain+", Title: "+10% chuva", RainfallDeltaPct: 10, FertilizationDeltaPct: 3, Cultivar: "SOJA IPRO", Price: 158},
		{ID: "insumos-", Title: "-8% insumos", InputCostDeltaPct: -8, Cultivar: "SOJA RR", Price: 150},
	}
}

type Store interface {
	Create(ctx context.Context, s Scenario) (Scenario, error)
	Get(ctx context.Context, id int64) (Scenario, error)
	List(ctx context.Context, ownerID int64) ([]Scenario, error)
	SaveEvaluation(ctx context.Context, e Evaluation) (Evaluation, error)
	// LatestEvaluations returns the newest evaluation of each requested scenario, in id order.
	LatestEvaluations(ctx context.Context, scenarioIDs []int64) ([]Evaluation, error)
}
