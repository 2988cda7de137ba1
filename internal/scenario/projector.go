package scenario

import (
	"fmt"
	"math"
)

// Baseline constants for the what-if projection.
const (
	BaseYield = 58.0   // sc/ha
	BaseCost  = 4100.0 // R$/ha
	RiskFloor = 0.2
)

// Slider domains as exposed by the dashboard. The projector does not enforce them.
const (
	RainfallDomainPct      = 20.0
	InputCostDomainPct     = 20.0
	FertilizationDomainPct = 10.0
)

// Inputs is the current slider configuration of a what-if scenario.
type Inputs struct {
	RainfallDeltaPct      float64 `json:"rainfall_delta_pct" yaml:"rainfall_delta_pct"`
	InputCostDeltaPct     float64 `json:"input_cost_delta_pct" yaml:"input_cost_delta_pct"`
	FertilizationDeltaPct float64 `json:"fertilization_delta_pct" yaml:"fertilization_delta_pct"`
	PricePerUnit          float64 `json:"price_per_unit" yaml:"price_per_unit"`
}

// Projection is derived from Inputs and never stored by Project itself.
type Projection struct {
	ProjectedYield  float64 `json:"projected_yield"`
	ProjectedCost   float64 `json:"projected_cost"`
	ProjectedMargin float64 `json:"projected_margin"`
	RiskScore       float64 `json:"risk_score"`
}

// Project computes yield, cost, margin and risk for in. It is total over float64 inputs.
func Project(in Inputs) Projection {
	yield := BaseYield * (1 + in.RainfallDeltaPct/100) * (1 + in.FertilizationDeltaPct/200)
	cost := BaseCost * (1 + in.InputCostDeltaPct/100)
	risk := 1 - math.Abs(in.RainfallDeltaPct)/100 - math.Abs(in.InputCostDeltaPct)/120
	return Projection{
		ProjectedYield:  yield,
		ProjectedCost:   cost,
		ProjectedMargin: yield*in.PricePerUnit - cost,
		RiskScore:       math.Max(RiskFloor, risk),
	}
}

// DomainWarnings reports values outside the dashboard slider domains and non-positive
// prices. The projection is still computed for such inputs.
func (in Inputs) DomainWarnings() []string {
	var out []string
	if math.Abs(in.RainfallDeltaPct) > RainfallDomainPct {
		out = append(out, fmt.Sprintf("rainfall_delta_pct %.1f outside [-%.0f, %.0f]", in.RainfallDeltaPct, RainfallDomainPct, RainfallDomainPct))
	}
	if math.Abs(in.InputCostDeltaPct) > InputCostDomainPct {
		out = append(out, fmt.Sprintf("input_cost_delta_pct %.1f outside [-%.0f, %.0f]", in.InputCostDeltaPct, InputCostDomainPct, InputCostDomainPct))
	}
	if math.Abs(in.FertilizationDeltaPct) > FertilizationDomainPct {
		out = append(out, fmt.Sprintf("fertilization_delta_pct %.1f outside [-%.0f, %.0f]", in.FertilizationDeltaPct, FertilizationDomainPct, FertilizationDomainPct))
	}
	if in.PricePerUnit <= 0 {
		out = append(out, fmt.Sprintf("price_per_unit %.2f is not positive", in.PricePerUnit))
	}
	return out
}

// Display holds the dashboard's rendering of a Projection.
type Display struct {
	Yield  string `json:"yield"`
	Margin string `json:"margin"`
	Risk   string `json:"risk"`
}

func (p Projection) Display() Display {
	return Display{
		Yield:  fmt.Sprintf("%.1f sc/ha", p.ProjectedYield),
		Margin: fmt.Sprintf("R$ %.1fk", p.ProjectedMargin/1000),
		Risk:   fmt.Sprintf("%.2f", p.RiskScore),
	}
}
