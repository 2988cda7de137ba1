package scenario_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siad-agro/siad-api/internal/scenario"
)

const eps = 1e-6

func TestProjectZeroDeltas(t *testing.T) {
	for _, price := range []float64{0, 1, 152, 300.5} {
		p := scenario.Project(scenario.Inputs{PricePerUnit: price})
		assert.InDelta(t, 58.0, p.ProjectedYield, eps)
		assert.InDelta(t, 4100.0, p.ProjectedCost, eps)
		assert.InDelta(t, 58*price-4100, p.ProjectedMargin, eps)
		assert.InDelta(t, 1.0, p.RiskScore, eps)
	}
}

func TestProjectDashboardDefaults(t *testing.T) {
	p := scenario.Project(scenario.Inputs{
		RainfallDeltaPct:      10,
		InputCostDeltaPct:     -5,
		FertilizationDeltaPct: 3,
		PricePerUnit:          152,
	})
	assert.InDelta(t, 64.757, p.ProjectedYield, 1e-3)
	assert.InDelta(t, 3895.0, p.ProjectedCost, eps)
	assert.InDelta(t, 64.757*152-3895, p.ProjectedMargin, 1e-3)
	assert.InDelta(t, 0.8583, p.RiskScore, 1e-4)

	d := p.Display()
	assert.Equal(t, "64.8 sc/ha", d.Yield)
	assert.Equal(t, "R$ 5.9k", d.Margin)
	assert.Equal(t, "0.86", d.Risk)
}

func TestProjectIsIdempotent(t *testing.T) {
	in := scenario.Inputs{RainfallDeltaPct: -7, InputCostDeltaPct: 12, FertilizationDeltaPct: -4, PricePerUnit: 149}
	assert.Equal(t, scenario.Project(in), scenario.Project(in))
}

func TestRiskMonotoneAndFloored(t *testing.T) {
	for _, sign := range []float64{-1, 1} {
		prev := math.Inf(1)
		for r := 0.0; r <= 20; r++ {
			risk := scenario.Project(scenario.Inputs{RainfallDeltaPct: sign * r, InputCostDeltaPct: 5}).RiskScore
			require.LessOrEqual(t, risk, prev, "rain %v", sign*r)
			require.GreaterOrEqual(t, risk, scenario.RiskFloor)
			prev = risk
		}
		prev = math.Inf(1)
		for c := 0.0; c <= 20; c++ {
			risk := scenario.Project(scenario.Inputs{RainfallDeltaPct: 3, InputCostDeltaPct: sign * c}).RiskScore
			require.LessOrEqual(t, risk, prev, "cost %v", sign*c)
			prev = risk
		}
	}
}

func TestRiskDependsOnMagnitude(t *testing.T) {
	for _, x := range []float64{0, 4.5, 10, 20} {
		up := scenario.Project(scenario.Inputs{RainfallDeltaPct: x, InputCostDeltaPct: x / 2}).RiskScore
		down := scenario.Project(scenario.Inputs{RainfallDeltaPct: -x, InputCostDeltaPct: -x / 2}).RiskScore
		assert.InDelta(t, up, down, eps, "x=%v", x)
	}
}

func TestRiskFloorAtExtremes(t *testing.T) {
	// 1 - 0.20 - 0.1667 stays above the floor inside the slider domain.
	p := scenario.Project(scenario.Inputs{RainfallDeltaPct: -20, InputCostDeltaPct: -20})
	assert.InDelta(t, 1-0.2-20.0/120, p.RiskScore, eps)

	// Outside the domain the subtracted terms exceed 0.8 and the floor applies.
	p = scenario.Project(scenario.Inputs{RainfallDeltaPct: -60, InputCostDeltaPct: -40})
	assert.Equal(t, scenario.RiskFloor, p.RiskScore)
}

func TestDomainWarnings(t *testing.T) {
	assert.Empty(t, scenario.Inputs{RainfallDeltaPct: 20, InputCostDeltaPct: -20, FertilizationDeltaPct: 10, PricePerUnit: 1}.DomainWarnings())

	w := scenario.Inputs{RainfallDeltaPct: 25, FertilizationDeltaPct: -11, PricePerUnit: 0}.DomainWarnings()
	assert.Len(t, w, 3)

	// warnings never alter the projection
	in := scenario.Inputs{PricePerUnit: -10}
	assert.InDelta(t, 58*-10.0-4100, scenario.Project(in).ProjectedMargin, eps)
}
