package crops

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/siad-agro/siad-api/internal/db"
)

// Baseline used for fields without productivity history.
const (
	DefaultYieldBagHa   = 55.0
	DefaultMarginHa     = 1800.0
	DefaultDensityHa    = 55000
	simulationRiskFloor = 0.1
)

// Simulate projects a field season from its baseline. Unlike the dashboard projector it
// scales a historical margin instead of pricing the yield.
func Simulate(req SimulationRequest, base Baseline) SimulationResult {
	rain := 1 + req.RainfallDeltaPct/100
	input := 1 - req.InputCostDeltaPct/100
	fert := 1 + req.FertilizerDeltaPct/100
	risk := math.Max(simulationRiskFloor, 1-(math.Abs(req.RainfallDeltaPct)+math.Abs(req.InputCostDeltaPct))/200)
	return SimulationResult{
		ScenarioName:    req.Cultivar + "-" + strconv.FormatFloat(req.BagPrice, 'f', -1, 64),
		ProjectedYield:  round2(base.YieldBagHa * rain * fert),
		ProjectedMargin: round2(base.MarginHa * rain * input),
		RiskScore:       round2(risk),
		Breakdown: map[string]float64{
			"rainfall_effect":   rain,
			"input_savings":     input,
			"fertilizer_effect": fert,
			"bag_price":         req.BagPrice,
		},
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

type Service struct{ store Store }

func NewService(store Store) *Service { return &Service{store: store} }

func (s *Service) Seasons(ctx context.Context) ([]Season, error) { return s.store.ListSeasons(ctx) }

func (s *Service) Productivity(ctx context.Context, seasonID int64) ([]Productivity, error) {
	return s.store.ListProductivity(ctx, seasonID)
}

// Run simulates against the field baseline and records the simulation.
func (s *Service) Run(ctx context.Context, req SimulationRequest) (SimulationResult, error) {
	if strings.TrimSpace(req.Cultivar) == "" {
		return SimulationResult{}, fmt.Errorf("cultivar required: %w", db.ErrInvalid)
	}
	base, ok, err := s.store.FieldBaseline(ctx, req.FieldID)
	if err != nil {
		return SimulationResult{}, err
	}
	// zero averages count as missing history
	if !ok || base.YieldBagHa == 0 {
		base.YieldBagHa = DefaultYieldBagHa
	}
	if !ok || base.MarginHa == 0 {
		base.MarginHa = DefaultMarginHa
	}
	res := Simulate(req, base)
	if err := s.store.SaveSimulation(ctx, req, res); err != nil {
		return SimulationResult{}, err
	}
	return res, nil
}

func (s *Service) Compare(ctx context.Context, reqs []SimulationRequest) ([]SimulationResult, error) {
	out := make([]SimulationResult, 0, len(reqs))
	for _, r := range reqs {
		res, err := s.Run(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}
