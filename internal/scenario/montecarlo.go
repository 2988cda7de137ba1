package scenario

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultIterations = 1000
	MaxIterations     = 100_000

	// iterations handled by one goroutine
	chunkSize = 2500
)

type MonteCarloRequest struct {
	Iterations        int     `json:"iterations"`
	BagPrice          float64 `json:"bag_price"`
	RainfallDeltaPct  float64 `json:"rainfall_delta_pct"`
	InputCostDeltaPct float64 `json:"input_cost_delta_pct"`
	Seed              int64   `json:"seed"`
}

type MonteCarloResult struct {
	Iterations int     `json:"iterations"`
	Yield      float64 `json:"yield"`
	Margin     float64 `json:"margin"`
	BagPrice   float64 `json:"bag_price"`
	Seed       int64   `json:"seed"`
}

type partial struct{ yield, margin float64 }

// MonteCarlo samples noisy rainfall and input-cost factors around the requested deltas and
// returns mean yield and margin. The result depends only on the request, including Seed.
func MonteCarlo(ctx context.Context, req MonteCarloRequest) (MonteCarloResult, error) {
	n := req.Iterations
	if n <= 0 {
		n = DefaultIterations
	}
	if n > MaxIterations {
		n = MaxIterations
	}
	price := req.BagPrice
	if price == 0 {
		price = 150
	}

	chunks := (n + chunkSize - 1) / chunkSize
	sums := make([]partial, chunks)
	g, ctx := errgroup.WithContext(ctx)
	for c := 0; c < chunks; c++ {
		c := c
		count := chunkSize
		if rest := n - c*chunkSize; rest < count {
			count = rest
		}
		g.Go(func() error {
			rng := rand.New(rand.NewSource(req.Seed + int64(c)*7919))
			var s partial
			for i := 0; i < count; i++ {
				if i%500 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				rain := 1 + (req.RainfallDeltaPct/100 + rng.NormFloat64()*0.05)
				inputs := 1 - (req.InputCostDeltaPct/100 + rng.NormFloat64()*0.05)
				yieldBase := 45 + rng.Float64()*20
				marginBase := 1400 + rng.Float64()*800
				s.yield += yieldBase * rain
				s.margin += marginBase * rain * inputs
			}
			sums[c] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonteCarloResult{}, err
	}

	var total partial
	for _, s := range sums {
		total.yield += s.yield
		total.margin += s.margin
	}
	return MonteCarloResult{
		Iterations: n,
		Yield:      round2(total.yield / float64(n)),
		Margin:     round2(total.margin / float64(n)),
		BagPrice:   price,
		Seed:       req.Seed,
	}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
