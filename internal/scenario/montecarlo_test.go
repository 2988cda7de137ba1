package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonteCarloDeterministicPerSeed(t *testing.T) {
	req := MonteCarloRequest{Iterations: 6000, BagPrice: 152, RainfallDeltaPct: 10, InputCostDeltaPct: -5, Seed: 42}
	a, err := MonteCarlo(context.Background(), req)
	require.NoError(t, err)
	b, err := MonteCarlo(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	req.Seed = 43
	c, err := MonteCarlo(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, a.Margin, c.Margin)
}

func TestMonteCarloDefaults(t *testing.T) {
	res, err := MonteCarlo(context.Background(), MonteCarloRequest{Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, DefaultIterations, res.Iterations)
	assert.Equal(t, 150.0, res.BagPrice)
	// E[yield] = 55, E[margin] = 1800 with zero deltas
	assert.InDelta(t, 55, res.Yield, 1.5)
	assert.InDelta(t, 1800, res.Margin, 60)

	capped, err := MonteCarlo(context.Background(), MonteCarloRequest{Iterations: MaxIterations * 3, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, MaxIterations, capped.Iterations)
}

func TestMonteCarloRespondsToDeltas(t *testing.T) {
	wet, err := MonteCarlo(context.Background(), MonteCarloRequest{Iterations: 20000, RainfallDeltaPct: 20, Seed: 7})
	require.NoError(t, err)
	dry, err := MonteCarlo(context.Background(), MonteCarloRequest{Iterations: 20000, RainfallDeltaPct: -20, Seed: 7})
	require.NoError(t, err)
	assert.Greater(t, wet.Yield, dry.Yield)
	assert.Greater(t, wet.Margin, dry.Margin)
}

func TestMonteCarloCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := MonteCarlo(ctx, MonteCarloRequest{Iterations: 10000})
	assert.ErrorIs(t, err, context.Canceled)
}
