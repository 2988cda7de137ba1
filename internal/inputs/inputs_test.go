package inputs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/db/dbtest"
)

func TestCompare(t *testing.T) {
	c := Compare(4200, CostAnalysisRequest{CostPerHa: 4000, DeltaPricePct: 10})
	assert.Equal(t, 4200.0, c.BaselineCost)
	assert.Equal(t, 4400.0, c.ScenarioCost)
	assert.InDelta(t, 4.0, c.Sensitivity["fertilizantes"], 1e-9)
	assert.InDelta(t, 3.5, c.Sensitivity["defensivos"], 1e-9)
	assert.InDelta(t, 2.5, c.Sensitivity["sementes"], 1e-9)
}

func TestCatalog(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	_, err := s.Create(ctx, Item{Name: "Uréia", Unit: "kg", UnitCost: 0})
	assert.ErrorIs(t, err, db.ErrInvalid)

	_, err = s.Create(ctx, Item{Name: "Uréia", Unit: "kg", UnitCost: 2.8, Supplier: "FertAgro"})
	require.NoError(t, err)
	_, err = s.Create(ctx, Item{Name: "KCl", Unit: "kg", UnitCost: 3.2})
	require.NoError(t, err)

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "KCl", items[0].Name)
}

func TestAnalyzeCostUsesLatestBaseline(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()

	first, err := s.AnalyzeCost(ctx, CostAnalysisRequest{FieldID: 1, CostPerHa: 4000, DeltaPricePct: 5})
	require.NoError(t, err)
	assert.Equal(t, 4000.0, first.BaselineCost, "no history: request cost is the baseline")
	assert.Equal(t, 4200.0, first.ScenarioCost)

	second, err := s.AnalyzeCost(ctx, CostAnalysisRequest{FieldID: 1, CostPerHa: 3800, DeltaPricePct: -10})
	require.NoError(t, err)
	assert.Equal(t, 4000.0, second.BaselineCost)
	assert.Equal(t, 3420.0, second.ScenarioCost)

	other, err := s.AnalyzeCost(ctx, CostAnalysisRequest{FieldID: 2, CostPerHa: 100})
	require.NoError(t, err)
	assert.Equal(t, 100.0, other.BaselineCost)
}
