package fields

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/db/dbtest"
)

// about 1.07 km x 1.11 km, close to 120 ha
const square = `{"type":"Polygon","coordinates":[[[-47.0,-15.0],[-46.99,-15.0],[-46.99,-14.99],[-47.0,-14.99],[-47.0,-15.0]]]}`

func TestParseBoundaryArea(t *testing.T) {
	_, area, err := ParseBoundary(json.RawMessage(square))
	require.NoError(t, err)
	assert.InDelta(t, 119.7, area, 3.0)
}

func TestParseBoundaryRejects(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"point":    `{"type":"Point","coordinates":[-47,-15]}`,
		"open":     `{"type":"Polygon","coordinates":[[[-47,-15],[-46.9,-15],[-46.9,-14.9],[-47,-14.9]]]}`,
		"short":    `{"type":"Polygon","coordinates":[[[-47,-15],[-46.9,-15],[-47,-15]]]}`,
		"garbage":  `{"type":`,
		"outrange": `{"type":"Polygon","coordinates":[[[-200,-15],[-46.9,-15],[-46.9,-14.9],[-200,-15]]]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseBoundary(json.RawMessage(raw))
			assert.ErrorIs(t, err, db.ErrInvalid)
		})
	}
}

func newStore(t *testing.T) (*Store, int64) {
	t.Helper()
	dbh := dbtest.Open(t)
	owner := dbtest.InsertID(t, dbh, `INSERT INTO users (email,hashed_password,full_name,role,created_at,updated_at)
		VALUES ('f@siad.ag','x','F','agronomo',0,0) RETURNING id`)
	return NewStore(dbh), owner
}

func TestCreateFillsAreaFromBoundary(t *testing.T) {
	ctx := context.Background()
	s, owner := newStore(t)

	f, err := s.Create(ctx, owner, Field{Name: " Talhão 1 ", SoilType: "Latossolo Vermelho", Geometry: json.RawMessage(square)})
	require.NoError(t, err)
	assert.Equal(t, "Talhão 1", f.Name)
	assert.Equal(t, f.ComputedAreaHa, f.AreaHa)
	assert.Greater(t, f.AreaHa, 100.0)

	declared, err := s.Create(ctx, owner, Field{Name: "Talhão 2", AreaHa: 80, Geometry: json.RawMessage(square)})
	require.NoError(t, err)
	assert.Equal(t, 80.0, declared.AreaHa)

	_, err = s.Create(ctx, owner, Field{Name: "bad", AreaHa: -1, Geometry: json.RawMessage(square)})
	assert.ErrorIs(t, err, db.ErrInvalid)
	_, err = s.Create(ctx, owner, Field{Name: "", Geometry: json.RawMessage(square)})
	assert.ErrorIs(t, err, db.ErrInvalid)
}

func TestLayersAttachToFields(t *testing.T) {
	ctx := context.Background()
	s, owner := newStore(t)
	a, err := s.Create(ctx, owner, Field{Name: "A", Geometry: json.RawMessage(square)})
	require.NoError(t, err)
	b, err := s.Create(ctx, owner, Field{Name: "B", Geometry: json.RawMessage(square)})
	require.NoError(t, err)

	_, err = s.AddLayer(ctx, a.ID, Layer{LayerType: "ndvi", Stats: map[string]any{"mean": 0.72}})
	require.NoError(t, err)
	_, err = s.AddLayer(ctx, a.ID, Layer{LayerType: "solo"})
	require.NoError(t, err)

	_, err = s.AddLayer(ctx, a.ID, Layer{LayerType: "lidar"})
	assert.ErrorIs(t, err, db.ErrInvalid)
	_, err = s.AddLayer(ctx, 999, Layer{LayerType: "ndvi"})
	assert.ErrorIs(t, err, db.ErrNotFound)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Len(t, list[0].Layers, 2)
	assert.Equal(t, "ndvi", list[0].Layers[0].LayerType)
	assert.Equal(t, 0.72, list[0].Layers[0].Stats["mean"])
	assert.Empty(t, list[1].Layers)
	assert.Equal(t, b.ID, list[1].ID)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, got.Layers, 2)

	_, err = s.Get(ctx, 12345)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
