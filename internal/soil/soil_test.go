package soil

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/db/dbtest"
)

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(3, nil)
	assert.Equal(t, []string{WarnNoData}, a.Warnings)
	assert.Zero(t, a.LimeRecommendation)
	assert.Empty(t, a.FertilizerPlan)
}

func TestAnalyzeAcidSoil(t *testing.T) {
	a := Analyze(1, []Sample{
		{PH: 5.0, Nitrogen: 20, Phosphorus: 10, Potassium: 200},
		{PH: 5.4, Nitrogen: 10, Phosphorus: 20, Potassium: 100},
	})
	want := Analysis{
		FieldID:            1,
		Samples:            2,
		AvgPH:              5.2,
		LimeRecommendation: 250,
		FertilizerPlan:     map[string]float64{"N": 18, "P": 12, "K": 90},
		Warnings:           []string{WarnAcidSoil},
	}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Fatalf("analysis mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeNeutralSoilNeedsNoLime(t *testing.T) {
	a := Analyze(1, []Sample{{PH: 6.8}})
	assert.Zero(t, a.LimeRecommendation)
	assert.Empty(t, a.Warnings)
}

func TestStoreCreateAndAnalyze(t *testing.T) {
	dbh := dbtest.Open(t)
	owner := dbtest.InsertID(t, dbh, `INSERT INTO users (email,hashed_password,full_name,role,created_at,updated_at)
		VALUES ('a@siad.ag','x','A','agronomo',0,0) RETURNING id`)
	field := dbtest.InsertID(t, dbh, `INSERT INTO fields (name,area_ha,geometry,owner_id,created_at)
		VALUES ('T1',50,'{}',$1,0) RETURNING id`, owner)
	s := NewStore(dbh)
	ctx := context.Background()

	_, err := s.Create(ctx, Sample{FieldID: field, DepthCM: 0, PH: 5.5})
	assert.ErrorIs(t, err, db.ErrInvalid)
	_, err = s.Create(ctx, Sample{FieldID: field + 100, DepthCM: 10, PH: 5.5})
	assert.ErrorIs(t, err, db.ErrNotFound)

	for _, d := range []int{20, 10} {
		_, err := s.Create(ctx, Sample{FieldID: field, DepthCM: d, PH: 5.6, Nitrogen: 18, Phosphorus: 14, Potassium: 210})
		require.NoError(t, err)
	}
	samples, err := s.ByField(ctx, field)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 10, samples[0].DepthCM)

	a, err := s.Analyze(ctx, field)
	require.NoError(t, err)
	assert.Equal(t, 150.0, a.LimeRecommendation)
	assert.Equal(t, 21.6, a.FertilizerPlan["N"])
}
