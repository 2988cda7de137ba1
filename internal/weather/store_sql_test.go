package weather_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/db/dbtest"
	"github.com/siad-agro/siad-api/internal/weather"
)

func seeded(t *testing.T) *weather.SQLStore {
	t.Helper()
	ctx := context.Background()
	s := weather.NewSQLStore(dbtest.Open(t))
	elev := 365.0
	st, err := s.CreateStation(ctx, weather.Station{Code: "br001", Name: "Sorriso", Latitude: -12.54, Longitude: -55.72, Elevation: &elev})
	require.NoError(t, err)
	assert.Equal(t, "BR001", st.Code)

	var readings []weather.Reading
	for d := 1; d <= 35; d++ {
		readings = append(readings, weather.Reading{
			Date: fmt.Sprintf("2025-01-%02d", (d-1)%31+1), RainfallMM: float64(d), TemperatureC: 25, ETo: 4.2, NDVI: 0.6,
		})
	}
	require.NoError(t, s.AddReadings(ctx, st.ID, readings))

	var days []weather.ForecastDay
	for d := 12; d >= 1; d-- {
		days = append(days, weather.ForecastDay{Date: fmt.Sprintf("2025-02-%02d", d), MinTempC: 19, MaxTempC: 32, RainfallMM: 3, RiskIndex: 0.4})
	}
	require.NoError(t, s.AddForecast(ctx, st.ID, days))
	return s
}

func TestStations(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	_, err := s.CreateStation(ctx, weather.Station{Code: "BR002", Name: "Rondonópolis"})
	require.NoError(t, err)
	list, err := s.ListStations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Elevation)
	assert.Equal(t, 365.0, *list[0].Elevation)
	assert.Nil(t, list[1].Elevation)

	_, err = s.CreateStation(ctx, weather.Station{Code: "BR001", Name: "dup"})
	assert.ErrorIs(t, err, db.ErrConflict)
}

func TestForecastOrderedAndCapped(t *testing.T) {
	f, err := seeded(t).Forecast(context.Background(), "BR001")
	require.NoError(t, err)
	assert.Equal(t, "BR001", f.StationCode)
	require.Len(t, f.Days, weather.ForecastDays)
	assert.Equal(t, "2025-02-01", f.Days[0].Date)
	assert.Equal(t, "2025-02-10", f.Days[9].Date)
}

func TestHistoryNewestFirst(t *testing.T) {
	h, err := seeded(t).History(context.Background(), "br001")
	require.NoError(t, err)
	require.Len(t, h.Readings, weather.HistoryDays)
	assert.Equal(t, "2025-01-31", h.Readings[0].Date)
	assert.Equal(t, "BR001", h.Readings[0].Station)
}

func TestRainfallStats(t *testing.T) {
	st, err := seeded(t).RainfallStats(context.Background(), "BR001")
	require.NoError(t, err)
	assert.InDelta(t, 630.0, st.Total, 1e-9) // 1..35
	assert.InDelta(t, 18.0, st.Avg, 1e-9)
}

func TestUnknownStation(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	_, err := s.Forecast(ctx, "XX999")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.History(ctx, "XX999")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.RainfallStats(ctx, "XX999")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestAddReadingsRejectsBadDate(t *testing.T) {
	s := weather.NewSQLStore(dbtest.Open(t))
	st, err := s.CreateStation(context.Background(), weather.Station{Code: "BR003", Name: "Rio Verde"})
	require.NoError(t, err)
	err = s.AddReadings(context.Background(), st.ID, []weather.Reading{{Date: "03/01/2025"}})
	assert.ErrorIs(t, err, db.ErrInvalid)
}
