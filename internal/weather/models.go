package weather

import (
	"context"
	"time"
)

type Station struct {
	ID        int64    `json:"-" yaml:"-"`
	Code      string   `json:"code" yaml:"code"`
	Name      string   `json:"name" yaml:"name"`
	Latitude  float64  `json:"latitude" yaml:"lat"`
	Longitude float64  `json:"longitude" yaml:"lon"`
	Elevation *float64 `json:"elevation" yaml:"elev"`
}

// Reading is one day of observed weather at a station.
type Reading struct {
	Station      string  `json:"station"`
	Date         string  `json:"date"`
	RainfallMM   float64 `json:"rainfall_mm"`
	TemperatureC float64 `json:"temperature_c"`
	ETo          float64 `json:"eto"`
	NDVI         float64 `json:"ndvi"`
}

type ForecastDay struct {
	Date       string  `json:"date"`
	MinTempC   float64 `json:"min_temp_c"`
	MaxTempC   float64 `json:"max_temp_c"`
	RainfallMM float64 `json:"rainfall_mm"`
	RiskIndex  float64 `json:"risk_index"`
}

type Forecast struct {
	StationCode string        `json:"station_code"`
	GeneratedAt time.Time     `json:"generated_at"`
	Days        []ForecastDay `json:"forecast"`
}

type History struct {
	StationCode string    `json:"station_code"`
	Readings    []Reading `json:"history"`
}

type RainfallStats struct {
	StationCode string  `json:"station_code"`
	Avg         float64 `json:"avg"`
	Total       float64 `json:"total"`
}

const (
	ForecastDays = 10
	HistoryDays  = 30
)

type Store interface {
	CreateStation(ctx context.Context, s Station) (Station, error)
	ListStations(ctx context.Context) ([]Station, error)
	StationByCode(ctx context.Context, code string) (Station, error)
	AddReadings(ctx context.Context, stationID int64, rs []Reading) error
	AddForecast(ctx context.Context, stationID int64, days []ForecastDay) error

	Forecast(ctx context.Context, code string) (Forecast, error)
	History(ctx context.Context, code string) (History, error)
	RainfallStats(ctx context.Context, code string) (RainfallStats, error)
}
