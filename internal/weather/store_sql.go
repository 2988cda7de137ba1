package weather

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/siad-agro/siad-api/internal/db"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(dbh *sql.DB) *SQLStore { return &SQLStore{db: dbh} }

func (s *SQLStore) CreateStation(ctx context.Context, st Station) (Station, error) {
	st.Code = strings.ToUpper(strings.TrimSpace(st.Code))
	if st.Code == "" || st.Name == "" {
		return Station{}, fmt.Errorf("station code and name required: %w", db.ErrInvalid)
	}
	err := s.db.QueryRowContext(ctx, `INSERT INTO weather_stations (code,name,latitude,longitude,elevation,created_at)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		st.Code, st.Name, st.Latitude, st.Longitude, st.Elevation, db.Now()).Scan(&st.ID)
	if db.IsUniqueViolation(err) {
		return Station{}, fmt.Errorf("station %s: %w", st.Code, db.ErrConflict)
	}
	if err != nil {
		return Station{}, fmt.Errorf("insert station: %w", err)
	}
	return st, nil
}

func (s *SQLStore) ListStations(ctx context.Context) ([]Station, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,code,name,latitude,longitude,elevation FROM weather_stations ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Station{}
	for rows.Next() {
		var st Station
		var elev sql.NullFloat64
		if err := rows.Scan(&st.ID, &st.Code, &st.Name, &st.Latitude, &st.Longitude, &elev); err != nil {
			return nil, err
		}
		if elev.Valid {
			st.Elevation = &elev.Float64
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStore) StationByCode(ctx context.Context, code string) (Station, error) {
	var st Station
	var elev sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `SELECT id,code,name,latitude,longitude,elevation FROM weather_stations WHERE code=$1`,
		strings.ToUpper(strings.TrimSpace(code))).Scan(&st.ID, &st.Code, &st.Name, &st.Latitude, &st.Longitude, &elev)
	if errors.Is(err, sql.ErrNoRows) {
		return Station{}, fmt.Errorf("station %s: %w", code, db.ErrNotFound)
	}
	if elev.Valid {
		st.Elevation = &elev.Float64
	}
	return st, err
}

func (s *SQLStore) AddReadings(ctx context.Context, stationID int64, rs []Reading) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, r := range rs {
			if _, err := time.Parse(db.DateLayout, r.Date); err != nil {
				return fmt.Errorf("reading date %q: %w", r.Date, db.ErrInvalid)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO weather_history
				(station_id,reading_date,rainfall_mm,temperature_c,eto,ndvi) VALUES ($1,$2,$3,$4,$5,$6)`,
				stationID, r.Date, r.RainfallMM, r.TemperatureC, r.ETo, r.NDVI); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) AddForecast(ctx context.Context, stationID int64, days []ForecastDay) error {
	now := db.Now()
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, d := range days {
			if _, err := time.Parse(db.DateLayout, d.Date); err != nil {
				return fmt.Errorf("forecast date %q: %w", d.Date, db.ErrInvalid)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO weather_forecasts
				(station_id,forecast_date,min_temp_c,max_temp_c,rainfall_mm,risk_index,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				stationID, d.Date, d.MinTempC, d.MaxTempC, d.RainfallMM, d.RiskIndex, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) tx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

// Forecast returns up to ForecastDays days ordered by date.
func (s *SQLStore) Forecast(ctx context.Context, code string) (Forecast, error) {
	st, err := s.StationByCode(ctx, code)
	if err != nil {
		return Forecast{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT forecast_date,min_temp_c,max_temp_c,rainfall_mm,risk_index
		FROM weather_forecasts WHERE station_id=$1 ORDER BY forecast_date LIMIT $2`, st.ID, ForecastDays)
	if err != nil {
		return Forecast{}, err
	}
	defer rows.Close()
	out := Forecast{StationCode: st.Code, GeneratedAt: time.Now().UTC(), Days: []ForecastDay{}}
	for rows.Next() {
		var d ForecastDay
		if err := rows.Scan(&d.Date, &d.MinTempC, &d.MaxTempC, &d.RainfallMM, &d.RiskIndex); err != nil {
			return Forecast{}, err
		}
		out.Days = append(out.Days, d)
	}
	return out, rows.Err()
}

// History returns the latest HistoryDays readings, newest first.
func (s *SQLStore) History(ctx context.Context, code string) (History, error) {
	st, err := s.StationByCode(ctx, code)
	if err != nil {
		return History{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT reading_date,rainfall_mm,temperature_c,eto,ndvi
		FROM weather_history WHERE station_id=$1 ORDER BY reading_date DESC LIMIT $2`, st.ID, HistoryDays)
	if err != nil {
		return History{}, err
	}
	defer rows.Close()
	out := History{StationCode: st.Code, Readings: []Reading{}}
	for rows.Next() {
		r := Reading{Station: st.Code}
		if err := rows.Scan(&r.Date, &r.RainfallMM, &r.TemperatureC, &r.ETo, &r.NDVI); err != nil {
			return History{}, err
		}
		out.Readings = append(out.Readings, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) RainfallStats(ctx context.Context, code string) (RainfallStats, error) {
	st, err := s.StationByCode(ctx, code)
	if err != nil {
		return RainfallStats{}, err
	}
	var avg, total sql.NullFloat64
	err = s.db.QueryRowContext(ctx, `SELECT AVG(rainfall_mm), SUM(rainfall_mm) FROM weather_history WHERE station_id=$1`, st.ID).
		Scan(&avg, &total)
	if err != nil {
		return RainfallStats{}, err
	}
	return RainfallStats{StationCode: st.Code, Avg: avg.Float64, Total: total.Float64}, nil
}
