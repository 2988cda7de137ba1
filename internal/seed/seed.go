// Package seed loads the reference dataset: stations, weather, users, fields and catalog.
package seed

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/siad-agro/siad-api/internal/crops"
	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/fields"
	"github.com/siad-agro/siad-api/internal/inputs"
	"github.com/siad-agro/siad-api/internal/scenario"
	"github.com/siad-agro/siad-api/internal/users"
	"github.com/siad-agro/siad-api/internal/weather"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

var ErrAlreadySeeded = errors.New("database already seeded")

type UserFixture struct {
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type FieldFixture struct {
	Name          string       `yaml:"name"`
	SoilType      string       `yaml:"soil_type"`
	DrainageClass string       `yaml:"drainage_class"`
	Ring          [][2]float64 `yaml:"ring"`
}

type Fixtures struct {
	Stations []weather.Station `yaml:"stations"`
	Inputs   []inputs.Item     `yaml:"inputs"`
	Users    []UserFixture     `yaml:"users"`
	Fields   []FieldFixture    `yaml:"fields"`
	Season   struct {
		Cultivar           string  `yaml:"cultivar"`
		PlantingDate       string  `yaml:"planting_date"`
		HarvestDate        string  `yaml:"harvest_date"`
		ExpectedYieldBagHa float64 `yaml:"expected_yield_bag_ha"`
		CostPerHa          float64 `yaml:"cost_per_ha"`
	} `yaml:"season"`
	SoilDepthsCM   []int     `yaml:"soil_depths_cm"`
	ScenarioDeltas []float64 `yaml:"scenario_deltas"`
}

func Load() (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(fixturesYAML, &f); err != nil {
		return Fixtures{}, fmt.Errorf("seed fixtures: %w", err)
	}
	return f, nil
}

// Summary counts what Run inserted.
type Summary struct {
	Stations  int `json:"stations"`
	Readings  int `json:"readings"`
	Users     int `json:"users"`
	Fields    int `json:"fields"`
	Samples   int `json:"soil_samples"`
	Inputs    int `json:"inputs"`
	Scenarios int `json:"scenarios"`
}

type Seeder struct {
	db    *sql.DB
	users *users.Service
	log   *zap.Logger
	rng   *rand.Rand
	today time.Time
}

// New returns a seeder whose random weather is reproducible for a given seed.
func New(dbh *sql.DB, usersSvc *users.Service, log *zap.Logger, seed uint64) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now().UTC()
	return &Seeder{
		db: dbh, users: usersSvc, log: log,
		rng:   rand.New(rand.NewPCG(seed, seed^0x5eed)),
		today: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
}

func (s *Seeder) uniform(lo, hi float64) float64 { return lo + s.rng.Float64()*(hi-lo) }

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Run inserts the whole dataset. It refuses to run twice on the same database.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	fx, err := Load()
	if err != nil {
		return Summary{}, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM weather_stations`).Scan(&n); err != nil {
		return Summary{}, err
	}
	if n > 0 {
		return Summary{}, ErrAlreadySeeded
	}

	var sum Summary
	ws := weather.NewSQLStore(s.db)
	var first weather.Station
	for i, st := range fx.Stations {
		created, err := ws.CreateStation(ctx, st)
		if err != nil {
			return sum, fmt.Errorf("station %s: %w", st.Code, err)
		}
		if i == 0 {
			first = created
		}
		readings, forecast := s.weatherFor(created.Code)
		if err := ws.AddReadings(ctx, created.ID, readings); err != nil {
			return sum, err
		}
		if err := ws.AddForecast(ctx, created.ID, forecast); err != nil {
			return sum, err
		}
		sum.Stations++
		sum.Readings += len(readings)
	}

	var owner users.User
	for i, u := range fx.Users {
		created, err := s.users.Register(ctx, users.RegisterInput{
			Email: u.Email, Password: u.Password, FullName: u.FullName, Role: u.Role,
		})
		if err != nil {
			return sum, fmt.Errorf("user %s: %w", u.Email, err)
		}
		if i == 0 {
			owner = created
		}
		sum.Users++
	}

	fs := fields.NewStore(s.db)
	cs := crops.NewSQLStore(s.db)
	for _, ff := range fx.Fields {
		field, err := fs.Create(ctx, owner.ID, fields.Field{
			Name: ff.Name, SoilType: ff.SoilType, DrainageClass: ff.DrainageClass, Geometry: polygonJSON(ff.Ring),
		})
		if err != nil {
			return sum, fmt.Errorf("field %s: %w", ff.Name, err)
		}
		if _, err := fs.AddLayer(ctx, field.ID, fields.Layer{
			LayerType: "ndvi",
			Stats:     map[string]any{"avg": round(s.uniform(0.55, 0.75), 2)},
			RasterURL: fmt.Sprintf("s3://siad/ndvi/%d.tif", field.ID),
		}); err != nil {
			return sum, err
		}
		sum.Fields++

		harvest := fx.Season.HarvestDate
		season, err := cs.CreateSeason(ctx, crops.Season{
			FieldID: field.ID, Cultivar: fx.Season.Cultivar, PlantingDate: fx.Season.PlantingDate, HarvestDate: &harvest,
			ExpectedYieldBagHa: fx.Season.ExpectedYieldBagHa, CostPerHa: fx.Season.CostPerHa,
		})
		if err != nil {
			return sum, err
		}
		yield := round(s.uniform(52, 64), 1)
		if err := cs.AddProductivity(ctx, crops.Productivity{
			SeasonID: season.ID, AreaHa: field.AreaHa, YieldBagHa: yield,
			NDVIAvg: round(s.uniform(0.55, 0.75), 2), RainfallTotal: round(s.uniform(650, 950), 1),
			EfficiencyIndex: round(yield/fx.Season.ExpectedYieldBagHa, 2),
		}); err != nil {
			return sum, err
		}
		// in-season readings at the first station, every ten days after planting
		planted, _ := time.Parse(db.DateLayout, fx.Season.PlantingDate)
		var inSeason []weather.Reading
		for i := 1; i <= 5; i++ {
			inSeason = append(inSeason, weather.Reading{
				Date:         planted.AddDate(0, 0, i*10).Format(db.DateLayout),
				RainfallMM:   float64(15 + i),
				TemperatureC: round(28+float64(i)*0.3, 1),
				ETo:          4.2,
				NDVI:         round(0.55+float64(i)*0.03, 2),
			})
		}
		if err := ws.AddReadings(ctx, first.ID, inSeason); err != nil {
			return sum, err
		}
		sum.Readings += len(inSeason)

		added, err := s.soilSamples(ctx, field.ID, fx.SoilDepthsCM)
		if err != nil {
			return sum, err
		}
		sum.Samples += added
	}

	is := inputs.NewStore(s.db)
	for _, it := range fx.Inputs {
		if _, err := is.Create(ctx, it); err != nil {
			return sum, fmt.Errorf("input %s: %w", it.Name, err)
		}
		sum.Inputs++
	}

	ss := scenario.NewSQLStore(s.db)
	for _, d := range fx.ScenarioDeltas {
		if _, err := ss.Create(ctx, scenario.Scenario{
			OwnerID: owner.ID, Name: fmt.Sprintf("Cenário %+d", int(d)), Description: "Simulação automática",
			RainfallDeltaPct: d, InputCostDeltaPct: d / 2, FertilizerDeltaPct: d / 3,
			Cultivar: "SOJA RR", BagPrice: 155 + d,
		}); err != nil {
			return sum, err
		}
		sum.Scenarios++
	}

	s.log.Info("seed applied",
		zap.Int("stations", sum.Stations), zap.Int("readings", sum.Readings), zap.Int("users", sum.Users),
		zap.Int("fields", sum.Fields), zap.Int("inputs", sum.Inputs), zap.Int("scenarios", sum.Scenarios))
	return sum, nil
}

// weatherFor draws 30 days of history ending today and a 7 day forecast.
func (s *Seeder) weatherFor(code string) ([]weather.Reading, []weather.ForecastDay) {
	readings := make([]weather.Reading, 0, weather.HistoryDays)
	for d := 0; d < weather.HistoryDays; d++ {
		readings = append(readings, weather.Reading{
			Station:      code,
			Date:         s.today.AddDate(0, 0, -d).Format(db.DateLayout),
			RainfallMM:   round(s.uniform(0, 25), 2),
			TemperatureC: round(s.uniform(18, 34), 1),
			ETo:          round(s.uniform(3.5, 5.5), 2),
			NDVI:         round(s.uniform(0.45, 0.82), 2),
		})
	}
	forecast := make([]weather.ForecastDay, 0, 7)
	for d := 1; d <= 7; d++ {
		forecast = append(forecast, weather.ForecastDay{
			Date:       s.today.AddDate(0, 0, d).Format(db.DateLayout),
			MinTempC:   round(s.uniform(18, 22), 1),
			MaxTempC:   round(s.uniform(30, 36), 1),
			RainfallMM: round(s.uniform(0, 20), 2),
			RiskIndex:  round(s.uniform(0.1, 0.9), 2),
		})
	}
	return readings, forecast
}

// soilSamples writes the reference profile directly: it includes the 0 cm
// surface sample, which the API does not accept.
func (s *Seeder) soilSamples(ctx context.Context, fieldID int64, depths []int) (int, error) {
	for _, d := range depths {
		fd := float64(d)
		_, err := s.db.ExecContext(ctx, `INSERT INTO soil_samples
			(field_id,depth_cm,ph,organic_matter,nitrogen,phosphorus,potassium,recommendation,created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			fieldID, d, round(5.5+fd*0.01, 2), round(2.5+fd*0.02, 2), round(18-fd*0.1, 2),
			round(14-fd*0.08, 2), round(210-fd*0.9, 2), "Aplicar 1,5 t/ha de calcário", db.Now())
		if err != nil {
			return 0, fmt.Errorf("soil sample: %w", err)
		}
	}
	return len(depths), nil
}

func polygonJSON(ring [][2]float64) json.RawMessage {
	b, _ := json.Marshal(map[string]any{"type": "Polygon", "coordinates": [][][2]float64{ring}})
	return b
}
