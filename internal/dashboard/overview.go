package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/siad-agro/siad-api/internal/crops"
	"github.com/siad-agro/siad-api/internal/fallback"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/prices"
	"github.com/siad-agro/siad-api/internal/scenario"
	"github.com/siad-agro/siad-api/internal/weather"
)

var errNoData = errors.New("no data")

type WeatherSource interface {
	Forecast(ctx context.Context, code string) (weather.Forecast, error)
	History(ctx context.Context, code string) (weather.History, error)
}

type CropSource interface {
	Seasons(ctx context.Context) ([]crops.Season, error)
	Productivity(ctx context.Context, seasonID int64) ([]crops.Productivity, error)
}

type PriceSource interface {
	Current(ctx context.Context) (prices.Board, error)
}

type KPISource interface {
	KPIs(ctx context.Context, f KPIFilter) (KPIs, error)
}

type WeatherDay struct {
	Date     string  `json:"date"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Rainfall float64 `json:"rainfall"`
	Risk     float64 `json:"risk"`
}

type Indicator struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Trend string `json:"trend"` // up, down or flat
	Delta string `json:"delta"`
}

type RainPoint struct {
	Day      string  `json:"day"`
	Rainfall float64 `json:"rainfall"`
	ETo      float64 `json:"eto"`
}

type SeasonCard struct {
	Name         string  `json:"name"`
	Area         float64 `json:"area"`
	Productivity float64 `json:"productivity"`
	CostPerHa    float64 `json:"costPerHa"`
	Margin       float64 `json:"margin"`
}

// Overview is the whole landing page; every panel says whether it is live.
type Overview struct {
	Forecast  fallback.Result[[]WeatherDay]      `json:"forecast"`
	Economics fallback.Result[[]Indicator]       `json:"economics"`
	RainChart fallback.Result[[]RainPoint]       `json:"rain_chart"`
	Seasons   fallback.Result[[]SeasonCard]      `json:"seasons"`
	Scenarios fallback.Result[[]scenario.Preset] `json:"scenarios"`
	KPIs      fallback.Result[KPIs]              `json:"kpis"`
	Prices    fallback.Result[prices.Board]      `json:"prices"`
}

type Service struct {
	weather WeatherSource
	crops   CropSource
	prices  PriceSource
	kpis    KPISource
	station string
	log     *zap.Logger
}

func NewService(w WeatherSource, c CropSource, p PriceSource, k KPISource, station string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{weather: w, crops: c, prices: p, kpis: k, station: station, log: log}
}

// Overview builds every panel concurrently. A failing panel degrades to its
// reference values and never fails the page.
func (s *Service) Overview(ctx context.Context, station string, f KPIFilter) Overview {
	if station == "" {
		station = s.station
	}
	var (
		ov    Overview
		board prices.Board
	)
	// Prices first: the economic panels read the soybean quote.
	ov.Prices = fallback.Fetch(ctx, func(ctx context.Context) (prices.Board, error) {
		b, err := s.prices.Current(ctx)
		board = b
		return b, err
	}, prices.Board{})
	if !ov.Prices.IsFallback() && board.Fresh() == 0 {
		ov.Prices = fallback.Fallback(board, "no live quotes")
	}
	bagPrice := referenceBagPrice
	if q, ok := board.Get(prices.KeySoybeanSpot); ok && q.Data.PriceRSc > 0 {
		bagPrice = q.Data.PriceRSc
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ov.Forecast = panel(gctx, s.log, "forecast", func(ctx context.Context) ([]WeatherDay, error) {
			return s.forecast(ctx, station)
		}, forecastRef)
		return nil
	})
	g.Go(func() error {
		ov.RainChart = panel(gctx, s.log, "rain_chart", func(ctx context.Context) ([]RainPoint, error) {
			return s.rainChart(ctx, station)
		}, rainRef)
		return nil
	})
	g.Go(func() error {
		seasons, err := s.seasonCards(gctx, bagPrice)
		if err != nil {
			s.log.Warn("dashboard panel fallback", zap.String("panel", "seasons"), zap.Error(err))
			ov.Seasons = fallback.Fallback(seasonsRef, err.Error())
			ov.Economics = fallback.Fallback(economicsRef, err.Error())
			return nil
		}
		ov.Seasons = fallback.Live(seasons)
		ov.Economics = fallback.Live(indicators(gctx, seasons, bagPrice))
		return nil
	})
	g.Go(func() error {
		ov.KPIs = panel(gctx, s.log, "kpis", func(ctx context.Context) (KPIs, error) {
			return s.kpis.KPIs(ctx, f)
		}, kpiRef())
		return nil
	})
	_ = g.Wait()
	ov.Scenarios = fallback.Live(scenario.Presets())
	return ov
}

// panel runs fn and logs when the reference value is served instead.
func panel[T any](ctx context.Context, log *zap.Logger, name string, fn func(context.Context) (T, error), ref T) fallback.Result[T] {
	r := fallback.Fetch(ctx, fn, ref)
	if r.IsFallback() {
		log.Warn("dashboard panel fallback", zap.String("panel", name), zap.String("reason", r.Reason))
	}
	return r
}

func (s *Service) forecast(ctx context.Context, station string) ([]WeatherDay, error) {
	fc, err := s.weather.Forecast(ctx, station)
	if err != nil {
		return nil, err
	}
	if len(fc.Days) == 0 {
		return nil, errNoData
	}
	n := min(len(fc.Days), 7)
	out := make([]WeatherDay, 0, n)
	for _, d := range fc.Days[:n] {
		out = append(out, WeatherDay{Date: d.Date, Min: d.MinTempC, Max: d.MaxTempC, Rainfall: d.RainfallMM, Risk: d.RiskIndex})
	}
	return out, nil
}

// rainChart returns the last seven readings oldest first.
func (s *Service) rainChart(ctx context.Context, station string) ([]RainPoint, error) {
	h, err := s.weather.History(ctx, station)
	if err != nil {
		return nil, err
	}
	if len(h.Readings) == 0 {
		return nil, errNoData
	}
	n := min(len(h.Readings), 7)
	tag := locale.FromContext(ctx)
	out := make([]RainPoint, n)
	for i, r := range h.Readings[:n] {
		day := fmt.Sprintf("D%d", n-i)
		if t, err := time.Parse("2006-01-02", r.Date); err == nil {
			day = weekdayShort(tag, t.Weekday())
		}
		out[n-1-i] = RainPoint{Day: day, Rainfall: r.RainfallMM, ETo: r.ETo}
	}
	return out, nil
}

// seasonCards summarises each season from its productivity rows, newest first.
func (s *Service) seasonCards(ctx context.Context, bagPrice float64) ([]SeasonCard, error) {
	seasons, err := s.crops.Seasons(ctx)
	if err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		return nil, errNoData
	}
	out := make([]SeasonCard, 0, len(seasons))
	for _, se := range seasons {
		rows, err := s.crops.Productivity(ctx, se.ID)
		if err != nil {
			return nil, err
		}
		card := SeasonCard{Name: seasonName(se), CostPerHa: se.CostPerHa, Productivity: se.ExpectedYieldBagHa}
		if len(rows) > 0 {
			var sum float64
			for _, p := range rows {
				card.Area += p.AreaHa
				sum += p.YieldBagHa
			}
			card.Productivity = round1(sum / float64(len(rows)))
		}
		card.Margin = math.Round(card.Productivity*bagPrice - card.CostPerHa)
		out = append(out, card)
	}
	return out, nil
}

// seasonName labels a season by its crop year, e.g. "Safra 24/25 SOJA RR".
func seasonName(se crops.Season) string {
	t, err := time.Parse("2006-01-02", se.PlantingDate)
	if err != nil {
		return "Safra " + se.Cultivar
	}
	y := t.Year() % 100
	if t.Month() < time.July {
		y = (y + 99) % 100
	}
	return fmt.Sprintf("Safra %02d/%02d %s", y, (y+1)%100, se.Cultivar)
}

// indicators compares the newest season with the previous one.
func indicators(ctx context.Context, seasons []SeasonCard, bagPrice float64) []Indicator {
	p := message.NewPrinter(locale.FromContext(ctx))
	cur := seasons[0]
	prev := cur
	if len(seasons) > 1 {
		prev = seasons[1]
	}
	return []Indicator{
		withTrend(p, "Custo/ha", p.Sprintf("R$ %.0f", cur.CostPerHa), cur.CostPerHa, prev.CostPerHa),
		withTrend(p, "Margem esperada", p.Sprintf("R$ %.0f", cur.Margin), cur.Margin, prev.Margin),
		{Label: "Preço saca", Value: p.Sprintf("R$ %.2f", bagPrice), Trend: "flat", Delta: p.Sprintf("%+.1f%%", 0.0)},
		withTrend(p, "Produtividade", p.Sprintf("%.1f sc/ha", cur.Productivity), cur.Productivity, prev.Productivity),
	}
}

func withTrend(p *message.Printer, label, value string, cur, prev float64) Indicator {
	var delta float64
	if prev != 0 {
		delta = (cur - prev) / math.Abs(prev) * 100
	}
	trend := "flat"
	switch {
	case delta > 0.05:
		trend = "up"
	case delta < -0.05:
		trend = "down"
	}
	return Indicator{Label: label, Value: value, Trend: trend, Delta: p.Sprintf("%+.1f%%", delta)}
}

var weekdays = map[string][7]string{
	"pt": {"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"},
	"en": {"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	"es": {"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"},
}

func weekdayShort(tag language.Tag, d time.Weekday) string {
	base, _ := tag.Base()
	names, ok := weekdays[base.String()]
	if !ok {
		names = weekdays["pt"]
	}
	return names[d]
}
