package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/siad-agro/siad-api/internal/crops"
	"github.com/siad-agro/siad-api/internal/fields"
	"github.com/siad-agro/siad-api/internal/inputs"
	"github.com/siad-agro/siad-api/internal/reports"
	"github.com/siad-agro/siad-api/internal/weather"
)

// sections builds the report bodies from the live stores. Every section reads its
// optional filters from the job params.
func sections(w weather.Store, c *crops.Service, in *inputs.Store, f *fields.Store, defStation string) map[reports.Type]reports.Section {
	station := func(params map[string]any) string {
		if s, ok := params["station"].(string); ok && s != "" {
			return strings.ToUpper(s)
		}
		return defStation
	}
	forecastTable := func(ctx context.Context, code string) (string, error) {
		fc, err := w.Forecast(ctx, code)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		b.WriteString("| Data | Mín (°C) | Máx (°C) | Chuva (mm) | Risco |\n|---|---|---|---|---|\n")
		for _, d := range fc.Days {
			fmt.Fprintf(&b, "| %s | %.1f | %.1f | %.1f | %.2f |\n", d.Date, d.MinTempC, d.MaxTempC, d.RainfallMM, d.RiskIndex)
		}
		return b.String(), nil
	}

	return map[reports.Type]reports.Section{
		reports.TypeClima: func(ctx context.Context, params map[string]any) (string, error) {
			code := station(params)
			st, err := w.RainfallStats(ctx, code)
			if err != nil {
				return "", err
			}
			h, err := w.History(ctx, code)
			if err != nil {
				return "", err
			}
			var b strings.Builder
			fmt.Fprintf(&b, "## Clima: estação %s\n\n", code)
			fmt.Fprintf(&b, "- Chuva média: %.1f mm\n- Chuva total: %.1f mm\n\n", st.Avg, st.Total)
			b.WriteString("| Data | Chuva (mm) | Temp (°C) | ETo | NDVI |\n|---|---|---|---|---|\n")
			for _, r := range h.Readings {
				fmt.Fprintf(&b, "| %s | %.1f | %.1f | %.2f | %.2f |\n", r.Date, r.RainfallMM, r.TemperatureC, r.ETo, r.NDVI)
			}
			return b.String(), nil
		},
		reports.TypePrevisao: func(ctx context.Context, params map[string]any) (string, error) {
			code := station(params)
			t, err := forecastTable(ctx, code)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("## Previsão: estação %s\n\n%s", code, t), nil
		},
		reports.TypeSafra: func(ctx context.Context, _ map[string]any) (string, error) {
			seasons, err := c.Seasons(ctx)
			if err != nil {
				return "", err
			}
			var b strings.Builder
			b.WriteString("## Safras\n\n| Cultivar | Plantio | Colheita | Produtividade (sc/ha) | Área (ha) | Custo (R$/ha) |\n|---|---|---|---|---|---|\n")
			for _, s := range seasons {
				prod, err := c.Productivity(ctx, s.ID)
				if err != nil {
					return "", err
				}
				var yield, area float64
				for _, p := range prod {
					yield += p.YieldBagHa
					area += p.AreaHa
				}
				if len(prod) > 0 {
					yield /= float64(len(prod))
				} else {
					yield = s.ExpectedYieldBagHa
				}
				harvest := "-"
				if s.HarvestDate != nil {
					harvest = *s.HarvestDate
				}
				fmt.Fprintf(&b, "| %s | %s | %s | %.1f | %.1f | %.2f |\n", s.Cultivar, s.PlantingDate, harvest, yield, area, s.CostPerHa)
			}
			return b.String(), nil
		},
		reports.TypeCustos: func(ctx context.Context, _ map[string]any) (string, error) {
			items, err := in.List(ctx)
			if err != nil {
				return "", err
			}
			var (
				b     strings.Builder
				total float64
			)
			b.WriteString("## Custos de insumos\n\n| Insumo | Unidade | Custo unitário (R$) | Fornecedor |\n|---|---|---|---|\n")
			for _, it := range items {
				total += it.UnitCost
				fmt.Fprintf(&b, "| %s | %s | %.2f | %s |\n", it.Name, it.Unit, it.UnitCost, it.Supplier)
			}
			fmt.Fprintf(&b, "\nSoma dos custos unitários: R$ %.2f\n", total)
			return b.String(), nil
		},
		reports.TypeMapas: func(ctx context.Context, _ map[string]any) (string, error) {
			list, err := f.List(ctx, 0)
			if err != nil {
				return "", err
			}
			var b strings.Builder
			b.WriteString("## Talhões\n\n| Talhão | Área (ha) | Solo | Camadas |\n|---|---|---|---|\n")
			for _, fl := range list {
				layers := make([]string, 0, len(fl.Layers))
				for _, l := range fl.Layers {
					layers = append(layers, l.LayerType)
				}
				fmt.Fprintf(&b, "| %s | %.2f | %s | %s |\n", fl.Name, fl.AreaHa, fl.SoilType, strings.Join(layers, ", "))
			}
			return b.String(), nil
		},
	}
}
