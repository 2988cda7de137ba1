package dashboard

import "time"

// Reference values served when a panel has no live data.

const referenceBagPrice = 152.0

var forecastRef = []WeatherDay{
	{Date: "2025-11-28", Min: 19, Max: 32, Rainfall: 8, Risk: 0.2},
	{Date: "2025-11-29", Min: 20, Max: 31, Rainfall: 18, Risk: 0.4},
	{Date: "2025-11-30", Min: 21, Max: 33, Rainfall: 12, Risk: 0.35},
	{Date: "2025-12-01", Min: 22, Max: 34, Rainfall: 5, Risk: 0.15},
	{Date: "2025-12-02", Min: 21, Max: 35, Rainfall: 14, Risk: 0.5},
	{Date: "2025-12-03", Min: 20, Max: 32, Rainfall: 9, Risk: 0.24},
	{Date: "2025-12-04", Min: 19, Max: 30, Rainfall: 16, Risk: 0.42},
}

var economicsRef = []Indicator{
	{Label: "Custo/ha", Value: "R$ 4.180", Trend: "up", Delta: "+3.1%"},
	{Label: "Margem esperada", Value: "R$ 2.430", Trend: "up", Delta: "+5.4%"},
	{Label: "Preço saca", Value: "R$ 152,00", Trend: "flat", Delta: "+0.2%"},
	{Label: "Insumos", Value: "R$ 2.980", Trend: "down", Delta: "-1.2%"},
}

var rainRef = []RainPoint{
	{Day: "Seg", Rainfall: 12, ETo: 4.1},
	{Day: "Ter", Rainfall: 4, ETo: 3.8},
	{Day: "Qua", Rainfall: 22, ETo: 4.6},
	{Day: "Qui", Rainfall: 16, ETo: 4.0},
	{Day: "Sex", Rainfall: 9, ETo: 3.9},
	{Day: "Sáb", Rainfall: 3, ETo: 3.6},
	{Day: "Dom", Rainfall: 18, ETo: 4.4},
}

var seasonsRef = []SeasonCard{
	{Name: "Safra 23/24", Area: 3200, Productivity: 61.5, CostPerHa: 4120, Margin: 2480},
	{Name: "Safra 22/23", Area: 2950, Productivity: 58.2, CostPerHa: 3980, Margin: 2310},
	{Name: "Safrinha 23", Area: 1800, Productivity: 92.3, CostPerHa: 2870, Margin: 1840},
}

func kpiRef() KPIs {
	return KPIs{
		AreaHa:              1250.5,
		AvgProductivityKgHa: 3450.2,
		TotalYieldT:         4312.8,
		AvgMoisturePct:      refMoisturePct,
		AvgProteinPct:       refProteinPct,
		EstimatedMarginRHa:  refMarginRHa,
		LastUpdated:         time.Now().UTC().Format(time.RFC3339),
	}
}
