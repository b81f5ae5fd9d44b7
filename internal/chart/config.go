// Package chart turns the per-category expense statistics served at
// /api/stats/month into a Chart.js doughnut configuration and binds it to a
// mount element of a host document.
package chart

import "mybudget/internal/core"

const (
	// MountID is the id of the element the expenses chart binds to.
	MountID = "expensesChart"

	// StatsPath is the endpoint queried by Initialize.
	StatsPath = "/api/stats/month"

	TypeDoughnut     = "doughnut"
	LegendPosition   = "right"
	LegendLabelColor = "#B0B0B0"
)

// MonthlyStatsResponse is the JSON body of GET /api/stats/{period}.
// Labels, Data and Colors are index-aligned; their lengths are not checked.
type MonthlyStatsResponse struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
	Colors []string  `json:"colors"`
}

// Config mirrors the Chart.js constructor argument.
type Config struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderWidth     int       `json:"borderWidth"`
}

type Options struct {
	Responsive          bool    `json:"responsive"`
	MaintainAspectRatio bool    `json:"maintainAspectRatio"`
	Plugins             Plugins `json:"plugins"`
}

type Plugins struct {
	Legend Legend `json:"legend"`
}

type Legend struct {
	Position string       `json:"position"`
	Labels   LegendLabels `json:"labels"`
}

type LegendLabels struct {
	Color string `json:"color"`
}

// DefaultOptions is the option bundle shared by every expenses chart.
func DefaultOptions() Options {
	return Options{
		Responsive:          true,
		MaintainAspectRatio: false,
		Plugins: Plugins{
			Legend: Legend{
				Position: LegendPosition,
				Labels:   LegendLabels{Color: LegendLabelColor},
			},
		},
	}
}

// Doughnut builds the chart configuration for resp. The mapping is a pure
// function of its input: labels, values and colors pass through untouched.
func Doughnut(resp MonthlyStatsResponse) Config {
	return Config{
		Type: TypeDoughnut,
		Data: Data{
			Labels: resp.Labels,
			Datasets: []Dataset{{
				Data:            resp.Data,
				BackgroundColor: resp.Colors,
				BorderWidth:     0,
			}},
		},
		Options: DefaultOptions(),
	}
}

// FromPeriodStats converts aggregated totals into the wire response.
// The slices are always non-nil so an empty period encodes as [].
func FromPeriodStats(ps core.PeriodStats) MonthlyStatsResponse {
	resp := MonthlyStatsResponse{
		Labels: make([]string, 0, len(ps.Totals)),
		Data:   make([]float64, 0, len(ps.Totals)),
		Colors: make([]string, 0, len(ps.Totals)),
	}
	for _, t := range ps.Totals {
		resp.Labels = append(resp.Labels, t.Name)
		resp.Data = append(resp.Data, t.Amount.Units())
		resp.Colors = append(resp.Colors, t.Color)
	}
	return resp
}
