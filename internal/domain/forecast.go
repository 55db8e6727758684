package domain

import "time"

// Supported forecast horizons, in days. Any positive horizon is accepted by
// the generator; these are the ones the presentation layer offers.
var SupportedHorizons = []int{7, 14, 30, 60, 90}

// ForecastPoint is one predicted day with its confidence interval.
// Invariant: Lower <= Point <= Upper and Lower >= 0 for non-negative
// point estimates.
type ForecastPoint struct {
	Date  time.Time
	Point float64
	Lower float64
	Upper float64
}

// ForecastResult is a multi-horizon prediction for one series. Ephemeral:
// recomputed on demand from a TrainedModelArtifact, never persisted.
// Points are contiguous, strictly increasing by day, starting the day after
// the last training observation.
type ForecastResult struct {
	Company     string
	Product     string
	GeneratedAt time.Time
	HorizonDays int
	Confidence  float64 // interval confidence level, e.g. 0.95
	Points      []ForecastPoint
}

// Total sums point estimates over the horizon.
func (r *ForecastResult) Total() float64 {
	var sum float64
	for _, p := range r.Points {
		sum += p.Point
	}
	return sum
}

// TrendDirection labels whether forecast demand rises or falls across the
// horizon.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
)

// ForecastSummary condenses one forecast horizon for dashboards.
type ForecastSummary struct {
	HorizonDays    int
	TotalDemand    float64
	AvgDailyDemand float64
	MaxDailyDemand float64
	MinDailyDemand float64
	Trend          TrendDirection
	LowerTotal     float64 // summed lower bounds
	UpperTotal     float64 // summed upper bounds
}
