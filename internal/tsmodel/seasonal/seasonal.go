// Package seasonal implements tsmodel.Model with classical decomposition:
// an ordinary-least-squares trend plus averaged seasonal indices, with
// residual-sigma prediction intervals. It is the engine's built-in
// collaborator; any model honoring the tsmodel contract can replace it.
package seasonal

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/stats"
	"demand-forecast-engine/internal/tsmodel"
)

// constantTolerance is the relative spread below which a series is treated
// as constant and rejected: a flat line has no trend or seasonality to fit.
const constantTolerance = 1e-9

// Model is a stateless fitter; all per-series state lives in the opaque
// blob returned by Fit.
type Model struct{}

// New creates a seasonal decomposition model.
func New() *Model {
	return &Model{}
}

var _ tsmodel.Model = (*Model)(nil)

// modelState is the serialized form of one fitted series.
type modelState struct {
	LogSpace    bool      `json:"log_space"`
	Intercept   float64   `json:"intercept"`
	Slope       float64   `json:"slope"`
	Weekly      []float64 `json:"weekly,omitempty"`       // indexed by time.Weekday
	MonthOfYear []float64 `json:"month_of_year,omitempty"` // indexed by month-1
	DayOfMonth  []float64 `json:"day_of_month,omitempty"`  // indexed by day-1
	Sigma       float64   `json:"sigma"`
	LastDate    time.Time `json:"last_date"`
	LastIndex   int       `json:"last_index"` // day offset of LastDate from series start
}

// Fit trains on an ordered daily series and returns opaque model state.
func (m *Model) Fit(_ context.Context, series []domain.SeriesPoint, cfg domain.SeasonalityConfig) ([]byte, error) {
	if len(series) < 2 {
		return nil, &tsmodel.FitError{Reason: fmt.Sprintf("need at least 2 points, got %d", len(series))}
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			return nil, &tsmodel.FitError{Reason: fmt.Sprintf("dates not strictly increasing at index %d", i)}
		}
	}

	minV, maxV := series[0].Value, series[0].Value
	for _, p := range series {
		minV = math.Min(minV, p.Value)
		maxV = math.Max(maxV, p.Value)
	}
	if maxV-minV <= constantTolerance*math.Max(1, math.Abs(maxV)) {
		return nil, &tsmodel.FitError{Reason: "series is constant within tolerance"}
	}

	st := &modelState{LastDate: series[len(series)-1].Date}

	// Multiplicative seasonality is fit in log space; falls back to
	// additive when any value is non-positive.
	values := make([]float64, len(series))
	st.LogSpace = cfg.Mode == domain.SeasonalityMultiplicative && minV > 0
	for i, p := range series {
		if st.LogSpace {
			values[i] = math.Log(p.Value)
		} else {
			values[i] = p.Value
		}
	}

	// Day offsets carry through date gaps under the skip policy.
	start := series[0].Date
	idx := make([]float64, len(series))
	for i, p := range series {
		idx[i] = float64(daysBetween(start, p.Date))
	}
	st.LastIndex = int(idx[len(idx)-1])

	st.Intercept, st.Slope = olsLine(idx, values)

	resid := make([]float64, len(series))
	for i := range series {
		resid[i] = values[i] - (st.Intercept + st.Slope*idx[i])
	}

	if cfg.Weekly {
		st.Weekly = seasonalIndices(resid, series, 7, func(d time.Time) int { return int(d.Weekday()) })
		subtractIndices(resid, series, st.Weekly, func(d time.Time) int { return int(d.Weekday()) })
	}
	if cfg.Yearly {
		st.MonthOfYear = seasonalIndices(resid, series, 12, func(d time.Time) int { return int(d.Month()) - 1 })
		subtractIndices(resid, series, st.MonthOfYear, func(d time.Time) int { return int(d.Month()) - 1 })
	}
	if cfg.Monthly {
		st.DayOfMonth = seasonalIndices(resid, series, 31, func(d time.Time) int { return d.Day() - 1 })
		subtractIndices(resid, series, st.DayOfMonth, func(d time.Time) int { return d.Day() - 1 })
	}

	st.Sigma = stats.Stddev(resid, stats.Mean(resid))

	state, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal model state: %w", err)
	}
	return state, nil
}

// Predict produces horizonDays contiguous daily points after the last
// fitted observation.
func (m *Model) Predict(_ context.Context, state []byte, horizonDays int, confidence float64) ([]domain.ForecastPoint, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizonDays)
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("confidence must be in (0, 1), got %v", confidence)
	}

	var st modelState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, fmt.Errorf("unmarshal model state: %w", err)
	}

	z := stats.IntervalHalfWidthZ(confidence)
	points := make([]domain.ForecastPoint, 0, horizonDays)
	for i := 1; i <= horizonDays; i++ {
		date := st.LastDate.AddDate(0, 0, i)
		t := float64(st.LastIndex + i)

		est := st.Intercept + st.Slope*t
		if st.Weekly != nil {
			est += st.Weekly[int(date.Weekday())]
		}
		if st.MonthOfYear != nil {
			est += st.MonthOfYear[int(date.Month())-1]
		}
		if st.DayOfMonth != nil {
			est += st.DayOfMonth[date.Day()-1]
		}

		p := domain.ForecastPoint{Date: date}
		if st.LogSpace {
			p.Point = math.Exp(est)
			p.Lower = math.Exp(est - z*st.Sigma)
			p.Upper = math.Exp(est + z*st.Sigma)
		} else {
			p.Point = est
			p.Lower = est - z*st.Sigma
			p.Upper = est + z*st.Sigma
		}
		points = append(points, p)
	}
	return points, nil
}

// olsLine fits y = intercept + slope*x by ordinary least squares.
func olsLine(x, y []float64) (intercept, slope float64) {
	mx := stats.Mean(x)
	my := stats.Mean(y)
	var num, den float64
	for i := range x {
		num += (x[i] - mx) * (y[i] - my)
		den += (x[i] - mx) * (x[i] - mx)
	}
	if den == 0 {
		return my, 0
	}
	slope = num / den
	intercept = my - slope*mx
	return intercept, slope
}

// seasonalIndices averages residuals within each bucket and normalizes the
// occupied buckets to zero mean, so seasonality never shifts the trend.
func seasonalIndices(resid []float64, series []domain.SeriesPoint, buckets int, bucketOf func(time.Time) int) []float64 {
	sums := make([]float64, buckets)
	counts := make([]int, buckets)
	for i, p := range series {
		b := bucketOf(p.Date)
		sums[b] += resid[i]
		counts[b]++
	}

	indices := make([]float64, buckets)
	var total float64
	occupied := 0
	for b := range sums {
		if counts[b] > 0 {
			indices[b] = sums[b] / float64(counts[b])
			total += indices[b]
			occupied++
		}
	}
	if occupied > 0 {
		mean := total / float64(occupied)
		for b := range indices {
			if counts[b] > 0 {
				indices[b] -= mean
			}
		}
	}
	return indices
}

func subtractIndices(resid []float64, series []domain.SeriesPoint, indices []float64, bucketOf func(time.Time) int) {
	for i, p := range series {
		resid[i] -= indices[bucketOf(p.Date)]
	}
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
