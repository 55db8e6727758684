package trainer

import (
	"fmt"
	"sort"
	"time"

	"demand-forecast-engine/internal/domain"
)

// PrepareSeries turns raw observations for one key into the daily series
// handed to the time-series model: quantities summed per calendar day,
// sorted ascending, date gaps handled per the configured policy.
func PrepareSeries(observations []*domain.SalesObservation, policy domain.GapPolicy) ([]domain.SeriesPoint, error) {
	if len(observations) == 0 {
		return nil, nil
	}

	daily := make(map[time.Time]float64)
	for _, o := range observations {
		day := o.Date.UTC().Truncate(24 * time.Hour)
		daily[day] += o.QuantitySold
	}

	series := make([]domain.SeriesPoint, 0, len(daily))
	for day, qty := range daily {
		series = append(series, domain.SeriesPoint{Date: day, Value: qty})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	switch policy {
	case domain.GapSkip:
		return series, nil
	case domain.GapZeroFill:
		return fillGaps(series, func(_, _ domain.SeriesPoint, _ int, _ int) float64 {
			return 0
		}), nil
	case domain.GapInterpolate:
		return fillGaps(series, func(prev, next domain.SeriesPoint, step, total int) float64 {
			return prev.Value + (next.Value-prev.Value)*float64(step)/float64(total)
		}), nil
	default:
		return nil, fmt.Errorf("unknown gap policy %q", policy)
	}
}

// fillGaps inserts one point per missing day between consecutive observed
// points, with the value supplied by fill.
func fillGaps(series []domain.SeriesPoint, fill func(prev, next domain.SeriesPoint, step, total int) float64) []domain.SeriesPoint {
	if len(series) < 2 {
		return series
	}

	filled := make([]domain.SeriesPoint, 0, len(series))
	filled = append(filled, series[0])
	for i := 1; i < len(series); i++ {
		prev, next := series[i-1], series[i]
		gap := daysBetween(prev.Date, next.Date)
		for step := 1; step < gap; step++ {
			filled = append(filled, domain.SeriesPoint{
				Date:  prev.Date.AddDate(0, 0, step),
				Value: fill(prev, next, step, gap),
			})
		}
		filled = append(filled, next)
	}
	return filled
}

// DeriveSeasonality picks seasonal components from observed data density:
// daily granularity enables weekly and monthly components, and yearly only
// once the series spans enough history for the model to see full cycles.
func DeriveSeasonality(series []domain.SeriesPoint, cfg domain.TrainingConfig) domain.SeasonalityConfig {
	derived := domain.SeasonalityConfig{
		Mode:    cfg.Mode,
		Weekly:  true,
		Monthly: true,
	}
	if len(series) > 0 {
		span := daysBetween(series[0].Date, series[len(series)-1].Date)
		derived.Yearly = span >= cfg.YearlyMinSpanDays
	}
	return derived
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
