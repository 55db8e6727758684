// Package compare ranks companies against each other on forecast demand
// for a shared product.
package compare

import (
	"context"
	"fmt"
	"sort"
	"time"

	"demand-forecast-engine/internal/domain"
)

// NoComparableDataError reports that no company had a forecast for the
// requested product.
type NoComparableDataError struct {
	Product string
}

func (e *NoComparableDataError) Error() string {
	return fmt.Sprintf("product %s: no company forecasts to compare", e.Product)
}

// HistoryProvider supplies the recent historical series used for growth
// rates. Implemented by the observation stores.
type HistoryProvider interface {
	// Series returns the daily aggregated history for one series, sorted
	// ascending by date. An empty slice when no history exists.
	Series(ctx context.Context, company, product string) ([]domain.SeriesPoint, error)
}

// Engine builds comparison reports from per-company forecasts plus
// historical sales.
type Engine struct {
	history HistoryProvider
	now     func() time.Time
}

type Option func(*Engine)

// WithClock overrides report timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(history HistoryProvider, opts ...Option) *Engine {
	e := &Engine{history: history, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compare builds a report for one product across companies. forecasts
// maps company name to that company's forecast for the product; all
// forecasts must share the same horizon.
//
// Market share is each company's forecast total over the sum of all
// totals; nil for every company when the market total is zero. Growth
// rate compares the forecast total against the trailing historical
// window of the same length; nil when that window sums to zero or has
// no data. Ranking is by forecast total descending, ties broken by
// company name ascending, so repeated runs over the same inputs produce
// identical reports. A single company yields a one-row report (rank 1,
// full market share); zero companies is an error.
func (e *Engine) Compare(ctx context.Context, product string, forecasts map[string]*domain.ForecastResult) (*domain.ComparisonReport, error) {
	if len(forecasts) == 0 {
		return nil, &NoComparableDataError{Product: product}
	}

	horizon := 0
	companies := make([]domain.CompanyComparison, 0, len(forecasts))
	var marketTotal float64
	for company, f := range forecasts {
		if f == nil || len(f.Points) == 0 {
			return nil, fmt.Errorf("company %s: empty forecast for %s", company, product)
		}
		if horizon == 0 {
			horizon = f.HorizonDays
		} else if f.HorizonDays != horizon {
			return nil, fmt.Errorf("company %s: horizon %d does not match %d", company, f.HorizonDays, horizon)
		}
		total := f.Total()
		marketTotal += total
		companies = append(companies, domain.CompanyComparison{
			Company:       company,
			ForecastTotal: total,
		})
	}

	for i := range companies {
		if marketTotal > 0 {
			share := companies[i].ForecastTotal / marketTotal * 100
			companies[i].MarketSharePct = &share
		}
		growth, err := e.growthRate(ctx, companies[i].Company, product, companies[i].ForecastTotal, horizon)
		if err != nil {
			return nil, fmt.Errorf("growth rate for %s/%s: %w", companies[i].Company, product, err)
		}
		companies[i].GrowthRatePct = growth
	}

	sort.Slice(companies, func(i, j int) bool {
		if companies[i].ForecastTotal != companies[j].ForecastTotal {
			return companies[i].ForecastTotal > companies[j].ForecastTotal
		}
		return companies[i].Company < companies[j].Company
	})
	for i := range companies {
		companies[i].Rank = i + 1
	}

	return &domain.ComparisonReport{
		Product:     product,
		HorizonDays: horizon,
		GeneratedAt: e.now().UTC(),
		Companies:   companies,
	}, nil
}

// growthRate compares forecastTotal to the trailing historical window of
// the same number of days. Returns nil when no baseline exists.
func (e *Engine) growthRate(ctx context.Context, company, product string, forecastTotal float64, horizonDays int) (*float64, error) {
	series, err := e.history.Series(ctx, company, product)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, nil
	}

	window := series
	if len(window) > horizonDays {
		window = window[len(window)-horizonDays:]
	}
	var baseline float64
	for _, p := range window {
		baseline += p.Value
	}
	if baseline <= 0 {
		return nil, nil
	}
	growth := (forecastTotal - baseline) / baseline * 100
	return &growth, nil
}
