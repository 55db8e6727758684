// Package forecast turns a trained model artifact into multi-horizon
// predictions with uncertainty bounds.
package forecast

import (
	"context"
	"fmt"
	"time"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/tsmodel"
)

// DefaultConfidence is the prediction-interval level used when the
// request does not specify one.
const DefaultConfidence = 0.95

// DefaultStalenessWindow is how far an artifact's training may trail the
// newest observation before forecasts carry a staleness warning.
const DefaultStalenessWindow = 7 * 24 * time.Hour

// StaleModelWarning flags an artifact trained too long before the most
// recent available observation. Informational: forecast generation is not
// halted, and whether to retrain is the caller's decision.
type StaleModelWarning struct {
	Company           string
	Product           string
	TrainedAt         time.Time
	LatestObservation time.Time
	Window            time.Duration
}

func (w *StaleModelWarning) Error() string {
	return fmt.Sprintf("model for %s/%s trained %s predates latest observation %s by more than %s",
		w.Company, w.Product,
		w.TrainedAt.Format("2006-01-02"), w.LatestObservation.Format("2006-01-02"), w.Window)
}

// Generator produces ForecastResults from trained artifacts.
type Generator struct {
	model           tsmodel.Model
	confidence      float64
	stalenessWindow time.Duration
	now             func() time.Time
}

// Options configures a Generator. Zero values take defaults.
type Options struct {
	Confidence      float64
	StalenessWindow time.Duration
	Now             func() time.Time // test clock
}

// New creates a Generator around a time-series model.
func New(model tsmodel.Model, opts Options) *Generator {
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		opts.Confidence = DefaultConfidence
	}
	if opts.StalenessWindow <= 0 {
		opts.StalenessWindow = DefaultStalenessWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{
		model:           model,
		confidence:      opts.Confidence,
		stalenessWindow: opts.StalenessWindow,
		now:             opts.Now,
	}
}

// Generate predicts horizonDays past the artifact's training range.
// latestObservation is the newest available observation date for the
// series (zero time when unknown); when the artifact predates it by more
// than the staleness window, a non-nil *StaleModelWarning is returned
// alongside the result, never instead of it.
//
// Lower bounds are clamped to zero: demand is non-negative. Point
// estimates are returned untouched — an implausible estimate is a signal
// to surface, not to correct.
func (g *Generator) Generate(ctx context.Context, artifact *domain.TrainedModelArtifact, horizonDays int, latestObservation time.Time) (*domain.ForecastResult, *StaleModelWarning, error) {
	if artifact == nil {
		return nil, nil, fmt.Errorf("nil artifact")
	}
	if horizonDays <= 0 {
		return nil, nil, fmt.Errorf("horizon must be positive, got %d", horizonDays)
	}

	points, err := g.model.Predict(ctx, artifact.ModelState, horizonDays, g.confidence)
	if err != nil {
		return nil, nil, fmt.Errorf("predict %s/%s: %w", artifact.Company, artifact.Product, err)
	}
	if len(points) != horizonDays {
		return nil, nil, fmt.Errorf("model returned %d points for %d-day horizon", len(points), horizonDays)
	}

	start := artifact.DateRange.End.AddDate(0, 0, 1)
	for i := range points {
		want := start.AddDate(0, 0, i)
		if !points[i].Date.Equal(want) {
			return nil, nil, fmt.Errorf("model returned date %s at offset %d, want %s",
				points[i].Date.Format("2006-01-02"), i, want.Format("2006-01-02"))
		}
		// Negative demand is impossible, so lower bounds floor at zero.
		// A negative point estimate still passes through as a signal, and
		// the lower bound follows it down so lower <= point <= upper holds.
		if points[i].Lower < 0 {
			points[i].Lower = 0
		}
		if points[i].Lower > points[i].Point {
			points[i].Lower = points[i].Point
		}
		if points[i].Upper < points[i].Point {
			points[i].Upper = points[i].Point
		}
	}

	result := &domain.ForecastResult{
		Company:     artifact.Company,
		Product:     artifact.Product,
		GeneratedAt: g.now().UTC(),
		HorizonDays: horizonDays,
		Confidence:  g.confidence,
		Points:      points,
	}

	var warning *StaleModelWarning
	if !latestObservation.IsZero() && latestObservation.Sub(artifact.TrainedAt) > g.stalenessWindow {
		warning = &StaleModelWarning{
			Company:           artifact.Company,
			Product:           artifact.Product,
			TrainedAt:         artifact.TrainedAt,
			LatestObservation: latestObservation,
			Window:            g.stalenessWindow,
		}
	}
	return result, warning, nil
}

// Summarize condenses a forecast for dashboard display.
func Summarize(result *domain.ForecastResult) domain.ForecastSummary {
	summary := domain.ForecastSummary{
		HorizonDays: result.HorizonDays,
		Trend:       domain.TrendDecreasing,
	}
	if len(result.Points) == 0 {
		return summary
	}

	summary.MinDailyDemand = result.Points[0].Point
	summary.MaxDailyDemand = result.Points[0].Point
	for _, p := range result.Points {
		summary.TotalDemand += p.Point
		summary.LowerTotal += p.Lower
		summary.UpperTotal += p.Upper
		if p.Point < summary.MinDailyDemand {
			summary.MinDailyDemand = p.Point
		}
		if p.Point > summary.MaxDailyDemand {
			summary.MaxDailyDemand = p.Point
		}
	}
	summary.AvgDailyDemand = summary.TotalDemand / float64(len(result.Points))
	if result.Points[len(result.Points)-1].Point > result.Points[0].Point {
		summary.Trend = domain.TrendIncreasing
	}
	return summary
}
