// Package tsmodel defines the contract the engine holds with its
// time-series forecasting collaborator. The model state is opaque to every
// other component: Fit produces it, Predict consumes it, and the registry
// persists it verbatim.
package tsmodel

import (
	"context"
	"fmt"

	"demand-forecast-engine/internal/domain"
)

// Model fits demand series and predicts future points with confidence
// intervals. Predict is deterministic for identical state and arguments.
type Model interface {
	// Fit trains on an ordered daily series and returns opaque model
	// state. Returns a *FitError on malformed input: non-monotonic dates
	// or an effectively constant series.
	Fit(ctx context.Context, series []domain.SeriesPoint, cfg domain.SeasonalityConfig) ([]byte, error)

	// Predict produces horizonDays contiguous daily points starting the
	// day after the last fitted observation, with a central confidence
	// interval at the given level.
	Predict(ctx context.Context, state []byte, horizonDays int, confidence float64) ([]domain.ForecastPoint, error)
}

// FitError reports that the collaborator rejected its input rather than
// producing a garbage model.
type FitError struct {
	Reason string
}

func (e *FitError) Error() string {
	return fmt.Sprintf("time-series fit rejected: %s", e.Reason)
}
