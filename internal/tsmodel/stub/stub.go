// Package stub provides a deterministic tsmodel.Model for tests.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/stats"
	"demand-forecast-engine/internal/tsmodel"
)

// Model predicts a flat line at the fitted series mean with a fixed
// ±Spread interval. Fit and Predict calls are counted for assertions.
type Model struct {
	// Spread is the half-width of every prediction interval.
	Spread float64
	// FitErr, when set, is returned by every Fit call.
	FitErr error

	FitCalls     int
	PredictCalls int
}

var _ tsmodel.Model = (*Model)(nil)

type stubState struct {
	Level    float64   `json:"level"`
	Spread   float64   `json:"spread"`
	LastDate time.Time `json:"last_date"`
}

func (m *Model) Fit(_ context.Context, series []domain.SeriesPoint, _ domain.SeasonalityConfig) ([]byte, error) {
	m.FitCalls++
	if m.FitErr != nil {
		return nil, m.FitErr
	}
	if len(series) == 0 {
		return nil, &tsmodel.FitError{Reason: "empty series"}
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}
	st := stubState{
		Level:    stats.Mean(values),
		Spread:   m.Spread,
		LastDate: series[len(series)-1].Date,
	}
	return json.Marshal(st)
}

func (m *Model) Predict(_ context.Context, state []byte, horizonDays int, _ float64) ([]domain.ForecastPoint, error) {
	m.PredictCalls++
	if horizonDays <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizonDays)
	}

	var st stubState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, fmt.Errorf("unmarshal stub state: %w", err)
	}

	points := make([]domain.ForecastPoint, horizonDays)
	for i := range points {
		points[i] = domain.ForecastPoint{
			Date:  st.LastDate.AddDate(0, 0, i+1),
			Point: st.Level,
			Lower: st.Level - st.Spread,
			Upper: st.Level + st.Spread,
		}
	}
	return points, nil
}
