// Package trainer produces one trained model artifact per (company,
// product) series: it prepares the daily series, derives the seasonality
// configuration, evaluates accuracy on a trailing holdout and delegates
// the actual fitting to the time-series model collaborator.
package trainer

import (
	"context"
	"fmt"
	"time"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/stats"
	"demand-forecast-engine/internal/tsmodel"
)

// Trainer fits models for individual series. Safe for concurrent use on
// distinct keys; each call owns its observation slice exclusively.
type Trainer struct {
	model tsmodel.Model
	cfg   domain.TrainingConfig
	now   func() time.Time
}

// Option customizes a Trainer.
type Option func(*Trainer)

// WithClock overrides the trained-at timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) { t.now = now }
}

// New creates a Trainer around a time-series model.
func New(model tsmodel.Model, cfg domain.TrainingConfig, opts ...Option) *Trainer {
	t := &Trainer{
		model: model,
		cfg:   cfg.Normalize(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Config returns the normalized training configuration.
func (t *Trainer) Config() domain.TrainingConfig {
	return t.cfg
}

// Train builds a TrainedModelArtifact for one series from its full
// observation history. Returns *InsufficientDataError when the series has
// fewer distinct dates than the configured minimum, or the collaborator's
// *tsmodel.FitError when it rejects the input.
func (t *Trainer) Train(ctx context.Context, company, product string, observations []*domain.SalesObservation) (*domain.TrainedModelArtifact, error) {
	series, err := PrepareSeries(observations, t.cfg.GapPolicy)
	if err != nil {
		return nil, fmt.Errorf("prepare series %s/%s: %w", company, product, err)
	}
	if len(series) < t.cfg.MinObservations {
		return nil, &InsufficientDataError{
			Company:  company,
			Product:  product,
			Observed: len(series),
			Required: t.cfg.MinObservations,
		}
	}

	seasonality := DeriveSeasonality(series, t.cfg)

	accuracy, err := t.evaluate(ctx, series, seasonality)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s/%s: %w", company, product, err)
	}

	// Final fit uses the complete series; the holdout split above exists
	// only for accuracy evaluation.
	state, err := t.model.Fit(ctx, series, seasonality)
	if err != nil {
		return nil, fmt.Errorf("fit %s/%s: %w", company, product, err)
	}

	return &domain.TrainedModelArtifact{
		Company:          company,
		Product:          product,
		TrainedAt:        t.now().UTC(),
		TrainingRowCount: len(series),
		DateRange: domain.DateRange{
			Start: series[0].Date,
			End:   series[len(series)-1].Date,
		},
		Accuracy:    *accuracy,
		Seasonality: seasonality,
		ModelState:  state,
	}, nil
}

// evaluate fits on the leading part of the series and scores predictions
// over the trailing holdout.
func (t *Trainer) evaluate(ctx context.Context, series []domain.SeriesPoint, seasonality domain.SeasonalityConfig) (*domain.AccuracyMetrics, error) {
	holdout := int(float64(len(series)) * t.cfg.HoldoutFraction)
	if holdout < 1 {
		holdout = 1
	}
	split := len(series) - holdout

	trainPart := series[:split]
	holdoutPart := series[split:]

	state, err := t.model.Fit(ctx, trainPart, seasonality)
	if err != nil {
		return nil, err
	}
	predicted, err := t.model.Predict(ctx, state, holdout, t.cfg.Confidence)
	if err != nil {
		return nil, err
	}
	if len(predicted) != holdout {
		return nil, fmt.Errorf("model predicted %d points for %d-day holdout", len(predicted), holdout)
	}

	actuals := make([]float64, holdout)
	estimates := make([]float64, holdout)
	for i := range holdoutPart {
		actuals[i] = holdoutPart[i].Value
		estimates[i] = predicted[i].Point
	}
	trainValues := make([]float64, len(trainPart))
	for i := range trainPart {
		trainValues[i] = trainPart[i].Value
	}

	metrics := &domain.AccuracyMetrics{
		MAE:  stats.MAE(actuals, estimates),
		RMSE: stats.RMSE(actuals, estimates),
	}
	if mape, ok := stats.MAPE(actuals, estimates); ok {
		metrics.MAPE = &mape
	}
	if mase, ok := stats.MASE(actuals, estimates, trainValues); ok {
		metrics.MASE = &mase
	}
	return metrics, nil
}
