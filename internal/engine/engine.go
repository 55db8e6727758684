// Package engine wires storage, training, forecasting, optimization and
// comparison into one coordinated facade.
// Flow: observations → train → registry → forecast → optimize/compare
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"demand-forecast-engine/internal/compare"
	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/forecast"
	"demand-forecast-engine/internal/narrative"
	"demand-forecast-engine/internal/optimize"
	"demand-forecast-engine/internal/storage"
	"demand-forecast-engine/internal/trainer"
	"demand-forecast-engine/internal/tsmodel"
)

const defaultWorkers = 4

// Engine coordinates the demand forecasting pipeline across all series.
type Engine struct {
	observations storage.ObservationStore
	registry     *storage.ArtifactCache
	trainer      *trainer.Trainer
	generator    *forecast.Generator
	compare      *compare.Engine
	analyzer     narrative.Analyzer
	logger       *zap.Logger
	workers      int
}

// Options for creating an Engine.
type Options struct {
	// Required stores.
	ArtifactStore    storage.ArtifactStore
	ObservationStore storage.ObservationStore

	// Model fits and predicts individual series. Required.
	Model tsmodel.Model

	// Analyzer adds AI narrative on top of forecasts and comparisons.
	// Optional; insight calls fail with ErrNoAnalyzer when nil.
	Analyzer narrative.Analyzer

	// Training parameters. Zero values take the documented defaults.
	Training domain.TrainingConfig

	// Confidence of forecast prediction intervals. Default 0.95.
	Confidence float64
	// StalenessWindow marks artifacts stale once their training trails
	// the newest observation by more than this. Default 7 days.
	StalenessWindow time.Duration
	// Workers bounds concurrent training in TrainAll. Default 4.
	Workers int

	// Now overrides the wall clock in tests.
	Now func() time.Time

	Logger *zap.Logger
}

// ErrNoAnalyzer is returned by insight operations when the engine was
// built without an analyzer.
var ErrNoAnalyzer = errors.New("engine: no analyzer configured")

// New creates an Engine. The registry cache starts cold; call Load to
// bulk-populate it from storage.
func New(opts Options) (*Engine, error) {
	if opts.ArtifactStore == nil {
		return nil, fmt.Errorf("engine: artifact store is required")
	}
	if opts.ObservationStore == nil {
		return nil, fmt.Errorf("engine: observation store is required")
	}
	if opts.Model == nil {
		return nil, fmt.Errorf("engine: model is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	var trainerOpts []trainer.Option
	if opts.Now != nil {
		trainerOpts = append(trainerOpts, trainer.WithClock(opts.Now))
	}

	e := &Engine{
		observations: opts.ObservationStore,
		registry:     storage.NewArtifactCache(opts.ArtifactStore),
		trainer:      trainer.New(opts.Model, opts.Training, trainerOpts...),
		generator: forecast.New(opts.Model, forecast.Options{
			Confidence:      opts.Confidence,
			StalenessWindow: opts.StalenessWindow,
			Now:             opts.Now,
		}),
		analyzer: opts.Analyzer,
		logger:   opts.Logger,
		workers:  opts.Workers,
	}
	e.compare = compare.New(&historyAdapter{store: opts.ObservationStore, cfg: e.trainer.Config()})
	return e, nil
}

// Load bulk-loads the model registry into the cache. Unreadable entries
// are logged and skipped, never fatal.
func (e *Engine) Load(ctx context.Context) error {
	skipped, err := e.registry.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	for _, s := range skipped {
		e.logger.Warn("skipped unreadable registry entry",
			zap.String("entry", s.Entry),
			zap.Error(s.Err))
	}
	e.logger.Info("registry loaded",
		zap.Int("artifacts", len(e.registry.Keys())),
		zap.Int("skipped", len(skipped)))
	return nil
}

// Train fits a model for one series from its stored observations and
// persists the resulting artifact.
func (e *Engine) Train(ctx context.Context, company, product string) (*domain.TrainedModelArtifact, error) {
	obs, err := e.observations.GetByKey(ctx, company, product)
	if err != nil {
		return nil, fmt.Errorf("load observations %s/%s: %w", company, product, err)
	}

	artifact, err := e.trainer.Train(ctx, company, product, obs)
	if err != nil {
		return nil, err
	}
	if err := e.registry.Save(ctx, artifact); err != nil {
		return nil, fmt.Errorf("persist artifact %s/%s: %w", company, product, err)
	}

	e.logger.Info("model trained",
		zap.String("company", company),
		zap.String("product", product),
		zap.Int("rows", artifact.TrainingRowCount),
		zap.Float64("mae", artifact.Accuracy.MAE),
		zap.Float64("rmse", artifact.Accuracy.RMSE))
	return artifact, nil
}

// TrainFailure records one series that failed to train in a bulk run.
type TrainFailure struct {
	Key domain.SeriesKey
	Err error
}

// TrainReport summarizes a TrainAll run.
type TrainReport struct {
	Trained []domain.SeriesKey
	Failed  []TrainFailure
}

// TrainAll trains every series present in the observation store using a
// bounded worker pool. One series failing never aborts the others; all
// failures are collected in the report. Only context cancellation stops
// the run early.
func (e *Engine) TrainAll(ctx context.Context) (*TrainReport, error) {
	keys, err := e.observations.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list series keys: %w", err)
	}

	jobs := make(chan domain.SeriesKey)
	var (
		mu     sync.Mutex
		report TrainReport
		wg     sync.WaitGroup
	)

	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				if ctx.Err() != nil {
					return
				}
				_, err := e.Train(ctx, key.Company, key.Product)
				mu.Lock()
				if err != nil {
					report.Failed = append(report.Failed, TrainFailure{Key: key, Err: err})
				} else {
					report.Trained = append(report.Trained, key)
				}
				mu.Unlock()
			}
		}()
	}

	for _, key := range keys {
		select {
		case jobs <- key:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return &report, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(report.Trained, func(i, j int) bool { return report.Trained[i].Less(report.Trained[j]) })
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Key.Less(report.Failed[j].Key) })

	e.logger.Info("bulk training finished",
		zap.Int("trained", len(report.Trained)),
		zap.Int("failed", len(report.Failed)))
	return &report, nil
}

// Forecast predicts horizonDays ahead for one series from its registered
// artifact. The returned warning, when non-nil, flags a model trained
// before the newest stored observation by more than the staleness window;
// the forecast is still produced and retraining stays the caller's call.
func (e *Engine) Forecast(ctx context.Context, company, product string, horizonDays int) (*domain.ForecastResult, *forecast.StaleModelWarning, error) {
	artifact, err := e.registry.Get(ctx, company, product)
	if err != nil {
		return nil, nil, fmt.Errorf("registry %s/%s: %w", company, product, err)
	}

	latest, err := e.observations.LatestDate(ctx, company, product)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("latest observation %s/%s: %w", company, product, err)
	}

	result, warning, err := e.generator.Generate(ctx, artifact, horizonDays, latest)
	if err != nil {
		return nil, nil, err
	}
	if warning != nil {
		e.logger.Warn("forecast produced from stale model",
			zap.String("company", company),
			zap.String("product", product),
			zap.Time("trained_at", warning.TrainedAt),
			zap.Time("latest_observation", warning.LatestObservation))
	}
	return result, warning, nil
}

// Summaries forecasts every supported horizon for one series and
// condenses each into a summary, ordered by horizon ascending.
func (e *Engine) Summaries(ctx context.Context, company, product string) ([]domain.ForecastSummary, error) {
	summaries := make([]domain.ForecastSummary, 0, len(domain.SupportedHorizons))
	for _, h := range domain.SupportedHorizons {
		result, _, err := e.Forecast(ctx, company, product, h)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, forecast.Summarize(result))
	}
	return summaries, nil
}

// Optimize turns a fresh forecast for the series into a production
// recommendation.
func (e *Engine) Optimize(ctx context.Context, company, product string, horizonDays int, cfg optimize.Config) (*domain.OptimizationRecommendation, error) {
	result, _, err := e.Forecast(ctx, company, product, horizonDays)
	if err != nil {
		return nil, err
	}
	return optimize.Recommend(result, cfg)
}

// Compare forecasts every company holding an artifact for the product and
// ranks them. Companies whose forecast fails are skipped with a warning;
// no survivors yields NoComparableDataError.
func (e *Engine) Compare(ctx context.Context, product string, horizonDays int) (*domain.ComparisonReport, error) {
	forecasts := make(map[string]*domain.ForecastResult)
	for _, key := range e.registry.Keys() {
		if key.Product != product {
			continue
		}
		result, _, err := e.Forecast(ctx, key.Company, product, horizonDays)
		if err != nil {
			e.logger.Warn("comparison skipping company",
				zap.String("company", key.Company),
				zap.String("product", product),
				zap.Error(err))
			continue
		}
		forecasts[key.Company] = result
	}
	return e.compare.Compare(ctx, product, forecasts)
}

// ForecastInsights generates an AI narrative for one series forecast.
func (e *Engine) ForecastInsights(ctx context.Context, company, product string, horizonDays int) (*narrative.ForecastInsights, error) {
	if e.analyzer == nil {
		return nil, ErrNoAnalyzer
	}
	result, _, err := e.Forecast(ctx, company, product, horizonDays)
	if err != nil {
		return nil, err
	}
	return e.analyzer.AnalyzeForecast(ctx, result, forecast.Summarize(result))
}

// ComparisonInsights generates an AI narrative for a comparison report.
func (e *Engine) ComparisonInsights(ctx context.Context, product string, horizonDays int) (*narrative.CompetitiveAnalysis, error) {
	if e.analyzer == nil {
		return nil, ErrNoAnalyzer
	}
	report, err := e.Compare(ctx, product, horizonDays)
	if err != nil {
		return nil, err
	}
	return e.analyzer.AnalyzeComparison(ctx, report)
}

// historyAdapter exposes the observation store as the comparison engine's
// history source, aggregated daily the same way training series are.
type historyAdapter struct {
	store storage.ObservationStore
	cfg   domain.TrainingConfig
}

func (h *historyAdapter) Series(ctx context.Context, company, product string) ([]domain.SeriesPoint, error) {
	obs, err := h.store.GetByKey(ctx, company, product)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return trainer.PrepareSeries(obs, h.cfg.GapPolicy)
}
