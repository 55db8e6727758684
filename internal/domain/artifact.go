package domain

import "time"

// SeasonalityMode selects how seasonal components combine with the trend.
type SeasonalityMode string

const (
	SeasonalityAdditive       SeasonalityMode = "additive"
	SeasonalityMultiplicative SeasonalityMode = "multiplicative"
)

// SeasonalityConfig enumerates which seasonal components the time-series
// model fits for one series. Derived per key from observed data density,
// never guessed at runtime.
type SeasonalityConfig struct {
	Mode    SeasonalityMode `json:"mode"`
	Weekly  bool            `json:"weekly"`
	Monthly bool            `json:"monthly"`
	Yearly  bool            `json:"yearly"`
}

// GapPolicy declares how missing dates inside a series are handled before
// fitting.
type GapPolicy string

const (
	// GapInterpolate fills missing dates by linear interpolation between
	// the surrounding observed values.
	GapInterpolate GapPolicy = "interpolate"
	// GapSkip passes only observed dates through to the model.
	GapSkip GapPolicy = "skip"
	// GapZeroFill treats missing dates as zero-demand days.
	GapZeroFill GapPolicy = "zerofill"
)

// DateRange is the inclusive [Start, End] span of a training series.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AccuracyMetrics holds held-out evaluation results for a trained model.
// MAPE is nil when any held-out actual is zero (undefined, not zero).
// MASE is nil when the in-sample naive error is zero.
type AccuracyMetrics struct {
	MAE  float64  `json:"mae"`
	RMSE float64  `json:"rmse"`
	MAPE *float64 `json:"mape"`
	MASE *float64 `json:"mase,omitempty"`
}

// TrainedModelArtifact is a trained, persistable forecasting model plus its
// metadata, keyed by (company, product). Immutable after creation;
// retraining produces a new artifact that replaces the prior one under the
// same key.
//
// ModelState is opaque: it is produced by the time-series model's Fit and
// handed back verbatim to its Predict. No other component interprets it.
type TrainedModelArtifact struct {
	Company          string
	Product          string
	TrainedAt        time.Time
	TrainingRowCount int
	DateRange        DateRange
	Accuracy         AccuracyMetrics
	Seasonality      SeasonalityConfig
	ModelState       []byte
}

// Key returns the series key this artifact was trained for.
func (a *TrainedModelArtifact) Key() SeriesKey {
	return SeriesKey{Company: a.Company, Product: a.Product}
}
