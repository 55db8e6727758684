package domain

// TrainingConfig controls series preparation and evaluation for one
// training run. Enumerated explicitly per key; zero values are replaced by
// defaults via Normalize.
type TrainingConfig struct {
	// MinObservations is the minimum number of distinct dates required to
	// train. Defaults to two full weekly cycles.
	MinObservations int
	// GapPolicy declares how missing dates are filled before fitting.
	GapPolicy GapPolicy
	// HoldoutFraction is the trailing share of the series held out for
	// accuracy evaluation, in (0, 1).
	HoldoutFraction float64
	// Confidence is the prediction-interval level requested from the model.
	Confidence float64
	// YearlyMinSpanDays is the minimum series span before yearly
	// seasonality is enabled. Defaults to two full years.
	YearlyMinSpanDays int
	// Mode selects additive or multiplicative seasonality.
	Mode SeasonalityMode
}

// Defaults for TrainingConfig zero values.
const (
	DefaultMinObservations   = 14
	DefaultHoldoutFraction   = 0.20
	DefaultConfidence        = 0.95
	DefaultYearlyMinSpanDays = 730
)

// Normalize returns a copy with zero values replaced by defaults.
func (c TrainingConfig) Normalize() TrainingConfig {
	if c.MinObservations <= 0 {
		c.MinObservations = DefaultMinObservations
	}
	if c.GapPolicy == "" {
		c.GapPolicy = GapZeroFill
	}
	if c.HoldoutFraction <= 0 || c.HoldoutFraction >= 1 {
		c.HoldoutFraction = DefaultHoldoutFraction
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		c.Confidence = DefaultConfidence
	}
	if c.YearlyMinSpanDays <= 0 {
		c.YearlyMinSpanDays = DefaultYearlyMinSpanDays
	}
	if c.Mode == "" {
		c.Mode = SeasonalityAdditive
	}
	return c
}
