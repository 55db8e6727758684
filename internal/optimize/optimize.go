// Package optimize converts demand forecasts into production
// recommendations with safety stock and capacity checks.
package optimize

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/stats"
)

// Config holds the planning parameters for one optimization run.
type Config struct {
	// CostPerUnit prices the recommended quantity. Must be positive.
	CostPerUnit decimal.Decimal
	// DailyCapacity is the maximum producible quantity per day. Must be
	// positive.
	DailyCapacity float64
	// ServiceLevel is the target probability of not stocking out, in
	// (0, 1) exclusive.
	ServiceLevel float64
	// LeadTimeDays is the replenishment lead time. Must be positive.
	LeadTimeDays int
}

// InvalidConfigError reports a Config field outside its valid range.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid optimization config: %s %s", e.Field, e.Reason)
}

func (c Config) validate() error {
	if c.CostPerUnit.Sign() <= 0 {
		return &InvalidConfigError{Field: "cost_per_unit", Reason: "must be positive"}
	}
	if c.DailyCapacity <= 0 {
		return &InvalidConfigError{Field: "daily_capacity", Reason: "must be positive"}
	}
	if c.ServiceLevel <= 0 || c.ServiceLevel >= 1 {
		return &InvalidConfigError{Field: "service_level", Reason: "must be in (0, 1)"}
	}
	if c.LeadTimeDays <= 0 {
		return &InvalidConfigError{Field: "lead_time_days", Reason: "must be positive"}
	}
	return nil
}

// Recommend computes a production plan covering the forecast horizon.
//
// Demand uncertainty sigma is backed out of the forecast's prediction
// intervals: the mean half-width across the horizon divided by the
// normal quantile for the forecast's confidence level. Safety stock is
// z(serviceLevel) * sigma * sqrt(leadTime). The recommended quantity is
// total forecast demand plus safety stock, never negative.
func Recommend(result *domain.ForecastResult, cfg Config) (*domain.OptimizationRecommendation, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if result == nil || len(result.Points) == 0 {
		return nil, fmt.Errorf("forecast has no points")
	}
	if result.Confidence <= 0 || result.Confidence >= 1 {
		return nil, fmt.Errorf("forecast confidence %v outside (0, 1)", result.Confidence)
	}

	var halfWidthSum float64
	for _, p := range result.Points {
		halfWidthSum += (p.Upper - p.Lower) / 2
	}
	intervalZ := stats.IntervalHalfWidthZ(result.Confidence)
	sigma := halfWidthSum / float64(len(result.Points)) / intervalZ

	safetyStock := stats.NormalQuantile(cfg.ServiceLevel) * sigma * math.Sqrt(float64(cfg.LeadTimeDays))
	if safetyStock < 0 {
		safetyStock = 0
	}

	qty := result.Total() + safetyStock
	if qty < 0 {
		qty = 0
	}

	capacity := cfg.DailyCapacity * float64(result.HorizonDays)
	utilization := qty / capacity * 100

	return &domain.OptimizationRecommendation{
		Company:                  result.Company,
		Product:                  result.Product,
		HorizonDays:              result.HorizonDays,
		RecommendedProductionQty: qty,
		SafetyStock:              safetyStock,
		CapacityUtilizationPct:   utilization,
		OverCapacity:             qty > capacity,
		EstimatedCost:            cfg.CostPerUnit.Mul(decimal.NewFromFloat(qty)),
	}, nil
}
