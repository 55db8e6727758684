package domain

import "github.com/shopspring/decimal"

// OptimizationRecommendation converts a forecast into a production plan.
// Derived deterministically from a ForecastResult and optimizer config; no
// independent lifecycle.
type OptimizationRecommendation struct {
	Company     string
	Product     string
	HorizonDays int

	// RecommendedProductionQty is forecast total plus safety stock, in units.
	RecommendedProductionQty float64
	// SafetyStock absorbs forecast uncertainty at the target service level.
	SafetyStock float64
	// CapacityUtilizationPct is recommended production relative to total
	// factory capacity over the horizon, as a percentage. Values above 100
	// are reported as-is with OverCapacity set.
	CapacityUtilizationPct float64
	OverCapacity           bool
	// EstimatedCost is recommended production quantity times cost per unit.
	EstimatedCost decimal.Decimal
}
