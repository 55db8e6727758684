// Package narrative defines the AI analysis collaborator that turns
// forecast and comparison data into business-readable insights.
package narrative

import (
	"context"

	"demand-forecast-engine/internal/domain"
)

// ForecastInsights is the structured analysis of one forecast.
type ForecastInsights struct {
	KeyTrends               []string `json:"key_trends"`
	BusinessRecommendations []string `json:"business_recommendations"`
	RiskFactors             []string `json:"risk_factors"`
	Opportunities           []string `json:"opportunities"`
	ConfidenceScore         float64  `json:"confidence_score"`
}

// CompetitiveAnalysis is the structured analysis of a comparison report.
type CompetitiveAnalysis struct {
	MarketLeader             string   `json:"market_leader"`
	GrowthOpportunities      []string `json:"growth_opportunities"`
	PricingInsights          []string `json:"pricing_insights"`
	StrategicRecommendations []string `json:"strategic_recommendations"`
}

// Analyzer generates narrative insights. Implementations are best-effort
// collaborators: the forecasting core never depends on their success.
type Analyzer interface {
	AnalyzeForecast(ctx context.Context, result *domain.ForecastResult, summary domain.ForecastSummary) (*ForecastInsights, error)
	AnalyzeComparison(ctx context.Context, report *domain.ComparisonReport) (*CompetitiveAnalysis, error)
}
