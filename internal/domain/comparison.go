package domain

import "time"

// CompanyComparison is one company's standing for a product and horizon.
// MarketSharePct and GrowthRatePct are nil when their denominators are zero
// (undefined, reported as N/A).
type CompanyComparison struct {
	Company        string
	ForecastTotal  float64
	MarketSharePct *float64
	GrowthRatePct  *float64
	Rank           int
}

// ComparisonReport ranks companies competing on the same product over the
// same horizon. Companies are ordered by rank: descending forecast total,
// ties broken by company name ascending.
type ComparisonReport struct {
	Product     string
	HorizonDays int
	GeneratedAt time.Time
	Companies   []CompanyComparison
}
