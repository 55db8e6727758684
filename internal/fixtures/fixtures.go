// Package fixtures generates deterministic synthetic dairy sales data
// for demos and end-to-end tests.
package fixtures

import (
	"context"
	"math"
	"math/rand"
	"time"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/storage"
)

// Profile describes the demand shape of one synthetic series.
type Profile struct {
	Company string
	Product string
	// BaseDemand is the mean daily quantity before seasonal effects.
	BaseDemand float64
	// YearlyAmplitude scales the sine wave over the year, as a fraction
	// of base demand.
	YearlyAmplitude float64
	// WeekendBoost multiplies Saturday and Sunday demand.
	WeekendBoost float64
	// DailyGrowth is the linear trend per day in units.
	DailyGrowth float64
	// Noise is the half-range of uniform noise as a fraction of base.
	Noise float64
	// UnitPrice per unit sold.
	UnitPrice float64
}

// DefaultProfiles mirrors a three-company dairy market: stable milk
// demand, summer-heavy ice cream, growing premium products.
func DefaultProfiles() []Profile {
	return []Profile{
		{Company: "Amul", Product: "Milk", BaseDemand: 800, YearlyAmplitude: 0.10, WeekendBoost: 1.15, DailyGrowth: 0.3, Noise: 0.10, UnitPrice: 55},
		{Company: "Amul", Product: "Ice Cream", BaseDemand: 300, YearlyAmplitude: 0.60, WeekendBoost: 1.40, DailyGrowth: 0.2, Noise: 0.20, UnitPrice: 180},
		{Company: "Amul", Product: "Butter", BaseDemand: 200, YearlyAmplitude: 0.15, WeekendBoost: 1.05, DailyGrowth: 0.1, Noise: 0.12, UnitPrice: 450},
		{Company: "Mother Dairy", Product: "Milk", BaseDemand: 650, YearlyAmplitude: 0.10, WeekendBoost: 1.12, DailyGrowth: 0.2, Noise: 0.10, UnitPrice: 54},
		{Company: "Mother Dairy", Product: "Ice Cream", BaseDemand: 220, YearlyAmplitude: 0.55, WeekendBoost: 1.35, DailyGrowth: 0.15, Noise: 0.20, UnitPrice: 175},
		{Company: "Heritage Foods", Product: "Milk", BaseDemand: 400, YearlyAmplitude: 0.12, WeekendBoost: 1.10, DailyGrowth: 0.4, Noise: 0.10, UnitPrice: 52},
	}
}

// Generate produces daily observations for one profile over [start,
// start+days). The same seed always yields the same data.
func Generate(profile Profile, start time.Time, days int, seed int64) []*domain.SalesObservation {
	rng := rand.New(rand.NewSource(seed))
	start = start.UTC().Truncate(24 * time.Hour)

	obs := make([]*domain.SalesObservation, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)

		seasonal := 1 + profile.YearlyAmplitude*math.Sin(2*math.Pi*float64(date.YearDay())/365)
		qty := profile.BaseDemand*seasonal + profile.DailyGrowth*float64(i)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			qty *= profile.WeekendBoost
		}
		qty *= 1 + profile.Noise*(2*rng.Float64()-1)
		if qty < 1 {
			qty = 1
		}

		obs = append(obs, &domain.SalesObservation{
			Date:         date,
			Company:      profile.Company,
			Product:      profile.Product,
			QuantitySold: math.Round(qty),
			UnitPrice:    profile.UnitPrice,
		})
	}
	return obs
}

// Load populates the observation store with every profile's history
// ending the day before `end`.
func Load(ctx context.Context, store storage.ObservationStore, profiles []Profile, end time.Time, days int, seed int64) error {
	start := end.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -days)
	for i, p := range profiles {
		obs := Generate(p, start, days, seed+int64(i))
		if err := store.InsertBulk(ctx, obs); err != nil {
			return err
		}
	}
	return nil
}
