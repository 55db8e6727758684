package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/trainer"
	"demand-forecast-engine/internal/tsmodel/stub"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func trainArtifact(t *testing.T, model *stub.Model, days int) *domain.TrainedModelArtifact {
	t.Helper()
	obs := make([]*domain.SalesObservation, 0, days)
	for i := 0; i < days; i++ {
		obs = append(obs, &domain.SalesObservation{
			Date:         day(2025, time.March, 1).AddDate(0, 0, i),
			Company:      "Amul",
			Product:      "Milk",
			QuantitySold: 100 + float64(i),
			UnitPrice:    2.5,
		})
	}
	tr := trainer.New(model, domain.TrainingConfig{})
	artifact, err := tr.Train(context.Background(), "Amul", "Milk", obs)
	require.NoError(t, err)
	return artifact
}

func TestGenerate_ContiguousDatesFromTrainingEnd(t *testing.T) {
	model := &stub.Model{Spread: 5}
	artifact := trainArtifact(t, model, 30)

	gen := New(model, Options{})
	result, warning, err := gen.Generate(context.Background(), artifact, 14, artifact.DateRange.End)
	require.NoError(t, err)
	assert.Nil(t, warning)

	require.Len(t, result.Points, 14)
	assert.Equal(t, 14, result.HorizonDays)
	assert.Equal(t, "Amul", result.Company)
	assert.Equal(t, "Milk", result.Product)
	assert.InDelta(t, 0.95, result.Confidence, 1e-12)

	want := artifact.DateRange.End.AddDate(0, 0, 1)
	for i, p := range result.Points {
		assert.True(t, p.Date.Equal(want.AddDate(0, 0, i)), "point %d date %s", i, p.Date)
	}
}

func TestGenerate_LowerBoundClampedToZero(t *testing.T) {
	// Spread wider than the mean forces raw lower bounds negative.
	model := &stub.Model{Spread: 10_000}
	artifact := trainArtifact(t, model, 30)

	gen := New(model, Options{})
	result, _, err := gen.Generate(context.Background(), artifact, 7, time.Time{})
	require.NoError(t, err)

	for _, p := range result.Points {
		assert.GreaterOrEqual(t, p.Lower, 0.0)
		assert.GreaterOrEqual(t, p.Upper, p.Lower)
		// Point estimates pass through unclamped.
		assert.Greater(t, p.Point, 0.0)
	}
}

func TestGenerate_NegativePointKeepsBoundOrder(t *testing.T) {
	// A series of returns (negative net sales) fits a negative level.
	// The point estimate must surface unclamped, with bounds still
	// ordered around it.
	model := &stub.Model{Spread: 5}
	obs := make([]*domain.SalesObservation, 0, 30)
	for i := 0; i < 30; i++ {
		obs = append(obs, &domain.SalesObservation{
			Date:         day(2025, time.March, 1).AddDate(0, 0, i),
			Company:      "Amul",
			Product:      "Milk",
			QuantitySold: -50,
			UnitPrice:    2.5,
		})
	}
	tr := trainer.New(model, domain.TrainingConfig{})
	artifact, err := tr.Train(context.Background(), "Amul", "Milk", obs)
	require.NoError(t, err)

	gen := New(model, Options{})
	result, _, err := gen.Generate(context.Background(), artifact, 7, time.Time{})
	require.NoError(t, err)

	for _, p := range result.Points {
		assert.InDelta(t, -50, p.Point, 1e-9)
		assert.LessOrEqual(t, p.Lower, p.Point)
		assert.GreaterOrEqual(t, p.Upper, p.Point)
	}
}

func TestGenerate_StaleModelWarning(t *testing.T) {
	model := &stub.Model{Spread: 5}
	artifact := trainArtifact(t, model, 30)

	gen := New(model, Options{StalenessWindow: 7 * 24 * time.Hour})

	fresh := artifact.TrainedAt.Add(6 * 24 * time.Hour)
	_, warning, err := gen.Generate(context.Background(), artifact, 7, fresh)
	require.NoError(t, err)
	assert.Nil(t, warning)

	stale := artifact.TrainedAt.Add(8 * 24 * time.Hour)
	result, warning, err := gen.Generate(context.Background(), artifact, 7, stale)
	require.NoError(t, err)
	require.NotNil(t, warning, "warning must accompany the result, not replace it")
	require.NotNil(t, result)
	assert.Equal(t, "Amul", warning.Company)
	assert.True(t, warning.LatestObservation.Equal(stale))
	assert.Contains(t, warning.Error(), "Amul/Milk")
}

func TestGenerate_RejectsBadHorizon(t *testing.T) {
	model := &stub.Model{Spread: 5}
	artifact := trainArtifact(t, model, 30)
	gen := New(model, Options{})

	for _, h := range []int{0, -7} {
		_, _, err := gen.Generate(context.Background(), artifact, h, time.Time{})
		assert.Error(t, err, "horizon %d", h)
	}

	_, _, err := gen.Generate(context.Background(), nil, 7, time.Time{})
	assert.Error(t, err)
}

func TestGenerate_AnyPositiveHorizon(t *testing.T) {
	model := &stub.Model{Spread: 5}
	artifact := trainArtifact(t, model, 30)
	gen := New(model, Options{})

	for _, h := range append([]int{1, 3, 45}, domain.SupportedHorizons...) {
		result, _, err := gen.Generate(context.Background(), artifact, h, time.Time{})
		require.NoError(t, err, "horizon %d", h)
		assert.Len(t, result.Points, h)
	}
}

func TestSummarize(t *testing.T) {
	result := &domain.ForecastResult{
		HorizonDays: 3,
		Points: []domain.ForecastPoint{
			{Date: day(2025, time.June, 1), Point: 100, Lower: 90, Upper: 110},
			{Date: day(2025, time.June, 2), Point: 120, Lower: 105, Upper: 135},
			{Date: day(2025, time.June, 3), Point: 110, Lower: 95, Upper: 125},
		},
	}

	s := Summarize(result)
	assert.Equal(t, 3, s.HorizonDays)
	assert.InDelta(t, 330, s.TotalDemand, 1e-9)
	assert.InDelta(t, 110, s.AvgDailyDemand, 1e-9)
	assert.InDelta(t, 120, s.MaxDailyDemand, 1e-9)
	assert.InDelta(t, 100, s.MinDailyDemand, 1e-9)
	assert.InDelta(t, 290, s.LowerTotal, 1e-9)
	assert.InDelta(t, 370, s.UpperTotal, 1e-9)
	assert.Equal(t, domain.TrendIncreasing, s.Trend)

	// Last point below first: decreasing.
	result.Points[2].Point = 90
	assert.Equal(t, domain.TrendDecreasing, Summarize(result).Trend)
}
