// Package stats provides the small set of numeric helpers shared by the
// trainer, the optimizer and the reference time-series model.
package stats

import "math"

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stddev returns the population standard deviation around the given mean.
func Stddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// MAE returns the mean absolute error between actual and predicted.
// Slices must have equal, non-zero length.
func MAE(actual, predicted []float64) float64 {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(n)
}

// RMSE returns the root mean squared error between actual and predicted.
func RMSE(actual, predicted []float64) float64 {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// MAPE returns the mean absolute percentage error, as a percentage.
// The second return is false when any actual is zero: the metric is
// undefined there and must be reported as N/A rather than a number.
func MAPE(actual, predicted []float64) (float64, bool) {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return math.NaN(), false
	}
	var sum float64
	for i := range actual {
		if actual[i] == 0 {
			return 0, false
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	return sum / float64(n) * 100, true
}

// MASE returns the mean absolute scaled error: holdout MAE scaled by the
// in-sample one-step naive MAE. The second return is false when the naive
// error is zero (constant training series).
func MASE(actual, predicted, train []float64) (float64, bool) {
	if len(train) < 2 {
		return 0, false
	}
	var naive float64
	for i := 1; i < len(train); i++ {
		naive += math.Abs(train[i] - train[i-1])
	}
	naive /= float64(len(train) - 1)
	if naive == 0 {
		return 0, false
	}
	return MAE(actual, predicted) / naive, true
}
