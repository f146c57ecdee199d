package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SMA computes the trailing simple moving average of values over period points.
// Points with fewer than period values behind them are NaN, unless partial is
// set, in which case they average the available prefix.
func SMA(values []float64, period int, partial bool) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		lo, ok := lowerBound(i, period, partial)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(values[lo:i+1], nil)
	}
	return out
}

// EMA computes the exponential moving average with alpha = 2/(span+1),
// seeded with the first value and without bias adjustment.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD returns EMA(fast) - EMA(slow).
func MACD(values []float64, fast, slow int) []float64 {
	f := EMA(values, fast)
	s := EMA(values, slow)
	out := make([]float64, len(values))
	for i := range values {
		out[i] = f[i] - s[i]
	}
	return out
}

// lowerBound returns the first index of the trailing window ending at i.
func lowerBound(i, period int, partial bool) (int, bool) {
	lo := i - period + 1
	if lo >= 0 {
		return lo, true
	}
	if partial {
		return 0, true
	}
	return 0, false
}
