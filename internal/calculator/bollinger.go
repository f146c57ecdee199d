package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Bollinger computes the bands SMA ± k·σ, where σ is the trailing sample
// standard deviation (n-1 denominator) over period points.
// A partial window of a single point has σ = 0.
func Bollinger(values []float64, period int, k float64, partial bool) (upper, lower []float64) {
	upper = make([]float64, len(values))
	lower = make([]float64, len(values))
	for i := range values {
		lo, ok := lowerBound(i, period, partial)
		if !ok {
			upper[i], lower[i] = math.NaN(), math.NaN()
			continue
		}
		w := values[lo : i+1]
		mean := stat.Mean(w, nil)
		sd := 0.0
		if len(w) > 1 {
			sd = stat.StdDev(w, nil)
		}
		upper[i] = mean + k*sd
		lower[i] = mean - k*sd
	}
	return upper, lower
}
