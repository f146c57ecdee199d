package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// rsiCeiling is returned whenever the average loss is zero.
const rsiCeiling = 100.0

// RSI computes the relative strength index from trailing arithmetic means of
// the positive and negative close deltas over period deltas.
// When the average loss is zero RSI is 100, including the flat case.
func RSI(values []float64, period int, partial bool) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	for i := range values {
		// deltas live at indices 1..i
		lo := i - period + 1
		if lo < 1 {
			if !partial {
				out[i] = math.NaN()
				continue
			}
			lo = 1
		}
		if lo > i {
			// no delta yet: nothing lost
			out[i] = rsiCeiling
			continue
		}
		avgGain := stat.Mean(gains[lo:i+1], nil)
		avgLoss := stat.Mean(losses[lo:i+1], nil)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return rsiCeiling
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
