package strategy

import (
	"math"

	"ForexSignal/internal/model"
)

// Decide maps a predicted price and a threshold to a signal.
// Equality is exact: hold only when predicted == threshold.
func Decide(predicted, threshold float64) model.Signal {
	switch {
	case predicted > threshold:
		return model.SignalBuy
	case predicted < threshold:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}

// Margin returns the relative distance of predicted from threshold, in percent.
func Margin(predicted, threshold float64) float64 {
	if threshold == 0 {
		return math.NaN()
	}
	return (predicted - threshold) / math.Abs(threshold) * 100
}

// Direction returns the signal a move from prev to next would have produced
// against prev as threshold. Backtests use it to score directional hits.
func Direction(prev, next float64) model.Signal {
	return Decide(next, prev)
}
