package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"ForexSignal/internal/model"
)

func TestDecide(t *testing.T) {

	type test struct {
		predicted float64
		threshold float64
		signal    model.Signal
	}

	const threshold = 1.0850
	eps := math.Nextafter(threshold, math.Inf(1)) - threshold

	tests := map[string]test{
		"equal-is-hold":  {predicted: threshold, threshold: threshold, signal: model.SignalHold},
		"above-is-buy":   {predicted: threshold + eps, threshold: threshold, signal: model.SignalBuy},
		"below-is-sell":  {predicted: threshold - eps, threshold: threshold, signal: model.SignalSell},
		"far-above":      {predicted: 1.75, threshold: 1.5, signal: model.SignalBuy},
		"far-below":      {predicted: 1.25, threshold: 1.5, signal: model.SignalSell},
		"negative-hold":  {predicted: -2, threshold: -2, signal: model.SignalHold},
		"zero-threshold": {predicted: 0.0001, threshold: 0, signal: model.SignalBuy},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.signal, Decide(tt.predicted, tt.threshold))
		})
	}
}

func TestMargin(t *testing.T) {
	assert.InDelta(t, 10.0, Margin(1.1, 1.0), 1e-9)
	assert.InDelta(t, -50.0, Margin(-3, -2), 1e-9)
	assert.True(t, math.IsNaN(Margin(1, 0)))
}

func TestDirection(t *testing.T) {
	assert.Equal(t, model.SignalBuy, Direction(1.0, 1.1))
	assert.Equal(t, model.SignalSell, Direction(1.1, 1.0))
	assert.Equal(t, model.SignalHold, Direction(1.0, 1.0))
}
