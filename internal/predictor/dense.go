package predictor

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"ForexSignal/internal/model"
)

// DenseModel is a single linear layer over the flattened window:
// y = weights · flatten(window) + bias.
type DenseModel struct {
	Window  int
	Width   int
	Weights []float64
	Bias    float64
}

// NewDenseModel checks that the weights cover a window x width input.
func NewDenseModel(window, width int, weights []float64, bias float64) (*DenseModel, error) {
	if window <= 0 || width <= 0 {
		return nil, fmt.Errorf("dense model shape %dx%d is invalid", window, width)
	}
	if len(weights) != window*width {
		return nil, fmt.Errorf("dense model expects %d weights for %dx%d input, got %d",
			window*width, window, width, len(weights))
	}
	return &DenseModel{Window: window, Width: width, Weights: weights, Bias: bias}, nil
}

// Predict implements Predictor.
func (d *DenseModel) Predict(ctx context.Context, windows []model.Window) ([]float64, error) {
	out := make([]float64, len(windows))
	flat := make([]float64, d.Window*d.Width)
	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if w.Size() != d.Window {
			return nil, fmt.Errorf("window %d has %d rows, model expects %d", i, w.Size(), d.Window)
		}
		for r, row := range w.Rows {
			if len(row) != d.Width {
				return nil, fmt.Errorf("window %d row %d has %d features, model expects %d", i, r, len(row), d.Width)
			}
			copy(flat[r*d.Width:], row)
		}
		out[i] = floats.Dot(d.Weights, flat) + d.Bias
	}
	return out, nil
}
