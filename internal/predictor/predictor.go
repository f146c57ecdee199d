// Package predictor defines the sequence predictor capability consumed by the
// pipeline, plus the implementations the service ships with.
//
// A Predictor maps a batch of normalized windows to one output per window.
// Outputs are in the same scaled units as the Close column unless the model
// is configured otherwise.
package predictor

import (
	"context"
	"fmt"
	"slices"

	"ForexSignal/internal/model"
)

// Predictor produces one value per input window.
type Predictor interface {
	Predict(ctx context.Context, windows []model.Window) ([]float64, error)
}

// Store resolves the predictor for a symbol.
// A symbol with no artifact yields an error wrapping model.ErrModelNotFound.
type Store interface {
	Predictor(symbol string) (Predictor, error)
}

// PredictFunc adapts a plain function to Predictor.
type PredictFunc func(ctx context.Context, windows []model.Window) ([]float64, error)

// Predict calls f.
func (f PredictFunc) Predict(ctx context.Context, windows []model.Window) ([]float64, error) {
	return f(ctx, windows)
}

// Static is an in-memory store. Fallback, when set, serves every symbol
// that has no entry in Models.
type Static struct {
	Models   map[string]Predictor
	Fallback Predictor
}

// Single returns a store serving p for every symbol.
func Single(p Predictor) *Static {
	return &Static{Fallback: p}
}

// Predictor implements Store.
func (s *Static) Predictor(symbol string) (Predictor, error) {
	if p, ok := s.Models[symbol]; ok {
		return p, nil
	}
	if s.Fallback != nil {
		return s.Fallback, nil
	}
	return nil, fmt.Errorf("%w: no predictor for %s", model.ErrModelNotFound, symbol)
}

// Layout is the feature layout a model was trained on. A zero Window
// accepts windows of any length.
type Layout struct {
	Columns []string
	Window  int
}

// Shaped is implemented by predictors bound to one feature layout.
type Shaped interface {
	Layout() Layout
}

// CheckLayout compares the layout p reports with the columns and window the
// caller feeds it. Predictors that report no layout are accepted as is.
func CheckLayout(p Predictor, columns []string, window int) error {
	s, ok := p.(Shaped)
	if !ok {
		return nil
	}
	l := s.Layout()
	if !slices.Equal(l.Columns, columns) {
		return fmt.Errorf("model expects columns %v, features are %v", l.Columns, columns)
	}
	if l.Window != 0 && l.Window != window {
		return fmt.Errorf("model expects window %d, pipeline uses %d", l.Window, window)
	}
	return nil
}
