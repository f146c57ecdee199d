package predictor

import (
	"context"
	"fmt"

	"ForexSignal/internal/model"
)

// LinearExtrapolator predicts the next value of one column by continuing the
// step between the last two rows of each window.
type LinearExtrapolator struct {
	Column int
}

// ExtrapolateColumn builds a LinearExtrapolator for the named column of columns.
func ExtrapolateColumn(columns []string, name string) (*LinearExtrapolator, error) {
	for i, c := range columns {
		if c == name {
			return &LinearExtrapolator{Column: i}, nil
		}
	}
	return nil, fmt.Errorf("column %q not in feature set", name)
}

// Predict implements Predictor.
func (l *LinearExtrapolator) Predict(ctx context.Context, windows []model.Window) ([]float64, error) {
	out := make([]float64, len(windows))
	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := w.Size()
		if n == 0 {
			return nil, fmt.Errorf("window %d is empty", i)
		}
		last := w.Rows[n-1]
		if l.Column < 0 || l.Column >= len(last) {
			return nil, fmt.Errorf("column %d out of range for %d features", l.Column, len(last))
		}
		if n == 1 {
			out[i] = last[l.Column]
			continue
		}
		prev := w.Rows[n-2][l.Column]
		out[i] = 2*last[l.Column] - prev
	}
	return out, nil
}
