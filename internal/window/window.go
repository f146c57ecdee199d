// Package window cuts a normalized feature matrix into fixed-length inference inputs.
package window

import (
	"fmt"

	"ForexSignal/internal/model"
)

// Make returns the len(m)-w labelled windows of m with stride 1.
// Window i covers rows [i, i+w) and its target is the Close of row i+w.
func Make(m model.FeatureMatrix, w int) ([]model.Window, error) {
	if w <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", w)
	}
	if m.Len() <= w {
		return nil, fmt.Errorf("%w: %d rows, window of %d needs more", model.ErrInsufficientData, m.Len(), w)
	}
	target := m.ColumnIndex(model.ColClose)
	if target < 0 {
		return nil, fmt.Errorf("feature matrix has no %s column", model.ColClose)
	}

	windows := make([]model.Window, 0, m.Len()-w)
	for i := 0; i+w < m.Len(); i++ {
		win := cut(m, i, w)
		win.Target = m.Rows[i+w][target]
		win.HasTarget = true
		windows = append(windows, win)
	}
	return windows, nil
}

// Latest returns the trailing w rows of m as one unlabelled window.
func Latest(m model.FeatureMatrix, w int) (model.Window, error) {
	if w <= 0 {
		return model.Window{}, fmt.Errorf("window size must be positive, got %d", w)
	}
	if m.Len() < w {
		return model.Window{}, fmt.Errorf("%w: %d rows, window of %d needs more", model.ErrInsufficientData, m.Len(), w)
	}
	return cut(m, m.Len()-w, w), nil
}

func cut(m model.FeatureMatrix, i, w int) model.Window {
	return model.Window{
		Index: i,
		Start: m.Times[i],
		End:   m.Times[i+w-1],
		Rows:  m.Rows[i : i+w : i+w],
	}
}
