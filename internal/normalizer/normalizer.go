// Package normalizer scales a feature matrix column by column into [0, 1].
//
// Parameters are fit per call over the whole matrix and returned to the
// caller; nothing is cached between calls.
package normalizer

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"ForexSignal/internal/model"
)

// Params holds one (min, max) pair per column.
type Params struct {
	Columns []string  `json:"columns"`
	Min     []float64 `json:"min"`
	Max     []float64 `json:"max"`
}

// Degenerate reports whether column i is constant.
func (p Params) Degenerate(i int) bool {
	return p.Max[i] == p.Min[i]
}

// Index returns the position of the named column, or -1.
func (p Params) Index(column string) int {
	for i, c := range p.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Scale maps x of column i into [0, 1]. Constant columns map to 0.
func (p Params) Scale(x float64, i int) float64 {
	if p.Degenerate(i) {
		return 0
	}
	return (x - p.Min[i]) / (p.Max[i] - p.Min[i])
}

// Fit computes the per-column min and max over every row of m.
func Fit(m model.FeatureMatrix) (Params, error) {
	if m.Len() == 0 {
		return Params{}, errors.New("cannot fit normalizer on an empty matrix")
	}
	p := Params{
		Columns: append([]string(nil), m.Columns...),
		Min:     make([]float64, m.Width()),
		Max:     make([]float64, m.Width()),
	}
	for i := 0; i < m.Width(); i++ {
		col := m.Column(i)
		p.Min[i] = floats.Min(col)
		p.Max[i] = floats.Max(col)
	}
	return p, nil
}

// Transform applies p to m, returning a new matrix.
func Transform(m model.FeatureMatrix, p Params) (model.FeatureMatrix, error) {
	if len(p.Columns) != m.Width() {
		return model.FeatureMatrix{}, fmt.Errorf("normalizer fit on %d columns, matrix has %d", len(p.Columns), m.Width())
	}
	rows := make([][]float64, m.Len())
	for r, row := range m.Rows {
		scaled := make([]float64, len(row))
		for i, x := range row {
			scaled[i] = p.Scale(x, i)
		}
		rows[r] = scaled
	}
	return model.FeatureMatrix{
		Columns: append([]string(nil), m.Columns...),
		Times:   append(m.Times[:0:0], m.Times...),
		Rows:    rows,
	}, nil
}

// FitTransform fits the parameters over m and scales it in one step.
func FitTransform(m model.FeatureMatrix) (model.FeatureMatrix, Params, error) {
	p, err := Fit(m)
	if err != nil {
		return model.FeatureMatrix{}, Params{}, err
	}
	scaled, err := Transform(m, p)
	if err != nil {
		return model.FeatureMatrix{}, Params{}, err
	}
	return scaled, p, nil
}

// Inverse maps a scaled value of the named column back to native units.
// A constant column inverts to its single value.
func Inverse(value float64, column string, p Params) (float64, error) {
	i := p.Index(column)
	if i < 0 {
		return 0, fmt.Errorf("column %q was not fit", column)
	}
	if p.Degenerate(i) {
		return p.Min[i], nil
	}
	return value*(p.Max[i]-p.Min[i]) + p.Min[i], nil
}
