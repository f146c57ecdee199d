package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ForexSignal/internal/model"
)

func matrix(rows ...[]float64) model.FeatureMatrix {
	t0 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(rows))
	for i := range rows {
		times[i] = t0.AddDate(0, 0, i)
	}
	return model.FeatureMatrix{
		Columns: []string{model.ColSMA, model.ColRSI, model.ColClose},
		Times:   times,
		Rows:    rows,
	}
}

func TestFitTransform(t *testing.T) {
	m := matrix(
		[]float64{1, 100, 1.10},
		[]float64{3, 100, 1.30},
		[]float64{2, 100, 1.20},
	)

	scaled, p, err := FitTransform(m)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 100, 1.10}, p.Min)
	assert.Equal(t, []float64{3, 100, 1.30}, p.Max)
	assert.True(t, p.Degenerate(1))
	assert.False(t, p.Degenerate(0))

	assert.InDelta(t, 0.0, scaled.Rows[0][0], 1e-12)
	assert.InDelta(t, 1.0, scaled.Rows[1][0], 1e-12)
	assert.InDelta(t, 0.5, scaled.Rows[2][0], 1e-12)
	assert.InDelta(t, 0.5, scaled.Rows[2][2], 1e-12)
	for _, row := range scaled.Rows {
		// constant column maps to zero
		assert.Equal(t, 0.0, row[1])
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	// input is left untouched
	assert.Equal(t, 3.0, m.Rows[1][0])
	assert.Equal(t, m.Times, scaled.Times)
}

func TestInverse_RoundTrip(t *testing.T) {
	m := matrix(
		[]float64{1.5, 20, 1.0712},
		[]float64{2.5, 40, 1.0834},
		[]float64{0.5, 70, 1.0655},
		[]float64{4.0, 55, 1.0901},
	)

	scaled, p, err := FitTransform(m)
	require.NoError(t, err)

	for r, row := range scaled.Rows {
		for i, v := range row {
			if p.Degenerate(i) {
				continue
			}
			x, err := Inverse(v, p.Columns[i], p)
			require.NoError(t, err)
			assert.InDelta(t, m.Rows[r][i], x, 1e-9)
		}
	}
}

func TestInverse_Edges(t *testing.T) {
	p := Params{
		Columns: []string{model.ColRSI, model.ColClose},
		Min:     []float64{100, 1.0},
		Max:     []float64{100, 2.0},
	}

	x, err := Inverse(0, model.ColRSI, p)
	require.NoError(t, err)
	assert.Equal(t, 100.0, x)

	// extrapolation beyond the fitted range is linear
	x, err = Inverse(1.5, model.ColClose, p)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, x, 1e-12)

	_, err = Inverse(0.5, model.ColMACD, p)
	assert.Error(t, err)
}

func TestFit_Empty(t *testing.T) {
	_, _, err := FitTransform(model.FeatureMatrix{Columns: []string{model.ColClose}})
	assert.Error(t, err)
}

func TestFitTransform_Deterministic(t *testing.T) {
	m := matrix(
		[]float64{1, 2, 3},
		[]float64{4, 5, 6},
	)
	a, pa, err := FitTransform(m)
	require.NoError(t, err)
	b, pb, err := FitTransform(m)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
	assert.Equal(t, a, b)
}
