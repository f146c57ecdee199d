package model

import "time"

// Indicator column names of the reference feature set.
const (
	ColSMA     = "SMA"
	ColRSI     = "RSI"
	ColMACD    = "MACD"
	ColEMA     = "EMA"
	ColBBUpper = "BB_upper"
	ColBBLower = "BB_lower"
	ColClose   = "Close"
)

// DefaultColumns is the reference indicator set in its stable column order.
var DefaultColumns = []string{ColSMA, ColRSI, ColMACD, ColEMA, ColBBUpper, ColBBLower, ColClose}

// FeatureMatrix holds one row per valid timestamp, each row a vector over Columns.
type FeatureMatrix struct {
	Columns []string
	Times   []time.Time
	Rows    [][]float64
}

// Len returns the number of rows.
func (m FeatureMatrix) Len() int { return len(m.Rows) }

// Width returns the number of columns.
func (m FeatureMatrix) Width() int { return len(m.Columns) }

// ColumnIndex returns the position of the named column, or -1.
func (m FeatureMatrix) ColumnIndex(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column copies out the values of column i.
func (m FeatureMatrix) Column(i int) []float64 {
	col := make([]float64, len(m.Rows))
	for r, row := range m.Rows {
		col[r] = row[i]
	}
	return col
}

// Window is a contiguous slice of consecutive normalized rows.
// Rows share memory with the matrix it was cut from and must be treated as read-only.
type Window struct {
	Index int
	Start time.Time
	End   time.Time
	Rows  [][]float64
	// Target is the normalized Close of the row right after the window.
	Target    float64
	HasTarget bool
}

// Size returns the number of rows in the window.
func (w Window) Size() int { return len(w.Rows) }

// Last returns the final row of the window.
func (w Window) Last() []float64 { return w.Rows[len(w.Rows)-1] }
