package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"ForexSignal/internal/model"
)

// Policy decides what happens to rows that still miss an indicator value.
type Policy string

const (
	// PolicyForwardFill fills gaps with the last valid value of the column and
	// drops the leading rows that have no prior value.
	PolicyForwardFill Policy = "ffill"
	// PolicyDrop drops every row with a missing value.
	PolicyDrop Policy = "drop"
	// PolicyWarmup computes the indicators over the available prefix while
	// the lookback is still filling, so no leading row is lost.
	PolicyWarmup Policy = "warmup"
)

// Config holds the indicator lookbacks and the feature set.
type Config struct {
	SMAPeriod  int
	RSIPeriod  int
	EMAPeriod  int
	MACDFast   int
	MACDSlow   int
	BBPeriod   int
	BBK        float64
	Indicators []string
	Policy     Policy
}

// DefaultConfig returns the reference indicator set.
func DefaultConfig() Config {
	return Config{
		SMAPeriod:  14,
		RSIPeriod:  14,
		EMAPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		BBPeriod:   14,
		BBK:        2,
		Indicators: append([]string(nil), model.DefaultColumns...),
		Policy:     PolicyForwardFill,
	}
}

// Lookback returns the longest indicator lookback.
func (c Config) Lookback() int {
	lb := 0
	for _, p := range []int{c.SMAPeriod, c.RSIPeriod, c.EMAPeriod, c.MACDFast, c.MACDSlow, c.BBPeriod} {
		if p > lb {
			lb = p
		}
	}
	return lb
}

// Validate checks the periods, the policy and the indicator names.
func (c Config) Validate() error {
	for name, p := range map[string]int{
		"sma_period": c.SMAPeriod,
		"rsi_period": c.RSIPeriod,
		"ema_period": c.EMAPeriod,
		"macd_fast":  c.MACDFast,
		"macd_slow":  c.MACDSlow,
	} {
		if p <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, p)
		}
	}
	if c.BBPeriod < 2 {
		return fmt.Errorf("bb_period must be at least 2, got %d", c.BBPeriod)
	}
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("macd_fast (%d) must be below macd_slow (%d)", c.MACDFast, c.MACDSlow)
	}
	if c.BBK <= 0 {
		return errors.New("bb_k must be positive")
	}
	switch c.Policy {
	case PolicyForwardFill, PolicyDrop, PolicyWarmup:
	default:
		return fmt.Errorf("unknown missing-value policy %q", c.Policy)
	}
	if len(c.Indicators) == 0 {
		return errors.New("indicator set is empty")
	}
	seen := make(map[string]bool, len(c.Indicators))
	for _, name := range c.Indicators {
		if !known(name) {
			return fmt.Errorf("unknown indicator %q", name)
		}
		if seen[name] {
			return fmt.Errorf("indicator %q listed twice", name)
		}
		seen[name] = true
	}
	if !seen[model.ColClose] {
		return fmt.Errorf("indicator set must include %s", model.ColClose)
	}
	return nil
}

func known(name string) bool {
	for _, c := range model.DefaultColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Compute turns a price series into the feature matrix, one row per valid
// timestamp with the columns in cfg.Indicators order.
func Compute(series model.Series, cfg Config, window int) (model.FeatureMatrix, error) {
	if err := cfg.Validate(); err != nil {
		return model.FeatureMatrix{}, fmt.Errorf("indicator config: %w", err)
	}
	need := cfg.Lookback() + window
	if series.Len() < need {
		return model.FeatureMatrix{}, fmt.Errorf("%w: %d bars for %s, need at least %d (lookback %d + window %d)",
			model.ErrInsufficientData, series.Len(), series.Symbol, need, cfg.Lookback(), window)
	}

	closes := series.Closes()
	partial := cfg.Policy == PolicyWarmup
	columns := make([][]float64, len(cfg.Indicators))

	var upper, lower []float64
	for i, name := range cfg.Indicators {
		switch name {
		case model.ColSMA:
			columns[i] = SMA(closes, cfg.SMAPeriod, partial)
		case model.ColRSI:
			columns[i] = RSI(closes, cfg.RSIPeriod, partial)
		case model.ColMACD:
			columns[i] = MACD(closes, cfg.MACDFast, cfg.MACDSlow)
		case model.ColEMA:
			columns[i] = EMA(closes, cfg.EMAPeriod)
		case model.ColBBUpper, model.ColBBLower:
			if upper == nil {
				upper, lower = Bollinger(closes, cfg.BBPeriod, cfg.BBK, partial)
			}
			if name == model.ColBBUpper {
				columns[i] = upper
			} else {
				columns[i] = lower
			}
		case model.ColClose:
			columns[i] = closes
		}
	}

	rows, times := assemble(columns, series.Times(), cfg.Policy)
	return model.FeatureMatrix{
		Columns: append([]string(nil), cfg.Indicators...),
		Times:   times,
		Rows:    rows,
	}, nil
}

// assemble transposes the columns into rows and applies the missing-value policy.
func assemble(columns [][]float64, times []time.Time, policy Policy) ([][]float64, []time.Time) {
	width := len(columns)
	rows := make([][]float64, 0, len(times))
	kept := make([]time.Time, 0, len(times))

	last := make([]float64, width)
	seen := make([]bool, width)

	for r := range times {
		row := make([]float64, width)
		complete := true
		for c := 0; c < width; c++ {
			v := columns[c][r]
			if missing(v) {
				if policy == PolicyDrop || !seen[c] {
					complete = false
					continue
				}
				v = last[c]
			} else {
				last[c], seen[c] = v, true
			}
			row[c] = v
		}
		if !complete {
			continue
		}
		rows = append(rows, row)
		kept = append(kept, times[r])
	}
	return rows, kept
}

func missing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
