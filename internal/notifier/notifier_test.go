package notifier

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ForexSignal/internal/model"
	"ForexSignal/internal/recorder"
)

func TestFormatSignal(t *testing.T) {
	msg := FormatSignal(&model.Result{
		Symbol:         "EURUSD=X",
		PredictedPrice: 1.1,
		Signal:         model.SignalBuy,
		Threshold:      1.0,
		AsOf:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Rows:           86,
		WindowSize:     60,
	})
	assert.Contains(t, msg, "<b>EURUSD=X</b> | BUY")
	assert.Contains(t, msg, "Predicted: 1.10000")
	assert.Contains(t, msg, "(+10.00%)")
	assert.Contains(t, msg, "2024-03-01")

	msg = FormatSignal(&model.Result{Symbol: "X", Signal: model.SignalHold})
	assert.Contains(t, msg, "Threshold: 0.00000\n")
}

func TestFormatFailure(t *testing.T) {
	err := fmt.Errorf("%w: series <empty>", model.ErrDataNotFound)
	msg := FormatFailure("EURUSD=X", err)
	assert.Contains(t, msg, "[data_not_found]")
	assert.Contains(t, msg, "&lt;empty&gt;")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No signals recorded yet.", FormatHistory(nil))

	msg := FormatHistory([]recorder.SignalRecord{
		{Timestamp: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), Symbol: "EURUSD=X", Signal: model.SignalSell,
			PredictedPrice: 1.08, Threshold: 1.09, Source: recorder.SourceSchedule},
	})
	assert.Contains(t, msg, "03-01 08:30 🔴 EURUSD=X 1.08000 vs 1.09000 (schedule)")
}

func TestFormatBacktest(t *testing.T) {
	msg := FormatBacktest(&model.BacktestReport{
		Symbol:  "EURUSD=X",
		HitRate: 0.625,
		Points: []model.BacktestPoint{
			{Signal: model.SignalBuy}, {Signal: model.SignalBuy}, {Signal: model.SignalSell},
		},
	})
	assert.Contains(t, msg, "Windows: 3")
	assert.Contains(t, msg, "2 buy / 1 sell / 0 hold")
	assert.Contains(t, msg, "62.5%")
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("timeout")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return errors.New("forbidden")
	})
	assert.ErrorContains(t, err, "all 3 retries exhausted")
	assert.Equal(t, 3, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = retry(ctx, 5, time.Hour, func() error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogNotifier(t *testing.T) {
	var n Notifier = LogNotifier{}
	assert.NoError(t, n.Send("hello"))
	assert.NoError(t, n.SendWithRetry(context.Background(), "hello", 3))
}
