package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"ForexSignal/internal/metrics"
	"ForexSignal/internal/model"
	"ForexSignal/internal/predictor"
)

type outcome struct {
	values []float64
	err    error
}

// predict calls pred on its own goroutine, bounded by the predict timeout,
// and checks that exactly one finite value came back per window.
func (p *Pipeline) predict(ctx context.Context, pred predictor.Predictor, windows []model.Window) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.PredictTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("predictor panicked: %v", r)}
			}
		}()
		values, err := pred.Predict(ctx, windows)
		done <- outcome{values: values, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = outcome{err: ctx.Err()}
	}
	metrics.PredictDuration.Observe(time.Since(start).Seconds())
	log.Debug().Int("windows", len(windows)).Dur("took", time.Since(start)).Err(out.err).Msg("predictor returned")

	if out.err != nil {
		if errors.Is(out.err, model.ErrModelNotFound) {
			return nil, out.err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrPrediction, out.err)
	}
	return checkOutput(out.values, len(windows))
}

func checkOutput(values []float64, want int) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %w", model.ErrPrediction, model.ErrEmptyPrediction)
	}
	if len(values) != want {
		return nil, fmt.Errorf("%w: %d outputs for %d windows", model.ErrPrediction, len(values), want)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: output %d is not finite (%v)", model.ErrPrediction, i, v)
		}
	}
	return values, nil
}
