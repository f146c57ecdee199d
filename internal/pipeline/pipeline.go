// Package pipeline sequences the signal computation for one request:
// fetch, indicators, normalization, windowing, prediction and decision.
//
// Every run works on its own copies of the data. A Pipeline holds only
// configuration and its collaborators, so one value can serve concurrent
// requests.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"ForexSignal/internal/calculator"
	"ForexSignal/internal/collector"
	"ForexSignal/internal/model"
	"ForexSignal/internal/normalizer"
	"ForexSignal/internal/predictor"
	"ForexSignal/internal/strategy"
	"ForexSignal/internal/window"
)

// Options configures a Pipeline.
type Options struct {
	Window     int
	Indicators calculator.Config
	// OutputNormalized means the predictor answers in scaled Close units,
	// which are inverted back to prices before the decision.
	OutputNormalized         bool
	RequirePositiveThreshold bool
	PredictTimeout           time.Duration
}

// DefaultOptions returns the reference settings.
func DefaultOptions() Options {
	return Options{
		Window:                   60,
		Indicators:               calculator.DefaultConfig(),
		OutputNormalized:         true,
		RequirePositiveThreshold: true,
		PredictTimeout:           10 * time.Second,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Window <= 0 {
		return fmt.Errorf("window must be positive, got %d", o.Window)
	}
	if o.PredictTimeout <= 0 {
		return fmt.Errorf("predict timeout must be positive, got %s", o.PredictTimeout)
	}
	return o.Indicators.Validate()
}

// Pipeline runs requests against a fetcher and a model store.
type Pipeline struct {
	fetcher collector.Fetcher
	store   predictor.Store
	opts    Options
}

// New creates a Pipeline.
func New(fetcher collector.Fetcher, store predictor.Store, opts Options) (*Pipeline, error) {
	if fetcher == nil || store == nil {
		return nil, errors.New("pipeline needs a fetcher and a model store")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline options: %w", err)
	}
	return &Pipeline{fetcher: fetcher, store: store, opts: opts}, nil
}

// Options returns the configuration the pipeline runs with.
func (p *Pipeline) Options() Options { return p.opts }

// prepared is the per-request state shared by Run and Backtest.
type prepared struct {
	query  Query
	series model.Series
	raw    model.FeatureMatrix
	scaled model.FeatureMatrix
	params normalizer.Params
	pred   predictor.Predictor
}

// Run computes the signal for req from the most recent window.
func (p *Pipeline) Run(ctx context.Context, req model.Request) (*model.Result, error) {
	res, err := p.run(ctx, req)
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, req model.Request) (*model.Result, error) {
	st, err := p.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	latest, err := window.Latest(st.scaled, p.opts.Window)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("symbol", st.query.Symbol).Time("start", latest.Start).Time("end", latest.End).Msg("latest window")

	values, err := p.predict(ctx, st.pred, []model.Window{latest})
	if err != nil {
		return nil, err
	}
	price, err := p.denormalize(values[0], st.params)
	if err != nil {
		return nil, err
	}

	signal := strategy.Decide(price, st.query.Threshold)
	log.Info().
		Str("symbol", st.query.Symbol).
		Float64("predicted", price).
		Float64("threshold", st.query.Threshold).
		Str("signal", string(signal)).
		Msg("signal computed")

	return &model.Result{
		Symbol:         st.query.Symbol,
		PredictedPrice: price,
		Signal:         signal,
		Threshold:      st.query.Threshold,
		AsOf:           st.series.Last().Time,
		Rows:           st.scaled.Len(),
		WindowSize:     p.opts.Window,
	}, nil
}

// Backtest predicts every labelled window in one batch and compares each
// prediction with the close that actually followed.
func (p *Pipeline) Backtest(ctx context.Context, req model.Request) (*model.BacktestReport, error) {
	rep, err := p.backtest(ctx, req)
	if err != nil {
		return nil, translate(err)
	}
	return rep, nil
}

func (p *Pipeline) backtest(ctx context.Context, req model.Request) (*model.BacktestReport, error) {
	st, err := p.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	windows, err := window.Make(st.scaled, p.opts.Window)
	if err != nil {
		return nil, err
	}
	values, err := p.predict(ctx, st.pred, windows)
	if err != nil {
		return nil, err
	}

	closeIdx := st.raw.ColumnIndex(model.ColClose)
	report := &model.BacktestReport{
		Symbol:    st.query.Symbol,
		Threshold: st.query.Threshold,
		Points:    make([]model.BacktestPoint, len(windows)),
	}
	hits := 0
	for i, w := range windows {
		predicted, err := p.denormalize(values[i], st.params)
		if err != nil {
			return nil, err
		}
		if !w.HasTarget {
			return nil, fmt.Errorf("window %d has no target", w.Index)
		}
		actual, err := normalizer.Inverse(w.Target, model.ColClose, st.params)
		if err != nil {
			return nil, err
		}
		next := w.Index + w.Size()
		last := st.raw.Rows[next-1][closeIdx]

		report.Points[i] = model.BacktestPoint{
			Time:      st.raw.Times[next],
			Predicted: predicted,
			Actual:    actual,
			Signal:    strategy.Decide(predicted, st.query.Threshold),
		}
		if strategy.Direction(last, predicted) == strategy.Direction(last, actual) {
			hits++
		}
	}
	report.HitRate = float64(hits) / float64(len(windows))

	log.Info().
		Str("symbol", st.query.Symbol).
		Int("windows", len(windows)).
		Float64("hit_rate", report.HitRate).
		Msg("backtest computed")
	return report, nil
}

// prepare runs everything up to windowing. Input is validated and the model
// resolved before any data is fetched.
func (p *Pipeline) prepare(ctx context.Context, req model.Request) (*prepared, error) {
	q, err := ParseRequest(req, p.opts.RequirePositiveThreshold)
	if err != nil {
		return nil, err
	}

	pred, err := p.store.Predictor(q.Symbol)
	if err != nil {
		return nil, err
	}
	if err := predictor.CheckLayout(pred, p.opts.Indicators.Indicators, p.opts.Window); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrPrediction, q.Symbol, err)
	}

	series, err := p.fetcher.Fetch(ctx, q.Symbol, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", q.Symbol, p.fetcher.Name(), err)
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: %s returned no bars for %s", model.ErrDataNotFound, p.fetcher.Name(), q.Symbol)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("fetched series: %w", err)
	}
	log.Debug().Str("symbol", q.Symbol).Int("bars", series.Len()).Msg("series fetched")

	raw, err := calculator.Compute(series, p.opts.Indicators, p.opts.Window)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("symbol", q.Symbol).Int("rows", raw.Len()).Strs("columns", raw.Columns).Msg("indicators computed")

	scaled, params, err := normalizer.FitTransform(raw)
	if err != nil {
		return nil, err
	}

	return &prepared{
		query:  q,
		series: series,
		raw:    raw,
		scaled: scaled,
		params: params,
		pred:   pred,
	}, nil
}

func (p *Pipeline) denormalize(v float64, params normalizer.Params) (float64, error) {
	if !p.opts.OutputNormalized {
		return v, nil
	}
	return normalizer.Inverse(v, model.ColClose, params)
}

// translate keeps categorized errors as they are and marks anything else
// internal, preserving the cause.
func translate(err error) error {
	if model.Known(err) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrInternal, err)
}
