// Package service wraps the pipeline with the side effects of a run:
// metrics, history and logging.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ForexSignal/internal/metrics"
	"ForexSignal/internal/model"
	"ForexSignal/internal/recorder"
)

// MaxHistory caps History requests.
const MaxHistory = 500

// Engine computes signals. *pipeline.Pipeline implements it.
type Engine interface {
	Run(ctx context.Context, req model.Request) (*model.Result, error)
	Backtest(ctx context.Context, req model.Request) (*model.BacktestReport, error)
}

type ctxKey struct{}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the id attached to ctx, or a fresh one.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// SignalService runs requests and records their outcome.
type SignalService struct {
	Engine   Engine
	Recorder recorder.Recorder
}

// New creates a SignalService. A nil rec records nothing.
func New(engine Engine, rec recorder.Recorder) *SignalService {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &SignalService{Engine: engine, Recorder: rec}
}

// Generate computes the signal for req. source tells where the request came
// from (api, schedule, telegram) and is stored with the history.
func (s *SignalService) Generate(ctx context.Context, req model.Request, source string) (*model.Result, error) {
	id := RequestID(ctx)
	start := time.Now()
	res, err := s.Engine.Run(ctx, req)
	metrics.PipelineDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())

	if err != nil {
		s.fail(id, source, req.Symbol, err)
		return nil, err
	}

	metrics.SignalsTotal.WithLabelValues(res.Symbol, string(res.Signal)).Inc()
	rec := &recorder.SignalRecord{
		Timestamp:      time.Now(),
		RequestID:      id,
		Source:         source,
		Symbol:         res.Symbol,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Threshold:      res.Threshold,
		PredictedPrice: res.PredictedPrice,
		Signal:         res.Signal,
		AsOf:           res.AsOf,
	}
	if err := s.Recorder.RecordSignal(rec); err != nil {
		log.Error().Err(err).Str("request_id", id).Msg("record signal failed")
	}
	return res, nil
}

// Backtest runs the batched evaluation for req.
func (s *SignalService) Backtest(ctx context.Context, req model.Request, source string) (*model.BacktestReport, error) {
	id := RequestID(ctx)
	start := time.Now()
	rep, err := s.Engine.Backtest(ctx, req)
	metrics.PipelineDuration.WithLabelValues("backtest").Observe(time.Since(start).Seconds())
	if err != nil {
		s.fail(id, source, req.Symbol, err)
		return nil, err
	}
	return rep, nil
}

// History returns the most recent signals, newest first.
func (s *SignalService) History(limit int) ([]recorder.SignalRecord, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}
	return s.Recorder.Recent(limit)
}

func (s *SignalService) fail(id, source, symbol string, err error) {
	kind := model.KindOf(err)
	metrics.FailuresTotal.WithLabelValues(string(kind)).Inc()

	level := zerolog.WarnLevel
	if kind == model.KindInternal {
		level = zerolog.ErrorLevel
	}
	log.WithLevel(level).
		Err(err).
		Str("request_id", id).
		Str("source", source).
		Str("symbol", symbol).
		Str("kind", string(kind)).
		Msg("signal request failed")

	if rerr := s.Recorder.RecordFailure(&recorder.FailureRecord{
		Timestamp: time.Now(),
		RequestID: id,
		Source:    source,
		Symbol:    symbol,
		Kind:      kind,
		Message:   err.Error(),
	}); rerr != nil {
		log.Error().Err(rerr).Str("request_id", id).Msg("record failure failed")
	}
}
