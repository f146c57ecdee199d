package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forexsignal_signals_total",
			Help: "Total number of signals generated",
		},
		[]string{"symbol", "signal"},
	)

	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forexsignal_failures_total",
			Help: "Total number of failed pipeline runs by error kind",
		},
		[]string{"kind"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forexsignal_pipeline_duration_seconds",
			Help:    "Pipeline run duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PredictDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forexsignal_predict_duration_seconds",
			Help:    "Predictor call duration",
			Buckets: prometheus.DefBuckets,
		},
	)
)
