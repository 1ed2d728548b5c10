package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_eta_predictions_total",
		Help: "Total number of predictions served.",
	})
	PredictionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_eta_predictions_failed_total",
		Help: "Total number of failed predictions by error kind.",
	}, []string{"kind"})
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "delivery_eta_pipeline_duration_seconds",
		Help:    "Duration of derive, transform and score for one record.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})
	ProviderFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_eta_provider_fallbacks_total",
		Help: "Total number of context provider failures answered with a fallback value.",
	}, []string{"provider"})
	ContextCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_eta_context_cache_hits_total",
		Help: "Total number of weather/traffic lookups served from cache.",
	}, []string{"provider"})
	SinkWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_eta_sink_writes_total",
		Help: "Prediction sink writes by sink and outcome.",
	}, []string{"sink", "outcome"})
	SinkDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_eta_sink_dropped_total",
		Help: "Prediction records dropped because the sink queue was full.",
	})
)
