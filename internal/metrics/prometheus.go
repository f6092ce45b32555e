package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesage_pipeline_runs_total",
			Help: "Total number of hypothesis pipeline runs",
		},
		[]string{"status", "method"}, // status: success|error|rejected
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradesage_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"stage"},
	)

	// ExtractionStrategy counts which cascade strategy produced each shape,
	// so degraded model output is visible without failing the pipeline.
	ExtractionStrategy = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesage_extraction_strategy_total",
			Help: "Extraction cascade outcomes by shape and strategy",
		},
		[]string{"shape", "strategy"},
	)

	// Model client metrics
	ModelCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesage_model_calls_total",
			Help: "Total number of model generation calls",
		},
		[]string{"provider", "mode", "status"}, // mode: json|text
	)

	ModelLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradesage_model_latency_seconds",
			Help:    "Model generation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	// Market data metrics
	MarketDataCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesage_market_data_calls_total",
			Help: "Total number of market data API calls",
		},
		[]string{"endpoint", "status"}, // status: success|error|cache_hit
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesage_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"},
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradesage_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)
)

func init() {
	prometheus.MustRegister(
		PipelineRuns,
		StageDuration,
		ExtractionStrategy,
		ModelCalls,
		ModelLatency,
		MarketDataCalls,
		WorkerExecutions,
		WorkerDuration,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveStage records a stage execution duration
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
