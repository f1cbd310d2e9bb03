package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EstimatesComputedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimates_computed_total",
			Help: "Total number of life expectancy estimates computed",
		},
		[]string{"strategy"},
	)

	PredictorFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "predictor_fallbacks_total",
			Help: "Total number of ml estimates that fell back to the who strategy",
		},
	)

	EstimatesResetTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "estimates_reset_total",
			Help: "Total number of estimates discarded by a retake",
		},
	)

	CountdownStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "countdown_streams",
			Help: "Current number of open countdown WebSocket streams",
		},
	)
)

// RegisterEstimateMetrics registers all estimate pipeline metrics
func RegisterEstimateMetrics() {
	prometheus.MustRegister(EstimatesComputedTotal)
	prometheus.MustRegister(PredictorFallbacksTotal)
	prometheus.MustRegister(EstimatesResetTotal)
	prometheus.MustRegister(CountdownStreams)
}
