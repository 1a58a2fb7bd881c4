package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for rate budget gating.
var (
	budgetInWindow = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aktiva_rate_budget_in_window",
		Help: "Requests issued within the current rolling rate window",
	})

	budgetWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aktiva_rate_budget_waits_total",
		Help: "Total number of requests that had to wait for rate budget",
	})

	budgetWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aktiva_rate_budget_wait_seconds",
		Help:    "Time spent waiting for rate budget availability",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
)
