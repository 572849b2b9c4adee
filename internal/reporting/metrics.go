package reporting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Prometheus metrics for the aggregation engine
	reportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of report generation attempts",
		},
		[]string{"status"},
	)

	reportGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "leaguestats",
			Subsystem: "reporting",
			Name:      "generation_duration_seconds",
			Help:      "Histogram of report generation latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
	)

	reportMatchCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "leaguestats",
			Subsystem: "reporting",
			Name:      "input_matches",
			Help:      "Histogram of the number of matches aggregated per report",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	reportNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "reporting",
			Name:      "notifications_total",
			Help:      "Total number of report generated notifications",
		},
		[]string{"status"},
	)
)
