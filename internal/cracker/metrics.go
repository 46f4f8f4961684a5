package cracker

import "github.com/prometheus/client_golang/prometheus"

var (
	buildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crc32rainbow",
		Subsystem: "index",
		Name:      "build_duration_seconds",
		Help:      "The time taken to build the reverse-lookup index.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	crackDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crc32rainbow",
		Subsystem: "crack",
		Name:      "duration_seconds",
		Help:      "The latency distribution of crack queries.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
	})

	cracksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crc32rainbow",
		Subsystem: "crack",
		Name:      "queries_total",
		Help:      "Crack queries by outcome (found, empty, canceled).",
	}, []string{"outcome"})

	candidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "crc32rainbow",
		Subsystem: "crack",
		Name:      "candidates_total",
		Help:      "Candidates returned across all crack queries.",
	})
)

func init() {
	prometheus.MustRegister(buildDuration, crackDuration, cracksTotal, candidatesTotal)
}
