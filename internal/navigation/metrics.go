package navigation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citypath",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Path cache lookups by outcome.",
	}, []string{"outcome"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "citypath",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Time spent computing uncached paths.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
	}, []string{"mode", "found"})

	workerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citypath",
		Subsystem: "worker",
		Name:      "failures_total",
		Help:      "Worker transport failures by how they were handled.",
	}, []string{"handling"})
)
