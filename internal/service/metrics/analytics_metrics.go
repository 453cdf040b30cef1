package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eventpulse",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of reaction endpoints",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventpulse",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by reaction endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	CacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventpulse",
			Subsystem: "api",
			Name:      "cache_total",
			Help:      "Response cache lookups by result",
		},
		[]string{"endpoint", "result"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, CacheResults)
	})
}
