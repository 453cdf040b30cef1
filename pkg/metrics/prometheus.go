package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal    *prometheus.CounterVec
	eventsTotal  *prometheus.CounterVec
	skippedTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers the recorder's collectors on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the recorder's collectors on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventpulse_analysis_runs_total",
				Help: "Analysis runs by ticker and status",
			},
			[]string{"ticker", "status"},
		),
		eventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventpulse_events_total",
				Help: "Classified events entering reaction computation",
			},
			[]string{"ticker"},
		),
		skippedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventpulse_events_skipped_total",
				Help: "Events with no reachable trading day",
			},
			[]string{"ticker"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventpulse_stage_duration_seconds",
				Help:    "Duration of analysis stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordRun counts a finished analysis run.
func (r *Recorder) RecordRun(ticker, status string) {
	r.runsTotal.WithLabelValues(ticker, status).Inc()
}

// RecordEvents counts processed and skipped events.
func (r *Recorder) RecordEvents(ticker string, events, skipped int) {
	r.eventsTotal.WithLabelValues(ticker).Add(float64(events))
	r.skippedTotal.WithLabelValues(ticker).Add(float64(skipped))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records stage latency in seconds.
func (r *Recorder) RecordLatency(stage string, seconds float64) {
	r.latency.WithLabelValues(stage).Observe(seconds)
}
