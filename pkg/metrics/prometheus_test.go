package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordRun("AAPL", "ok")
	r.RecordRun("AAPL", "ok")
	r.RecordEvents("AAPL", 5, 2)
	r.RecordError("price_source")
	r.RecordLatency("compute", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("AAPL", "ok")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.eventsTotal.WithLabelValues("AAPL")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.skippedTotal.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("price_source")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
