package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeHandler struct {
	topic string
	fail  int
	err   error
	calls int
}

func (h *fakeHandler) Topic() string { return h.topic }

func (h *fakeHandler) Handle(_ context.Context, _ []byte) error {
	h.calls++
	if h.calls <= h.fail {
		return h.err
	}
	return nil
}

func testConsumer(dlq messageWriter) *Consumer {
	c := newConsumer(&ConsumerConfig{
		GroupID:    "test",
		RetryMax:   2,
		BackoffMin: time.Millisecond,
		BackoffMax: 2 * time.Millisecond,
		DLQTopic:   "dlq",
		BufferSize: 1,
	}, nil)
	c.dlq = dlq
	return c
}

func TestProducerEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "snappy")
	require.NoError(t, p.Publish(context.Background(), "reactions", []byte("AAPL"), map[string]int{"events": 2}))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "reactions", w.msgs[0].Topic)
	assert.Equal(t, "AAPL", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"events":2}`, string(w.msgs[0].Value))
}

func TestProducerWrapsWriteError(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("broker down")}, "snappy")
	err := p.Publish(context.Background(), "reactions", nil, "x")
	assert.ErrorContains(t, err, "broker down")
}

func TestProcessRetriesThenSucceeds(t *testing.T) {
	dlq := &fakeWriter{}
	c := testConsumer(dlq)
	h := &fakeHandler{topic: "in", fail: 2, err: errors.New("transient")}
	c.RegisterHandler(h)

	ok := c.process(context.Background(), kafka.Message{Topic: "in", Value: []byte("{}")})
	assert.True(t, ok)
	assert.Equal(t, 3, h.calls)
	assert.Empty(t, dlq.msgs)
}

func TestProcessExhaustedGoesToDLQ(t *testing.T) {
	dlq := &fakeWriter{}
	c := testConsumer(dlq)
	h := &fakeHandler{topic: "in", fail: 100, err: errors.New("still failing")}
	c.RegisterHandler(h)

	ok := c.process(context.Background(), kafka.Message{Topic: "in", Value: []byte("payload")})
	assert.True(t, ok)
	assert.Equal(t, 3, h.calls)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "dlq", dlq.msgs[0].Topic)
	assert.Equal(t, "payload", string(dlq.msgs[0].Value))
}

func TestProcessPermanentSkipsRetry(t *testing.T) {
	dlq := &fakeWriter{}
	c := testConsumer(dlq)
	h := &fakeHandler{topic: "in", fail: 100, err: Permanent(errors.New("bad payload"))}
	c.RegisterHandler(h)

	assert.True(t, c.process(context.Background(), kafka.Message{Topic: "in"}))
	assert.Equal(t, 1, h.calls)
	assert.Len(t, dlq.msgs, 1)
}

func TestProcessDLQFailureKeepsOffset(t *testing.T) {
	c := testConsumer(&fakeWriter{err: errors.New("dlq down")})
	c.RegisterHandler(&fakeHandler{topic: "in", fail: 100, err: Permanent(errors.New("bad"))})
	assert.False(t, c.process(context.Background(), kafka.Message{Topic: "in"}))
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}
