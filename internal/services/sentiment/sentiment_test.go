package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domsvc "EventPulse/internal/domain/service"
)

func TestHTTPClassifierNormalisesLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/classify", r.URL.Path)
		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Quarterly results", req.Text)
		_, _ = w.Write([]byte(`{"label": "negative"}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, 0, 1)
	label, err := c.Classify(context.Background(), "Quarterly results")
	require.NoError(t, err)
	assert.Equal(t, domsvc.SentimentNegative, label)
}

func TestHTTPClassifierRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"label": "Positive"}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, 0, 3)
	label, err := c.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, domsvc.SentimentPositive, label)
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPClassifierDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, 0, 5)
	_, err := c.Classify(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPClassifierRejectsUnknownLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"label": "bullish"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClassifier(srv.URL, 0, 1).Classify(context.Background(), "x")
	assert.Error(t, err)
}

func claudeServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_1",
			"type":          "message",
			"role":          "assistant",
			"model":         "test-model",
			"content":       []map[string]any{{"type": "text", "text": answer}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClaudeClassifier(t *testing.T) {
	srv := claudeServer(t, "Positive.")
	c, err := NewClaudeClassifier("test-key", "test-model", 0, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	label, err := c.Classify(context.Background(), "Item 2.02 Results of Operations")
	require.NoError(t, err)
	assert.Equal(t, domsvc.SentimentPositive, label)
}

func TestClaudeClassifierUnexpectedAnswer(t *testing.T) {
	srv := claudeServer(t, "I cannot tell")
	c, err := NewClaudeClassifier("test-key", "test-model", 0, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "x")
	assert.Error(t, err)
}

func TestNewClaudeClassifierRequiresKey(t *testing.T) {
	_, err := NewClaudeClassifier(" ", "", 0)
	assert.Error(t, err)
}
