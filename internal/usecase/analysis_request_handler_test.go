package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventPulse/internal/domain/models"
	pkgkafka "EventPulse/pkg/kafka"
)

type recordingRunner struct {
	mu     sync.Mutex
	params []StudyParams
	err    error
	fail   map[string]bool
}

func (r *recordingRunner) Run(_ context.Context, p StudyParams) (*models.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = append(r.params, p)
	if r.err != nil {
		return nil, r.err
	}
	if r.fail[p.Ticker] {
		return nil, errors.New("boom")
	}
	return &models.AnalysisResult{Ticker: p.Ticker, Status: models.StatusOK}, nil
}

func isPermanent(err error) bool {
	var pe *pkgkafka.PermanentError
	return errors.As(err, &pe)
}

func TestAnalysisRequestHandlerRuns(t *testing.T) {
	runner := &recordingRunner{}
	h := NewAnalysisRequestHandler("analysis.requests", runner, newFakeMetrics())
	assert.Equal(t, "analysis.requests", h.Topic())

	err := h.Handle(context.Background(), []byte(`{"ticker":"aapl","start":"2024-01-02","horizons":"1,5"}`))
	require.NoError(t, err)
	require.Len(t, runner.params, 1)
	p := runner.params[0]
	assert.Equal(t, "AAPL", p.Ticker)
	assert.Equal(t, date(1, 2), p.Start)
	assert.Equal(t, 30, p.Duration, "default tag applied")
	assert.Equal(t, []int{1, 5}, p.Horizons)
}

func TestAnalysisRequestHandlerPermanentFailures(t *testing.T) {
	cases := map[string]string{
		"bad json":       `{"ticker":`,
		"missing ticker": `{"duration": 5}`,
		"bad date":       `{"ticker":"AAPL","start":"02/01/2024"}`,
		"bad horizons":   `{"ticker":"AAPL","horizons":"a,b"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			runner := &recordingRunner{}
			h := NewAnalysisRequestHandler("analysis.requests", runner, newFakeMetrics())
			err := h.Handle(context.Background(), []byte(body))
			require.Error(t, err)
			assert.True(t, isPermanent(err))
			assert.Empty(t, runner.params)
		})
	}
}

func TestAnalysisRequestHandlerClassifiesRunErrors(t *testing.T) {
	for _, tc := range []struct {
		name      string
		err       error
		permanent bool
	}{
		{"unknown ticker", fmt.Errorf("ZZZ: %w", models.ErrUnknownTicker), true},
		{"malformed", &models.MalformedDataError{Source: "price", Field: "close"}, true},
		{"transient", errors.New("timeout"), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := newFakeMetrics()
			h := NewAnalysisRequestHandler("t", &recordingRunner{err: tc.err}, m)
			err := h.Handle(context.Background(), []byte(`{"ticker":"AAPL"}`))
			require.Error(t, err)
			assert.Equal(t, tc.permanent, isPermanent(err))
			assert.Equal(t, 1, m.errors["consumer_run"])
		})
	}
}
