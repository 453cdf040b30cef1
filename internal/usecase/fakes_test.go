package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"EventPulse/internal/domain/models"
)

var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// weekdays returns n weekday trading days from Monday 2024-01-01 with closes 100, 101, ...
func weekdays(n int) []models.TradingDay {
	out := make([]models.TradingDay, 0, n)
	d := monday
	for len(out) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			c := decimal.NewFromInt(int64(100 + len(out)))
			out = append(out, models.TradingDay{Date: d, Open: c, High: c, Low: c, Close: c, Volume: 1000})
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}

func date(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeMetrics struct {
	mu      sync.Mutex
	runs    map[string]int
	errors  map[string]int
	events  int
	skipped int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{runs: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordRun(_, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[status]++
}

func (m *fakeMetrics) RecordEvents(_ string, events, skipped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events += events
	m.skipped += skipped
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type fakePrices struct {
	days  []models.TradingDay
	err   error
	calls int
}

func (f *fakePrices) DailyHistory(context.Context, string) ([]models.TradingDay, error) {
	f.calls++
	return f.days, f.err
}

type fakeResolver struct {
	ciks        map[string]string
	err         error
	invalidated int
}

func (f *fakeResolver) Resolve(_ context.Context, ticker string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	cik, ok := f.ciks[ticker]
	return cik, ok, nil
}

func (f *fakeResolver) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

type fakeFilings struct {
	filings []models.RawFiling
	err     error
	lastCIK string
}

func (f *fakeFilings) Filings(_ context.Context, cik string) ([]models.RawFiling, error) {
	f.lastCIK = cik
	return f.filings, f.err
}

type fakeStore struct {
	mu     sync.Mutex
	stored []*models.AnalysisResult
	err    error
	closed bool
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) Store(_ context.Context, res *models.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, res)
	return nil
}

func (s *fakeStore) Query(context.Context, string, time.Time, time.Time, int) ([]models.Reaction, error) {
	return nil, nil
}

func (s *fakeStore) Health(context.Context) error { return nil }

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.AnalysisResult
	err       error
	closed    bool
}

func (p *fakePublisher) Publish(_ context.Context, res *models.AnalysisResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, res)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type fakeSentiment struct {
	labels map[string]string
	err    error
	calls  int
	onCall func(n int)
}

func (f *fakeSentiment) Classify(_ context.Context, text string) (string, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall(f.calls)
	}
	if f.err != nil {
		return "", f.err
	}
	if l, ok := f.labels[text]; ok {
		return l, nil
	}
	return "Neutral", nil
}
