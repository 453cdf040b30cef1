package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventPulse/internal/domain/models"
	"EventPulse/internal/domain/repository"
	"EventPulse/internal/services/classifier"
	"EventPulse/internal/services/reaction"
)

func newTestAnalyzer(m *fakeMetrics, opts ...AnalyzerOption) *Analyzer {
	var metrics repository.Metrics
	if m != nil {
		metrics = m
	}
	return NewAnalyzer(classifier.New(nil), reaction.NewComputer(repository.HorizonCalendar), metrics, nil, opts...)
}

func scenarioFilings() []models.RawFiling {
	return []models.RawFiling{
		{FormCode: "10-Q", FilingDate: "2024-01-08", Description: "Quarterly report"},
		// Saturday, snaps to Monday 2024-01-08
		{FormCode: "8-K", FilingDate: "2024-01-06", Description: "Item 2.02 Results of Operations"},
		{FormCode: "4", FilingDate: "2024-01-10"},
		{FormCode: "10-Q", FilingDate: "2024-02-08", Description: "Quarterly report"},
		// after the last loaded day
		{FormCode: "10-K", FilingDate: "2024-02-12", Description: "Annual report"},
	}
}

func TestAnalyzeScenario(t *testing.T) {
	m := newFakeMetrics()
	a := newTestAnalyzer(m)

	res, err := a.Analyze(context.Background(), AnalyzeInput{
		Ticker:      "acme",
		TradingDays: weekdays(30),
		Filings:     scenarioFilings(),
		Horizons:    []models.Horizon{5, 1, 5},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusOK, res.Status)
	assert.Equal(t, "ACME", res.Ticker)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []models.Horizon{1, 5}, res.Horizons)
	assert.Equal(t, 4, res.Events, "insider filing is excluded before counting")
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Reactions, 3)

	// sorted by event date, then category
	assert.Equal(t, date(1, 6), res.Reactions[0].EventDate)
	assert.Equal(t, "Material Event: Earnings Release", res.Reactions[0].Category)
	assert.Equal(t, date(1, 8), res.Reactions[0].EntryDate)
	assert.Equal(t, date(1, 8), res.Reactions[1].EventDate)
	assert.Equal(t, "Quarterly Financial Report", res.Reactions[1].Category)

	r1, ok := res.Reactions[0].Return(1)
	require.True(t, ok)
	assert.Equal(t, 0.95, r1)
	r5, ok := res.Reactions[0].Return(5)
	require.True(t, ok)
	assert.Equal(t, 4.76, r5)

	last := res.Reactions[2]
	v, ok := last.Return(1)
	require.True(t, ok)
	assert.Equal(t, 0.78, v)
	_, ok = last.Return(5)
	assert.False(t, ok, "no trading day 5 calendar days after the last filing")

	require.Len(t, res.Aggregates, 4)
	q := res.Aggregates[2]
	assert.Equal(t, "Quarterly Financial Report", q.Category)
	assert.Equal(t, models.Horizon(1), q.Horizon)
	assert.Equal(t, 2, q.Count)
	assert.InDelta(t, 0.865, q.Mean, 1e-9)
	assert.Equal(t, 1, res.Aggregates[3].Count)

	require.Len(t, res.Extremes, 2)
	assert.Equal(t, "Material Event: Earnings Release", res.Extremes[0].BestCategory)
	assert.Equal(t, "Quarterly Financial Report", res.Extremes[0].WorstCategory)

	require.Len(t, res.Recent, 10)
	assert.Equal(t, date(2, 9), res.Recent[9].Date)

	assert.Equal(t, 1, m.runs["ok"])
	assert.Equal(t, 1, m.skipped)
}

func TestAnalyzeNoPrices(t *testing.T) {
	m := newFakeMetrics()
	res, err := newTestAnalyzer(m).Analyze(context.Background(), AnalyzeInput{
		Ticker:   "ACME",
		Filings:  scenarioFilings(),
		Horizons: []models.Horizon{1},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoData, res.Status)
	assert.Empty(t, res.Reactions)
	assert.Empty(t, res.Aggregates)
	assert.Equal(t, 1, m.runs["no_data"])
}

func TestAnalyzeNoEventsAfterFiltering(t *testing.T) {
	res, err := newTestAnalyzer(newFakeMetrics()).Analyze(context.Background(), AnalyzeInput{
		Ticker:      "ACME",
		TradingDays: weekdays(10),
		Filings: []models.RawFiling{
			{FormCode: "4", FilingDate: "2024-01-03"},
			{FormCode: "10-Q", FilingDate: "2023-06-01"},
		},
		Horizons: []models.Horizon{1},
		From:     date(1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoEvents, res.Status)
	assert.Zero(t, res.Events)
	assert.NotEmpty(t, res.Recent)
}

func TestAnalyzeRespectsDateRange(t *testing.T) {
	res, err := newTestAnalyzer(newFakeMetrics()).Analyze(context.Background(), AnalyzeInput{
		Ticker:      "ACME",
		TradingDays: weekdays(30),
		Filings:     scenarioFilings(),
		Horizons:    []models.Horizon{1},
		From:        date(1, 7),
		To:          date(1, 31),
	})
	require.NoError(t, err)
	require.Len(t, res.Reactions, 1)
	assert.Equal(t, "Quarterly Financial Report", res.Reactions[0].Category)
	assert.Equal(t, date(1, 8), res.Reactions[0].EventDate)
}

func TestAnalyzeMalformedPrices(t *testing.T) {
	days := weekdays(5)
	days[2].Close = decimal.Zero
	m := newFakeMetrics()

	_, err := newTestAnalyzer(m).Analyze(context.Background(), AnalyzeInput{
		Ticker:      "ACME",
		TradingDays: days,
		Filings:     scenarioFilings(),
		Horizons:    []models.Horizon{1},
	})
	require.Error(t, err)
	assert.True(t, models.IsMalformed(err))
	assert.Equal(t, 1, m.errors["malformed_prices"])
}

func TestAnalyzeMalformedFilingDate(t *testing.T) {
	_, err := newTestAnalyzer(newFakeMetrics()).Analyze(context.Background(), AnalyzeInput{
		Ticker:      "ACME",
		TradingDays: weekdays(5),
		Filings:     []models.RawFiling{{FormCode: "10-Q", FilingDate: "Jan 3rd"}},
		Horizons:    []models.Horizon{1},
	})
	var me *models.MalformedDataError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "filing", me.Source)
}

func TestAnalyzeRequiresHorizons(t *testing.T) {
	_, err := newTestAnalyzer(nil).Analyze(context.Background(), AnalyzeInput{
		Ticker:      "ACME",
		TradingDays: weekdays(5),
		Horizons:    []models.Horizon{-1, -3},
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestAnalyzeExclusionOverride(t *testing.T) {
	res, err := newTestAnalyzer(nil).Analyze(context.Background(), AnalyzeInput{
		Ticker:      "ACME",
		TradingDays: weekdays(30),
		Filings:     scenarioFilings(),
		Horizons:    []models.Horizon{1},
		Exclusions:  []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Events)
	var cats []string
	for _, r := range res.Reactions {
		cats = append(cats, r.Category)
	}
	assert.Contains(t, cats, "Insider Trading")
}

func TestAnalyzeSentimentLabels(t *testing.T) {
	s := &fakeSentiment{labels: map[string]string{"Item 2.02 Results of Operations": "Positive"}}
	res, err := newTestAnalyzer(nil, WithSentiment(s)).Analyze(context.Background(), AnalyzeInput{
		Ticker:      "ACME",
		TradingDays: weekdays(30),
		Filings:     scenarioFilings(),
		Horizons:    []models.Horizon{1},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, s.calls)
	assert.Equal(t, "Positive", res.Reactions[0].Sentiment)
	assert.Equal(t, "Neutral", res.Reactions[1].Sentiment)
}

func TestAnalyzeSentimentFailureDoesNotChangeNumbers(t *testing.T) {
	in := AnalyzeInput{
		Ticker:      "ACME",
		TradingDays: weekdays(30),
		Filings:     scenarioFilings(),
		Horizons:    []models.Horizon{1, 5},
	}
	plain, err := newTestAnalyzer(nil).Analyze(context.Background(), in)
	require.NoError(t, err)

	m := newFakeMetrics()
	broken := &fakeSentiment{err: errors.New("upstream down")}
	labelled, err := newTestAnalyzer(m, WithSentiment(broken)).Analyze(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, labelled.Reactions, len(plain.Reactions))
	for i := range plain.Reactions {
		assert.Equal(t, "Error", labelled.Reactions[i].Sentiment)
		assert.Equal(t, plain.Reactions[i].Returns, labelled.Reactions[i].Returns)
		assert.Equal(t, plain.Reactions[i].VolumeRatio, labelled.Reactions[i].VolumeRatio)
	}
	assert.Equal(t, plain.Aggregates, labelled.Aggregates)
	assert.Equal(t, 1, m.errors["sentiment_label"])
}

func TestAnalyzeCancelledBetweenLabels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &fakeSentiment{onCall: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	res, err := newTestAnalyzer(nil, WithSentiment(s)).Analyze(ctx, AnalyzeInput{
		Ticker:      "ACME",
		TradingDays: weekdays(30),
		Filings:     scenarioFilings(),
		Horizons:    []models.Horizon{1},
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, s.calls)
}

func TestAnalyzeWorkerCountDoesNotChangeOutput(t *testing.T) {
	fixed := func() time.Time { return date(3, 1) }
	in := AnalyzeInput{
		Ticker:      "ACME",
		TradingDays: weekdays(30),
		Filings:     scenarioFilings(),
		Horizons:    []models.Horizon{1, 5, 30},
	}
	one, err := newTestAnalyzer(nil, WithWorkers(1), WithClock(fixed)).Analyze(context.Background(), in)
	require.NoError(t, err)
	many, err := newTestAnalyzer(nil, WithWorkers(16), WithClock(fixed)).Analyze(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, one.Reactions, many.Reactions)
	assert.Equal(t, one.Aggregates, many.Aggregates)
	assert.Equal(t, one.Extremes, many.Extremes)
}
