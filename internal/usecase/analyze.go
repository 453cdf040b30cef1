package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"EventPulse/internal/domain/models"
	domrepo "EventPulse/internal/domain/repository"
	domsvc "EventPulse/internal/domain/service"
	"EventPulse/internal/services/calendar"
	"EventPulse/internal/services/classifier"
	"EventPulse/internal/services/features"
	"EventPulse/internal/services/reaction"
	"EventPulse/pkg/logger"
)

const (
	defaultWorkers    = 4
	defaultRecentDays = 10
)

// AnalyzeInput is everything one run needs; all I/O has happened before it is built.
// A nil Exclusions uses the analyzer's configured set, an empty non-nil one excludes nothing.
type AnalyzeInput struct {
	Ticker      string
	TradingDays []models.TradingDay
	Filings     []models.RawFiling
	Exclusions  []string
	Horizons    []models.Horizon
	From        time.Time
	To          time.Time
}

// Analyzer aligns filings to price history and aggregates the reactions per category.
type Analyzer struct {
	classifier *classifier.Classifier
	computer   reaction.Computer
	sentiment  domsvc.SentimentClassifier
	metrics    domrepo.Metrics
	log        *logger.Logger
	workers    int
	recentDays int
	now        func() time.Time
}

type AnalyzerOption func(*Analyzer)

// WithSentiment labels event descriptions before computing reactions.
func WithSentiment(s domsvc.SentimentClassifier) AnalyzerOption {
	return func(a *Analyzer) { a.sentiment = s }
}

func WithWorkers(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithRecentDays sets how many trailing days go into the recent activity summary.
func WithRecentDays(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.recentDays = n
		}
	}
}

func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

func NewAnalyzer(cls *classifier.Classifier, comp reaction.Computer, metrics domrepo.Metrics, log *logger.Logger, opts ...AnalyzerOption) *Analyzer {
	if cls == nil {
		cls = classifier.New(nil)
	}
	if log == nil {
		log = logger.Nop()
	}
	a := &Analyzer{
		classifier: cls,
		computer:   comp,
		metrics:    metrics,
		log:        log,
		workers:    defaultWorkers,
		recentDays: defaultRecentDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs one analysis. Missing prices or events give a result with a
// no_data / no_events status and nil error; malformed collaborator data is an error.
func (a *Analyzer) Analyze(ctx context.Context, in AnalyzeInput) (*models.AnalysisResult, error) {
	start := time.Now()
	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker: %w", models.ErrInvalidInput)
	}
	horizons := models.SortHorizons(in.Horizons)
	if len(horizons) == 0 {
		return nil, fmt.Errorf("horizons: %w", models.ErrInvalidInput)
	}

	res := &models.AnalysisResult{
		RunID:      uuid.NewString(),
		Ticker:     ticker,
		From:       in.From,
		To:         in.To,
		Horizons:   horizons,
		Reactions:  []models.Reaction{},
		Aggregates: []models.AggregateRow{},
		CreatedAt:  a.now().UTC(),
	}

	if len(in.TradingDays) == 0 {
		res.Status = models.StatusNoData
		a.finish(res, start)
		return res, nil
	}
	idx, err := calendar.New(in.TradingDays)
	if err != nil {
		a.recordError("malformed_prices")
		return nil, fmt.Errorf("price index %s: %w", ticker, err)
	}
	res.Recent = features.DailyChanges(idx.Last(a.recentDays))

	cls := a.classifier
	if in.Exclusions != nil {
		cls = classifier.New(in.Exclusions)
	}
	events, err := cls.ToEvents(in.Filings, in.From, in.To)
	if err != nil {
		a.recordError("malformed_filings")
		return nil, fmt.Errorf("classify filings %s: %w", ticker, err)
	}
	res.Events = len(events)
	if len(events) == 0 {
		res.Status = models.StatusNoEvents
		a.finish(res, start)
		return res, nil
	}

	if err := a.label(ctx, events); err != nil {
		return nil, err
	}

	reactions, err := a.computeAll(ctx, events, idx, horizons)
	if err != nil {
		return nil, err
	}
	sortReactions(reactions)

	res.Reactions = reactions
	res.Skipped = len(events) - len(reactions)
	res.Aggregates = reaction.Aggregate(reactions)
	res.Extremes = reaction.AllExtremes(res.Aggregates, horizons)
	res.Status = models.StatusOK
	a.finish(res, start)
	return res, nil
}

// label annotates events in order. A failing labeller marks the event with the
// error sentinel; only cancellation stops the run.
func (a *Analyzer) label(ctx context.Context, events []models.EventRecord) error {
	if a.sentiment == nil {
		return nil
	}
	t0 := time.Now()
	failed := 0
	for i := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		label, err := a.sentiment.Classify(ctx, events[i].Description)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			events[i].Sentiment = domsvc.SentimentError
			continue
		}
		events[i].Sentiment = label
	}
	if failed > 0 {
		a.recordError("sentiment_label")
		a.log.Warn("sentiment labelling degraded", logger.Int("failed", failed), logger.Int("events", len(events)))
	}
	a.recordLatency("sentiment", time.Since(t0))
	return nil
}

func (a *Analyzer) computeAll(ctx context.Context, events []models.EventRecord, idx *calendar.Index, horizons []models.Horizon) ([]models.Reaction, error) {
	t0 := time.Now()
	slots := make([]*models.Reaction, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if r, ok := a.computer.Compute(events[i], idx, horizons); ok {
				slots[i] = &r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Reaction, 0, len(events))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	a.recordLatency("compute", time.Since(t0))
	return out, nil
}

func sortReactions(rs []models.Reaction) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].EventDate.Equal(rs[j].EventDate) {
			return rs[i].EventDate.Before(rs[j].EventDate)
		}
		return rs[i].Category < rs[j].Category
	})
}

func (a *Analyzer) finish(res *models.AnalysisResult, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordRun(res.Ticker, string(res.Status))
		a.metrics.RecordEvents(res.Ticker, res.Events, res.Skipped)
	}
	a.recordLatency("analyze", time.Since(start))
	a.log.Info("analysis finished",
		logger.String("run_id", res.RunID),
		logger.String("ticker", res.Ticker),
		logger.String("status", string(res.Status)),
		logger.Int("events", res.Events),
		logger.Int("reactions", len(res.Reactions)),
		logger.Int("skipped", res.Skipped),
		logger.Duration("took", time.Since(start)),
	)
}

func (a *Analyzer) recordError(kind string) {
	if a.metrics != nil {
		a.metrics.RecordError(kind)
	}
}

func (a *Analyzer) recordLatency(stage string, d time.Duration) {
	if a.metrics != nil {
		a.metrics.RecordLatency(stage, d.Seconds())
	}
}
