package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"EventPulse/internal/domain/models"
	domrepo "EventPulse/internal/domain/repository"
	"EventPulse/pkg/logger"
	"EventPulse/pkg/util"
)

// StudyDefaults are applied to requests that leave fields empty.
type StudyDefaults struct {
	Horizons     []int
	Duration     int
	LookbackDays int
	Exclusions   []string
}

// StudyParams describe one event study. Zero dates and an empty horizon list fall back to defaults.
type StudyParams struct {
	Ticker     string
	Start      time.Time
	End        time.Time
	Duration   int
	Horizons   []int
	Exclusions []string
}

// EventStudy resolves a ticker, loads prices and filings and runs the analyzer.
type EventStudy struct {
	prices   domrepo.PriceSource
	resolver domrepo.TickerResolver
	filings  domrepo.FilingSource
	analyzer *Analyzer
	sink     *ResultSink
	defaults StudyDefaults
	metrics  domrepo.Metrics
	log      *logger.Logger
	now      func() time.Time
}

func NewEventStudy(
	prices domrepo.PriceSource,
	resolver domrepo.TickerResolver,
	filings domrepo.FilingSource,
	analyzer *Analyzer,
	sink *ResultSink,
	defaults StudyDefaults,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *EventStudy {
	if log == nil {
		log = logger.Nop()
	}
	if defaults.Duration <= 0 {
		defaults.Duration = 30
	}
	if defaults.LookbackDays <= 0 {
		defaults.LookbackDays = 120
	}
	if len(defaults.Horizons) == 0 {
		defaults.Horizons = []int{1, 5}
	}
	return &EventStudy{
		prices:   prices,
		resolver: resolver,
		filings:  filings,
		analyzer: analyzer,
		sink:     sink,
		defaults: defaults,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// ParamsFromRequest converts a validated request into study params.
func ParamsFromRequest(req models.AnalyzeRequest) (StudyParams, error) {
	p := StudyParams{
		Ticker:   strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Duration: req.Duration,
	}
	if req.Start != "" {
		t, ok := util.ParseDate(req.Start)
		if !ok {
			return p, fmt.Errorf("start %q: %w", req.Start, models.ErrInvalidInput)
		}
		p.Start = t
	}
	if req.End != "" {
		t, ok := util.ParseDate(req.End)
		if !ok {
			return p, fmt.Errorf("end %q: %w", req.End, models.ErrInvalidInput)
		}
		p.End = t
	}
	if req.Horizons != "" {
		hs, err := util.ParseIntList(req.Horizons)
		if err != nil {
			return p, fmt.Errorf("horizons: %w", models.ErrInvalidInput)
		}
		for _, h := range hs {
			if h < 0 || h > 365 {
				return p, fmt.Errorf("horizon %d out of range: %w", h, models.ErrInvalidInput)
			}
		}
		p.Horizons = hs
	}
	return p, nil
}

// Resolve fills defaults: end is today, start is end minus the lookback,
// horizons are the configured ones plus the requested duration.
func (s *EventStudy) Resolve(p StudyParams) (StudyParams, []models.Horizon) {
	if p.End.IsZero() {
		p.End = util.TruncateDay(s.now())
	}
	if p.Start.IsZero() {
		p.Start = util.TruncateDay(p.End).AddDate(0, 0, -s.defaults.LookbackDays)
	}
	p.Start, p.End = util.AlignFromTo(p.Start, p.End)
	if p.Duration <= 0 {
		p.Duration = s.defaults.Duration
	}
	if p.Exclusions == nil && s.defaults.Exclusions != nil {
		p.Exclusions = s.defaults.Exclusions
	}

	raw := p.Horizons
	if len(raw) == 0 {
		raw = append(append([]int{}, s.defaults.Horizons...), p.Duration)
	}
	hs := make([]models.Horizon, 0, len(raw))
	for _, h := range raw {
		hs = append(hs, models.Horizon(h))
	}
	return p, models.SortHorizons(hs)
}

// Run executes the study. An unresolvable ticker is models.ErrUnknownTicker.
func (s *EventStudy) Run(ctx context.Context, p StudyParams) (*models.AnalysisResult, error) {
	if strings.TrimSpace(p.Ticker) == "" {
		return nil, fmt.Errorf("ticker: %w", models.ErrInvalidInput)
	}
	p.Ticker = strings.ToUpper(strings.TrimSpace(p.Ticker))
	p, horizons := s.Resolve(p)

	cik, ok, err := s.resolver.Resolve(ctx, p.Ticker)
	if err != nil {
		s.recordError("resolve")
		return nil, fmt.Errorf("resolve %s: %w", p.Ticker, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", p.Ticker, models.ErrUnknownTicker)
	}

	var (
		days    []models.TradingDay
		filings []models.RawFiling
	)
	fetchStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if days, err = s.prices.DailyHistory(gctx, p.Ticker); err != nil {
			s.recordError("prices")
			return fmt.Errorf("prices %s: %w", p.Ticker, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if filings, err = s.filings.Filings(gctx, cik); err != nil {
			s.recordError("filings")
			return fmt.Errorf("filings %s: %w", p.Ticker, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordLatency("fetch", time.Since(fetchStart).Seconds())
	}

	res, err := s.analyzer.Analyze(ctx, AnalyzeInput{
		Ticker:      p.Ticker,
		TradingDays: days,
		Filings:     filings,
		Exclusions:  p.Exclusions,
		Horizons:    horizons,
		From:        p.Start,
		To:          p.End,
	})
	if err != nil {
		return nil, err
	}

	if s.sink.Enabled() {
		if err := s.sink.Process(ctx, res); err != nil {
			s.log.Error("deliver analysis result", logger.String("run_id", res.RunID), logger.Error(err))
		}
	}
	return res, nil
}

// Invalidate drops the ticker map so the next run reloads it.
func (s *EventStudy) Invalidate(ctx context.Context) error {
	return s.resolver.Invalidate(ctx)
}

func (s *EventStudy) recordError(kind string) {
	if s.metrics != nil {
		s.metrics.RecordError(kind)
	}
}
