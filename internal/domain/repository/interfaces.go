package repository

import (
	"context"
	"time"

	"EventPulse/internal/domain/models"
)

// PriceSource returns the daily price history of a ticker, ascending by date.
// An unknown ticker or a throttled provider yields an empty slice and nil error.
type PriceSource interface {
	DailyHistory(ctx context.Context, ticker string) ([]models.TradingDay, error)
}

// TickerResolver maps a ticker to a company identifier (SEC CIK).
type TickerResolver interface {
	Resolve(ctx context.Context, ticker string) (cik string, ok bool, err error)
	Invalidate(ctx context.Context) error
}

// FilingSource returns raw filings for a resolved company identifier.
type FilingSource interface {
	Filings(ctx context.Context, cik string) ([]models.RawFiling, error)
}

type Publisher interface {
	Publish(ctx context.Context, res *models.AnalysisResult) error
	Close() error
}

type ReactionStore interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, res *models.AnalysisResult) error
	Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.Reaction, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordRun(ticker, status string)
	RecordEvents(ticker string, events, skipped int)
	RecordError(kind string)
	RecordLatency(stage string, seconds float64)
}
