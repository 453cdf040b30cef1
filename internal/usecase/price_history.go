package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"EventPulse/internal/domain/models"
	domrepo "EventPulse/internal/domain/repository"
	"EventPulse/internal/services/calendar"
	"EventPulse/internal/services/features"
)

// PriceHistoryUseCase serves the loaded trading days of a ticker.
type PriceHistoryUseCase struct {
	prices domrepo.PriceSource
}

func NewPriceHistoryUseCase(prices domrepo.PriceSource) *PriceHistoryUseCase {
	return &PriceHistoryUseCase{prices: prices}
}

type GetPricesParams struct {
	Ticker string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetPricesResult struct {
	Ticker string               `json:"ticker"`
	From   time.Time            `json:"from"`
	To     time.Time            `json:"to"`
	Count  int                  `json:"count"`
	Days   []models.DailyChange `json:"days"`
}

func (uc *PriceHistoryUseCase) GetPrices(ctx context.Context, p GetPricesParams) (*GetPricesResult, error) {
	p.Ticker = strings.ToUpper(strings.TrimSpace(p.Ticker))
	if p.Ticker == "" {
		return nil, fmt.Errorf("ticker: %w", models.ErrInvalidInput)
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to: %w", models.ErrInvalidInput)
	}
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	days, err := uc.prices.DailyHistory(ctx, p.Ticker)
	if err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}
	out := &GetPricesResult{Ticker: p.Ticker, From: p.From, To: p.To, Days: []models.DailyChange{}}
	if len(days) == 0 {
		return out, nil
	}
	idx, err := calendar.New(days)
	if err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}

	window := idx.Range(p.From, p.To)
	// keep the most recent days when the range exceeds the limit
	if len(window) > p.Limit {
		window = window[len(window)-p.Limit:]
	}
	out.Days = features.DailyChanges(window)
	out.Count = len(out.Days)
	return out, nil
}
