package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingDay is one daily OHLCV observation supplied by a price source.
// Prices are scalar decimals; normalisation happens in the source client.
type TradingDay struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// DailyChange is a trading day annotated with its close-to-close move.
type DailyChange struct {
	Date      time.Time `json:"date"`
	Close     float64   `json:"close"`
	ChangePct float64   `json:"change_pct"`
	Volume    int64     `json:"volume"`
}
