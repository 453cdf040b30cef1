package features

import (
	"github.com/shopspring/decimal"

	"EventPulse/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// DailyChanges annotates days with their close-to-close percent change.
// The first day has no predecessor inside the slice and reports 0.
func DailyChanges(days []models.TradingDay) []models.DailyChange {
	if len(days) == 0 {
		return nil
	}
	out := make([]models.DailyChange, 0, len(days))
	for i, d := range days {
		chg := 0.0
		if i > 0 {
			prev := days[i-1].Close
			if prev.IsPositive() {
				chg = d.Close.Sub(prev).Div(prev).Mul(hundred).Round(2).InexactFloat64()
			}
		}
		out = append(out, models.DailyChange{
			Date:      d.Date,
			Close:     d.Close.InexactFloat64(),
			ChangePct: chg,
			Volume:    d.Volume,
		})
	}
	return out
}
