package reaction

import (
	"time"

	"github.com/shopspring/decimal"

	"EventPulse/internal/domain/models"
	"EventPulse/internal/domain/repository"
	"EventPulse/internal/services/calendar"
)

// DefaultVolumeWindow is the number of trading days averaged for the volume ratio.
const DefaultVolumeWindow = 10

var hundred = decimal.NewFromInt(100)

// Computer aligns events to trading days and measures forward returns.
// The zero value uses calendar-day horizons and a 10-day volume window.
type Computer struct {
	Mode         repository.HorizonMode
	VolumeWindow int
}

// NewComputer returns a Computer for mode with the default volume window.
func NewComputer(mode repository.HorizonMode) Computer {
	return Computer{Mode: repository.NormalizeHorizonMode(string(mode)), VolumeWindow: DefaultVolumeWindow}
}

// Compute returns the reaction to event, or false when no trading day on or
// after the event date is loaded. Missing future data yields nil returns, never an error.
func (c Computer) Compute(event models.EventRecord, idx *calendar.Index, horizons []models.Horizon) (models.Reaction, bool) {
	if idx == nil {
		return models.Reaction{}, false
	}
	pos := idx.IndexOf(event.Date)
	if pos < 0 {
		return models.Reaction{}, false
	}
	entry := idx.At(pos)

	window := c.VolumeWindow
	if window <= 0 {
		window = DefaultVolumeWindow
	}

	returns := make(map[models.Horizon]*float64, len(horizons))
	for _, h := range horizons {
		target, ok := c.target(idx, pos, entry.Date, h)
		if !ok {
			returns[h] = nil
			continue
		}
		v := pctChange(entry.Close, target.Close)
		returns[h] = &v
	}

	return models.Reaction{
		EventDate:   event.Date,
		Category:    event.Category,
		Description: event.Description,
		Sentiment:   event.Sentiment,
		EntryDate:   entry.Date,
		EntryClose:  entry.Close.InexactFloat64(),
		VolumeRatio: volumeRatio(entry.Volume, idx.TrailingWindow(entry.Date, window)),
		Returns:     returns,
	}, true
}

func (c Computer) target(idx *calendar.Index, pos int, entryDate time.Time, h models.Horizon) (models.TradingDay, bool) {
	if c.Mode == repository.HorizonTrading {
		i := pos + int(h)
		if i >= idx.Len() {
			return models.TradingDay{}, false
		}
		return idx.At(i), true
	}
	// snap forward only
	return idx.FirstOnOrAfter(entryDate.AddDate(0, 0, int(h)))
}

func pctChange(from, to decimal.Decimal) float64 {
	return to.Sub(from).Div(from).Mul(hundred).Round(2).InexactFloat64()
}

func volumeRatio(entry int64, window []models.TradingDay) float64 {
	if len(window) == 0 {
		return 1.0
	}
	var sum int64
	for _, d := range window {
		sum += d.Volume
	}
	if sum == 0 {
		return 1.0
	}
	// entry / (sum/n) == entry*n / sum
	num := decimal.NewFromInt(entry).Mul(decimal.NewFromInt(int64(len(window))))
	return num.Div(decimal.NewFromInt(sum)).Round(2).InexactFloat64()
}
