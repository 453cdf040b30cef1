package calendar

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"EventPulse/internal/domain/models"
	"EventPulse/pkg/util"
)

// Index is an immutable, ascending sequence of trading days with date lookups.
// It is safe for concurrent readers.
type Index struct {
	days []models.TradingDay
}

// New validates days and builds an Index. Dates are normalised to UTC midnight.
// Empty input returns models.ErrInvalidInput; ordering or value violations return
// *models.MalformedDataError.
func New(days []models.TradingDay) (*Index, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("calendar: no trading days: %w", models.ErrInvalidInput)
	}
	out := make([]models.TradingDay, len(days))
	for i, d := range days {
		if d.Date.IsZero() {
			return nil, &models.MalformedDataError{Source: "price", Field: "date", Index: i}
		}
		d.Date = util.TruncateDay(d.Date)
		if !d.Close.IsPositive() {
			return nil, &models.MalformedDataError{Source: "price", Field: "close", Index: i, Value: d.Close.String()}
		}
		if d.Volume < 0 {
			return nil, &models.MalformedDataError{Source: "price", Field: "volume", Index: i, Value: strconv.FormatInt(d.Volume, 10)}
		}
		if i > 0 && !d.Date.After(out[i-1].Date) {
			return nil, &models.MalformedDataError{
				Source: "price",
				Field:  "date",
				Index:  i,
				Value:  util.FormatDate(d.Date),
				Err:    fmt.Errorf("not after %s", util.FormatDate(out[i-1].Date)),
			}
		}
		out[i] = d
	}
	return &Index{days: out}, nil
}

// Len returns the number of trading days.
func (x *Index) Len() int { return len(x.days) }

// At returns the i-th trading day.
func (x *Index) At(i int) models.TradingDay { return x.days[i] }

// search returns the position of the first day on or after date.
func (x *Index) search(date time.Time) int {
	date = util.TruncateDay(date)
	return sort.Search(len(x.days), func(i int) bool { return !x.days[i].Date.Before(date) })
}

// FirstOnOrAfter returns the earliest trading day with date' >= date.
func (x *Index) FirstOnOrAfter(date time.Time) (models.TradingDay, bool) {
	i := x.search(date)
	if i >= len(x.days) {
		return models.TradingDay{}, false
	}
	return x.days[i], true
}

// IndexOf returns the position of the first trading day on or after date, or -1.
func (x *Index) IndexOf(date time.Time) int {
	i := x.search(date)
	if i >= len(x.days) {
		return -1
	}
	return i
}

// TrailingWindow returns up to size days strictly before `before`, ascending.
// Near the start of the series fewer (possibly zero) days are returned.
func (x *Index) TrailingWindow(before time.Time, size int) []models.TradingDay {
	if size <= 0 {
		return nil
	}
	end := x.search(before)
	start := end - size
	if start < 0 {
		start = 0
	}
	return x.days[start:end]
}

// Last returns up to n most recent trading days, ascending.
func (x *Index) Last(n int) []models.TradingDay {
	if n <= 0 {
		return nil
	}
	if n > len(x.days) {
		n = len(x.days)
	}
	return x.days[len(x.days)-n:]
}

// Range returns the days within [from, to], ascending. Zero bounds are open.
func (x *Index) Range(from, to time.Time) []models.TradingDay {
	start := 0
	if !from.IsZero() {
		start = x.search(from)
	}
	end := len(x.days)
	if !to.IsZero() {
		end = x.search(util.TruncateDay(to).AddDate(0, 0, 1))
	}
	if start >= end {
		return nil
	}
	return x.days[start:end]
}
