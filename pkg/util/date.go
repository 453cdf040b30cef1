package util

import (
	"strconv"
	"time"
)

// DateLayout is the YYYY-MM-DD layout used by filings and price providers.
const DateLayout = "2006-01-02"

// ParseDate tries YYYY-MM-DD, RFC3339 and unix seconds. The result is truncated to UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return TruncateDay(t), true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return TruncateDay(time.Unix(ts, 0)), true
	}
	return time.Time{}, false
}

// ParseDateDefault parses a date or returns def if empty/invalid.
func ParseDateDefault(s string, def time.Time) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return def
}

// TruncateDay returns t's calendar day at UTC midnight.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AlignFromTo normalises a date range to day boundaries and swaps inverted bounds.
func AlignFromTo(from, to time.Time) (time.Time, time.Time) {
	from, to = TruncateDay(from), TruncateDay(to)
	if to.Before(from) {
		from, to = to, from
	}
	return from, to
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.UTC().Format(DateLayout) }
