package repository

// HorizonMode selects how a horizon offset is projected onto trading days.
type HorizonMode string

const (
	// HorizonCalendar adds h calendar days to the entry date and snaps forward.
	HorizonCalendar HorizonMode = "calendar"
	// HorizonTrading takes the trading day h positions after the entry.
	HorizonTrading HorizonMode = "trading"
)

// IsValidHorizonMode returns true if m is a supported mode.
func IsValidHorizonMode(m HorizonMode) bool {
	switch m {
	case HorizonCalendar, HorizonTrading:
		return true
	default:
		return false
	}
}

// DefaultHorizonMode returns the default mode.
func DefaultHorizonMode() HorizonMode { return HorizonCalendar }

// NormalizeHorizonMode converts raw string to a valid mode (or default).
func NormalizeHorizonMode(s string) HorizonMode {
	if s == "" {
		return DefaultHorizonMode()
	}
	m := HorizonMode(s)
	if IsValidHorizonMode(m) {
		return m
	}
	return DefaultHorizonMode()
}
