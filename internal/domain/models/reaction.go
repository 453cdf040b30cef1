package models

import (
	"sort"
	"time"
)

// Horizon is a forward offset in days at which a return is measured.
type Horizon int

// Reaction is the measured price/volume response to one event.
// A nil entry in Returns means no trading day was reachable for that horizon.
type Reaction struct {
	EventDate   time.Time            `json:"event_date"`
	Category    string               `json:"category"`
	Description string               `json:"description,omitempty"`
	Sentiment   string               `json:"sentiment,omitempty"`
	EntryDate   time.Time            `json:"entry_date"`
	EntryClose  float64              `json:"entry_close"`
	VolumeRatio float64              `json:"volume_ratio"`
	Returns     map[Horizon]*float64 `json:"returns"`
}

// Return reports the return for h and whether it is present.
func (r Reaction) Return(h Horizon) (float64, bool) {
	v, ok := r.Returns[h]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// AggregateRow is the mean return of one category at one horizon.
type AggregateRow struct {
	Category string  `json:"category"`
	Horizon  Horizon `json:"horizon"`
	Mean     float64 `json:"mean"`
	Count    int     `json:"count"`
}

// Extremes holds the best and worst categories for a horizon.
type Extremes struct {
	Horizon       Horizon `json:"horizon"`
	BestCategory  string  `json:"best_category"`
	BestValue     float64 `json:"best_value"`
	WorstCategory string  `json:"worst_category"`
	WorstValue    float64 `json:"worst_value"`
}

// AnalysisStatus distinguishes an empty run from a successful one.
type AnalysisStatus string

const (
	StatusOK       AnalysisStatus = "ok"
	StatusNoData   AnalysisStatus = "no_data"
	StatusNoEvents AnalysisStatus = "no_events"
)

// AnalysisResult is the output of one analysis run for one ticker.
type AnalysisResult struct {
	RunID      string         `json:"run_id"`
	Ticker     string         `json:"ticker"`
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Horizons   []Horizon      `json:"horizons"`
	Status     AnalysisStatus `json:"status"`
	Events     int            `json:"events"`
	Skipped    int            `json:"skipped"`
	Reactions  []Reaction     `json:"reactions"`
	Aggregates []AggregateRow `json:"aggregates"`
	Extremes   []Extremes     `json:"extremes,omitempty"`
	Recent     []DailyChange  `json:"recent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// SortHorizons returns a sorted, de-duplicated copy of hs with negative values removed.
// Horizon 0 measures the entry day itself.
func SortHorizons(hs []Horizon) []Horizon {
	seen := make(map[Horizon]struct{}, len(hs))
	out := make([]Horizon, 0, len(hs))
	for _, h := range hs {
		if h < 0 {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
