package models

import "time"

// RawFiling is a filing entry as returned by the filing source.
// An empty Description means the source had none.
type RawFiling struct {
	FormCode    string `json:"form_code"`
	FilingDate  string `json:"filing_date"` // YYYY-MM-DD
	Description string `json:"description,omitempty"`
	Accession   string `json:"accession,omitempty"`
	// Items are the 8-K item codes reported alongside the filing, e.g. "2.02".
	Items []string `json:"items,omitempty"`
}

// EventRecord is a classified disclosure event. One record per raw filing.
type EventRecord struct {
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	FormCode    string    `json:"form_code"`
	Sentiment   string    `json:"sentiment,omitempty"`
}
