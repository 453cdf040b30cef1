package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a required input is missing or empty.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownTicker is returned when a ticker cannot be resolved to a company.
	ErrUnknownTicker = errors.New("unknown ticker")
)

// MalformedDataError reports a contract violation by an external data collaborator:
// unparseable dates, non-numeric prices, unsorted or duplicated days.
type MalformedDataError struct {
	Source string
	Field  string
	Index  int
	Value  string
	Err    error
}

func (e *MalformedDataError) Error() string {
	msg := fmt.Sprintf("malformed %s data: field %s at %d", e.Source, e.Field, e.Index)
	if e.Value != "" {
		msg += fmt.Sprintf(" (%q)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedDataError) Unwrap() error { return e.Err }

// IsMalformed reports whether err carries a MalformedDataError.
func IsMalformed(err error) bool {
	var me *MalformedDataError
	return errors.As(err, &me)
}
