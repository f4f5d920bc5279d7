// Package models defines the core domain entities for the calendarbot application.
// An Event is one row of the economic calendar: a scheduled data release with its
// country, importance and the actual/forecast/previous figures the source shows.
//
// Events are rebuilt from a live fetch on every invocation; nothing here is persisted.
package models

import (
	"errors"
	"strings"
	"time"
)

// Placeholder is the display value of an absent figure
const Placeholder = "-"

// MaxImportance is the highest importance level the source encodes
const MaxImportance = 3

// Event represents a single economic calendar entry.
//
// Time is the zero value when the source row carries no usable datetime; Date is then
// empty and Clock holds whatever time text the source displayed ("All Day", "Tentative").
type Event struct {
	RowID      string    `json:"row_id"`
	Time       time.Time `json:"time"`
	Date       string    `json:"date,omitempty"` // YYYY-MM-DD in the target zone
	Clock      string    `json:"clock"`          // HH:MM in the target zone, or raw source text
	Country    string    `json:"country"`
	Name       string    `json:"name"`
	Importance int       `json:"importance"` // 0 = unknown
	Actual     string    `json:"actual"`
	Forecast   string    `json:"forecast"`
	Previous   string    `json:"previous"`
}

// HasTime reports whether the event carries a parsed start time
func (e *Event) HasTime() bool {
	return !e.Time.IsZero()
}

// Validate checks that all event fields are valid
func (e *Event) Validate() error {
	if e.RowID == "" {
		return errors.New("row ID must not be empty")
	}
	if e.Importance < 0 || e.Importance > MaxImportance {
		return errors.New("importance must be between 0 and 3")
	}
	if e.HasTime() && e.Date == "" {
		return errors.New("date must be set when time is known")
	}
	return nil
}

// DisplayValue normalizes a figure for display: empty, blank and a lone
// non-breaking space become Placeholder, anything else passes through.
func DisplayValue(v string) string {
	// TrimSpace also strips U+00A0
	if strings.TrimSpace(v) == "" {
		return Placeholder
	}
	return v
}

// IsPlaceholder reports whether a figure renders as Placeholder
func IsPlaceholder(v string) bool {
	return DisplayValue(v) == Placeholder
}
