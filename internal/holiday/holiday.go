// Package holiday decides whether a date is a non-working day.
package holiday

import (
	"context"
	"time"
)

// Source identifies which layer produced a holiday decision.
type Source string

const (
	SourceWeekend  Source = "weekend"
	SourceNational Source = "national"
	SourceCalendar Source = "calendar"
	SourceNone     Source = "none"
)

// Result is a holiday decision for a single date.
type Result struct {
	Holiday bool   `json:"holiday"`
	Reason  string `json:"reason,omitempty"`
	Source  Source `json:"source"`

	// Provisional marks a local answer given because the remote lookup
	// failed. Provisional results are never cached.
	Provisional bool `json:"provisional,omitempty"`
}

// Oracle reports whether date is a holiday and, if so, a human-readable reason.
// Oracles never fail: lookup errors degrade to a local answer.
type Oracle interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, string)
}

// Remote is a lookup that can fail, such as a hosted calendar.
type Remote interface {
	Lookup(ctx context.Context, date time.Time) (Result, error)
}

// DayBounds returns the start of date's day and the start of the next day in
// date's location.
func DayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}
