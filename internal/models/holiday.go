package models

import (
	"strings"
	"time"
)

// HolidayRecord is a cached holiday decision for one date.
type HolidayRecord struct {
	Date      string    `json:"date"`
	Holiday   bool      `json:"holiday"`
	Reason    string    `json:"reason,omitempty"`
	Source    string    `json:"source"`
	CheckedAt time.Time `json:"checked_at"`
}

// Validate checks the record before it is cached.
func (r *HolidayRecord) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(r.Date) == "" {
		validation.AddMessage("date", "date is required")
	} else if _, err := time.Parse(DateLayout, r.Date); err != nil {
		validation.AddMessage("date", "date must be YYYY-MM-DD")
	}
	if !r.Holiday && r.Reason != "" {
		validation.AddMessage("reason", "reason is only set on holidays")
	}
	if r.Source == "" {
		validation.AddMessage("source", "source is required")
	}
	return validation.Err()
}
