package models

import (
	"slices"
	"strings"
	"time"
)

// AttendanceState is the single record the pipeline threads through a tick
// and keeps across ticks of the same day.
type AttendanceState struct {
	// Date is the calendar day (YYYY-MM-DD) this state applies to.
	Date string `json:"date"`

	// Holiday and HolidayReason are set once per day by the holiday check.
	Holiday        bool   `json:"holiday"`
	HolidayReason  string `json:"holiday_reason,omitempty"`
	HolidayChecked bool   `json:"holiday_checked"`

	ClockInDone      bool   `json:"clock_in_done"`
	ClockInTime      string `json:"clock_in_time,omitempty"`
	LastClockOutTime string `json:"last_clock_out_time,omitempty"`

	// Working and RecentActivity are recomputed every tick.
	Working        bool        `json:"working"`
	RecentActivity []time.Time `json:"recent_activity,omitempty"`

	// Action is recomputed every tick.
	Action       Action `json:"action_taken,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewAttendanceState returns a fresh state for date.
func NewAttendanceState(date string) *AttendanceState {
	return &AttendanceState{Date: date}
}

// Reset wipes all daily fields and adopts date. Resetting twice with the same
// date leaves the state unchanged after the first call.
func (s *AttendanceState) Reset(date string) {
	*s = AttendanceState{Date: date}
}

// EnsureDate resets the state when date differs from the stored date and
// reports whether a reset happened.
func (s *AttendanceState) EnsureDate(date string) bool {
	if s.Date == date {
		return false
	}
	s.Reset(date)
	return true
}

// BeginTick clears the per-tick transient fields.
func (s *AttendanceState) BeginTick() {
	s.Working = false
	s.RecentActivity = nil
	s.Action = ActionNone
}

// Clone returns a deep copy.
func (s *AttendanceState) Clone() *AttendanceState {
	if s == nil {
		return nil
	}
	out := *s
	out.RecentActivity = slices.Clone(s.RecentActivity)
	return &out
}

// Validate checks the record's invariants.
func (s *AttendanceState) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(s.Date) == "" {
		validation.AddMessage("date", "date is required")
	} else if _, err := time.Parse(DateLayout, s.Date); err != nil {
		validation.AddMessage("date", "date must be YYYY-MM-DD")
	}
	if s.ClockInDone && s.ClockInTime == "" {
		validation.AddMessage("clock_in_time", "clock_in_time is required once clock-in is done")
	}
	if !s.Holiday && s.HolidayReason != "" {
		validation.AddMessage("holiday_reason", "holiday_reason is only set on holidays")
	}
	if s.Holiday && s.Action.IsStamp() {
		validation.AddMessage("action_taken", "no stamp may be taken on a holiday")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"clock_in_time", s.ClockInTime},
		{"last_clock_out_time", s.LastClockOutTime},
	} {
		if field.value == "" {
			continue
		}
		if _, err := ParseTimeOfDay(field.value); err != nil {
			validation.Add(field.name, err)
		}
	}
	return validation.Err()
}
