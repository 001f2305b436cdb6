package models

import "time"

// EventType categorizes tick events.
type EventType string

const (
	EventTypeTickCompleted  EventType = "tick.completed"
	EventTypeTickSkipped    EventType = "tick.skipped"
	EventTypeTickPanicked   EventType = "tick.panicked"
	EventTypeStampSucceeded EventType = "stamp.succeeded"
	EventTypeStampFailed    EventType = "stamp.failed"
	EventTypeDayRolledOver  EventType = "day.rolled_over"
)

// Event is an in-process notification about a tick.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`

	// TickID correlates events with tick log lines.
	TickID string `json:"tick_id"`

	Action  Action `json:"action,omitempty"`
	Step    string `json:"step,omitempty"`
	Message string `json:"message,omitempty"`
}
