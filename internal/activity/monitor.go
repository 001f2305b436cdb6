// Package activity records operator input events and answers whether the
// operator is currently working.
package activity

import (
	"sync"
	"time"
)

// DefaultDedupWindow collapses bursts of input into one event.
const DefaultDedupWindow = time.Second

// Monitor keeps a rolling, time-ordered log of input events.
type Monitor struct {
	mu     sync.Mutex
	events []time.Time
	dedup  time.Duration
	now    func() time.Time
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithClock overrides the monitor's time source.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithDedupWindow sets the minimum spacing between recorded events.
// Zero records every event.
func WithDedupWindow(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.dedup = d
	}
}

// NewMonitor creates an empty Monitor.
func NewMonitor(opts ...MonitorOption) *Monitor {
	m := &Monitor{
		dedup: DefaultDedupWindow,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record adds an event at the given time. Events closer than the dedup
// window to the latest event, or older than it, are dropped.
func (m *Monitor) Record(at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.events); n > 0 {
		last := m.events[n-1]
		if !at.After(last) || at.Sub(last) < m.dedup {
			return false
		}
	}
	m.events = append(m.events, at)
	return true
}

// RecordNow adds an event at the current time.
func (m *Monitor) RecordNow() bool {
	return m.Record(m.now())
}

// RecentEvents returns the events strictly inside the trailing window,
// oldest first.
func (m *Monitor) RecentEvents(window time.Duration) []time.Time {
	cutoff := m.now().Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []time.Time
	for _, e := range m.events {
		if e.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// IsWorking reports whether at least minCount events fall in the window.
func (m *Monitor) IsWorking(window time.Duration, minCount int) bool {
	return len(m.RecentEvents(window)) >= minCount
}

// Purge drops events older than retention and returns how many were removed.
func (m *Monitor) Purge(retention time.Duration) int {
	cutoff := m.now().Add(-retention)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.events[:0]
	for _, e := range m.events {
		if e.After(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(m.events) - len(kept)
	m.events = kept
	return removed
}

// Len returns the number of retained events.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
