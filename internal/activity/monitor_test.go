package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestMonitor(start time.Time) (*Monitor, *fakeClock) {
	clock := &fakeClock{now: start}
	return NewMonitor(WithClock(clock.Now)), clock
}

func TestMonitorIsWorking(t *testing.T) {
	base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	m, clock := newTestMonitor(base)

	require.False(t, m.IsWorking(15*time.Minute, 2))

	m.Record(base.Add(-20 * time.Minute))
	m.Record(base.Add(-10 * time.Minute))
	require.False(t, m.IsWorking(15*time.Minute, 2), "old event must not count")

	m.Record(base.Add(-time.Minute))
	require.True(t, m.IsWorking(15*time.Minute, 2))

	clock.Advance(10 * time.Minute)
	require.False(t, m.IsWorking(15*time.Minute, 2))
	require.Len(t, m.RecentEvents(15*time.Minute), 1)
}

func TestMonitorDedup(t *testing.T) {
	base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	m, _ := newTestMonitor(base)

	require.True(t, m.Record(base))
	require.False(t, m.Record(base.Add(500*time.Millisecond)))
	require.False(t, m.Record(base.Add(-time.Second)), "out-of-order event")
	require.True(t, m.Record(base.Add(time.Second)))
	require.Equal(t, 2, m.Len())

	noDedup := NewMonitor(WithDedupWindow(0))
	require.True(t, noDedup.Record(base))
	require.True(t, noDedup.Record(base.Add(time.Millisecond)))
}

func TestMonitorRecentEventsOrdered(t *testing.T) {
	base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	m, _ := newTestMonitor(base)

	first := base.Add(-3 * time.Minute)
	second := base.Add(-2 * time.Minute)
	m.Record(first)
	m.Record(second)

	require.Equal(t, []time.Time{first, second}, m.RecentEvents(5*time.Minute))
}

func TestMonitorPurge(t *testing.T) {
	base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	m, _ := newTestMonitor(base)

	m.Record(base.Add(-45 * time.Minute))
	m.Record(base.Add(-31 * time.Minute))
	m.Record(base.Add(-5 * time.Minute))

	require.Equal(t, 2, m.Purge(30*time.Minute))
	require.Equal(t, 1, m.Len())
	require.Equal(t, 0, m.Purge(30*time.Minute))
}
