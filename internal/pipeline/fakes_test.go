package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/autostamp/internal/config"
	"github.com/tOgg1/autostamp/internal/models"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fakeActivity struct {
	working bool
	events  []time.Time
}

func (f *fakeActivity) IsWorking(time.Duration, int) bool { return f.working }

func (f *fakeActivity) RecentEvents(time.Duration) []time.Time { return f.events }

type fakeHolidays struct {
	holiday     bool
	reason      string
	provisional bool
	calls       int
}

func (f *fakeHolidays) IsHoliday(context.Context, time.Time) (bool, string) {
	f.calls++
	return f.holiday, f.reason
}

func (f *fakeHolidays) HolidayDecision(ctx context.Context, date time.Time) (bool, string, bool) {
	holiday, reason := f.IsHoliday(ctx, date)
	return holiday, reason, !f.provisional
}

// plainOracle hides HolidayDecision so the pipeline sees only IsHoliday.
type plainOracle struct {
	HolidayOracle
}

type stampReply struct {
	time string
	err  error
}

type fakeTransport struct {
	clock     *testClock
	clockIns  []stampReply
	clockOuts []stampReply
	calls     []string

	// afterClockOut, when set, moves the clock after a clock-out call.
	afterClockOut time.Time
}

func (f *fakeTransport) ClockIn(context.Context) (string, error) {
	f.calls = append(f.calls, "clock_in")
	return f.reply(&f.clockIns)
}

func (f *fakeTransport) ClockOut(context.Context) (string, error) {
	f.calls = append(f.calls, "clock_out")
	reply, err := f.reply(&f.clockOuts)
	if !f.afterClockOut.IsZero() {
		f.clock.Set(f.afterClockOut)
	}
	return reply, err
}

// reply pops the next queued reply, or stamps the current clock time.
func (f *fakeTransport) reply(queue *[]stampReply) (string, error) {
	if len(*queue) > 0 {
		next := (*queue)[0]
		*queue = (*queue)[1:]
		return next.time, next.err
	}
	return models.FormatStampTime(f.clock.Now()), nil
}

type fakeNotifier struct {
	sent   []string
	errors []string
	err    error
	panic  bool
}

func (f *fakeNotifier) Send(_ context.Context, message string) error {
	if f.panic {
		panic("notifier exploded")
	}
	f.sent = append(f.sent, message)
	return f.err
}

func (f *fakeNotifier) SendError(_ context.Context, message string) error {
	if f.panic {
		panic("notifier exploded")
	}
	f.errors = append(f.errors, message)
	return f.err
}

func (f *fakeNotifier) calls() int {
	return len(f.sent) + len(f.errors)
}

type harness struct {
	clock     *testClock
	activity  *fakeActivity
	holidays  *fakeHolidays
	transport *fakeTransport
	notifier  *fakeNotifier
	store     *Store
	pipeline  *Pipeline
}

func testRules() config.TimeRules {
	return config.TimeRules{
		ClockOut: models.MustParseTimeOfDay("18:00"),
		Cutoff:   models.MustParseTimeOfDay("22:00"),
		Location: time.UTC,
	}
}

func at(day int, hhmm string) time.Time {
	tod := models.MustParseTimeOfDay(hhmm)
	return time.Date(2026, time.October, day, tod.Hour, tod.Minute, 0, 0, time.UTC)
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	return newHarnessWithRules(t, now, testRules())
}

func newHarnessWithRules(t *testing.T, now time.Time, rules config.TimeRules) *harness {
	t.Helper()

	clock := &testClock{t: now}
	h := &harness{
		clock:     clock,
		activity:  &fakeActivity{working: true, events: []time.Time{now.Add(-time.Minute), now}},
		holidays:  &fakeHolidays{},
		transport: &fakeTransport{clock: clock},
		notifier:  &fakeNotifier{},
		store:     NewStore(),
	}

	p, err := New(Config{Window: 15 * time.Minute, MinCount: 2, Rules: rules}, Dependencies{
		Activity:  h.activity,
		Holidays:  h.holidays,
		Transport: h.transport,
		Notifier:  h.notifier,
	}, WithClock(clock.Now), WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	h.pipeline = p
	return h
}

func (h *harness) run() Result {
	return h.pipeline.Run(context.Background(), h.store)
}

func (h *harness) state(t *testing.T) *models.AttendanceState {
	t.Helper()
	state := h.store.Snapshot()
	require.NotNil(t, state)
	return state
}
