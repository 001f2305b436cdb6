package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/autostamp/internal/activity"
	"github.com/tOgg1/autostamp/internal/config"
	"github.com/tOgg1/autostamp/internal/db"
	"github.com/tOgg1/autostamp/internal/holiday"
	"github.com/tOgg1/autostamp/internal/models"
	"github.com/tOgg1/autostamp/internal/pipeline"
)

type recordingTransport struct {
	mu     sync.Mutex
	calls  []string
	fail   error
	closed bool
}

func (r *recordingTransport) ClockIn(context.Context) (string, error) {
	return r.record("clock_in")
}

func (r *recordingTransport) ClockOut(context.Context) (string, error) {
	return r.record("clock_out")
}

func (r *recordingTransport) record(call string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if r.fail != nil {
		return "", r.fail
	}
	return "09:00", nil
}

func (r *recordingTransport) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []string
	errors []string
}

func (r *recordingNotifier) Send(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, message)
	return nil
}

func (r *recordingNotifier) SendError(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
	return nil
}

func idleProbe(context.Context) (time.Duration, error) {
	return time.Hour, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Global.DataDir = dir
	cfg.Global.ConfigDir = dir
	cfg.Database.Path = filepath.Join(dir, "test.db")
	cfg.TimeRules.Timezone = "UTC"
	cfg.Slack.Enabled = false
	return cfg
}

func testOptions(transport *recordingTransport, notifier *recordingNotifier) Options {
	return Options{
		DisableCalendar: true,
		Probe:           activity.ProbeFunc(idleProbe),
		Transport:       transport,
		Notifier:        notifier,
		Now: func() time.Time {
			return time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
		},
	}
}

func TestRunReturnsOnCanceledContext(t *testing.T) {
	transport := &recordingTransport{}
	daemon, err := New(testConfig(t), config.Secrets{}, zerolog.Nop(), testOptions(transport, &recordingNotifier{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- daemon.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}

	assert.False(t, daemon.Runner().IsRunning())
	assert.True(t, transport.closed)
	assert.Nil(t, daemon.Database())
}

func TestNewWithDatabase(t *testing.T) {
	cfg := testConfig(t)

	daemon, err := New(cfg, config.Secrets{}, zerolog.Nop(), testOptions(&recordingTransport{}, &recordingNotifier{}))
	require.NoError(t, err)
	defer daemon.Close()

	require.NotNil(t, daemon.Database())
	assert.NotNil(t, daemon.Holidays())
	assert.NotNil(t, daemon.Monitor())
	assert.NotNil(t, daemon.Sampler())
	assert.NotNil(t, daemon.Runner())
	assert.Equal(t, 1, daemon.Publisher().SubscriberCount())

	_, err = os.Stat(cfg.Database.Path)
	require.NoError(t, err, "expected database file to exist")
}

func TestNewWithDatabaseDisabled(t *testing.T) {
	opts := testOptions(&recordingTransport{}, &recordingNotifier{})
	opts.DisableDatabase = true

	daemon, err := New(testConfig(t), config.Secrets{}, zerolog.Nop(), opts)
	require.NoError(t, err)
	defer daemon.Close()

	assert.Nil(t, daemon.Database())
	assert.NotNil(t, daemon.Holidays())
	assert.NotNil(t, daemon.Runner())
}

func TestNewWithCacheDisabledSkipsDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Calendar.Cache = false

	daemon, err := New(cfg, config.Secrets{}, zerolog.Nop(), testOptions(&recordingTransport{}, &recordingNotifier{}))
	require.NoError(t, err)
	defer daemon.Close()

	assert.Nil(t, daemon.Database())
}

func TestNewPlaywrightWithoutURLFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Browser.Stamper = config.StamperPlaywright

	opts := testOptions(nil, &recordingNotifier{})
	opts.Transport = nil

	_, err := New(cfg, config.Secrets{}, zerolog.Nop(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stamp transport")
}

func TestTickClocksInWhenWorking(t *testing.T) {
	transport := &recordingTransport{}
	notifier := &recordingNotifier{}
	daemon, err := New(testConfig(t), config.Secrets{}, zerolog.Nop(), testOptions(transport, notifier))
	require.NoError(t, err)
	defer daemon.Close()

	now := time.Now()
	daemon.Monitor().Record(now.Add(-3 * time.Minute))
	daemon.Monitor().Record(now.Add(-time.Minute))

	result := daemon.Tick(context.Background())

	assert.Equal(t, pipeline.StepComplete, result.Step)
	assert.Equal(t, models.ActionClockIn, result.Action)
	assert.Equal(t, []string{"clock_in"}, transport.calls)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "09:00")

	state := daemon.State()
	require.NotNil(t, state)
	assert.True(t, state.ClockInDone)
	assert.Equal(t, "2026-10-14", state.Date)
}

func TestTickIdleDoesNotStamp(t *testing.T) {
	transport := &recordingTransport{}
	notifier := &recordingNotifier{}
	daemon, err := New(testConfig(t), config.Secrets{}, zerolog.Nop(), testOptions(transport, notifier))
	require.NoError(t, err)
	defer daemon.Close()

	result := daemon.Tick(context.Background())

	assert.Equal(t, pipeline.StepActivity, result.Step)
	assert.Empty(t, transport.calls)
	assert.Empty(t, notifier.sent)
}

func TestRunOnceReportsStampFailure(t *testing.T) {
	transport := &recordingTransport{fail: errors.New("portal down")}
	notifier := &recordingNotifier{}
	daemon, err := New(testConfig(t), config.Secrets{}, zerolog.Nop(), testOptions(transport, notifier))
	require.NoError(t, err)
	defer daemon.Close()

	now := time.Now()
	daemon.Monitor().Record(now.Add(-3 * time.Minute))
	daemon.Monitor().Record(now.Add(-time.Minute))

	result, err := daemon.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ActionError, result.Action)
	assert.Contains(t, result.ErrorMessage, "portal down")
	require.Len(t, notifier.errors, 1)
	assert.Contains(t, notifier.errors[0], "portal down")
}

func TestNewHolidayServiceWithoutCredentialsFallsBackToLocal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Calendar.CredentialsPath = filepath.Join(t.TempDir(), "missing.json")
	cfg.Calendar.Cache = false

	service := NewHolidayService(context.Background(), cfg, nil, HolidayOptions{Logger: zerolog.Nop()})

	isHoliday, reason := service.IsHoliday(context.Background(), time.Date(2026, time.October, 12, 12, 0, 0, 0, time.UTC))
	assert.True(t, isHoliday)
	assert.Equal(t, "スポーツの日", reason)

	isHoliday, _ = service.IsHoliday(context.Background(), time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC))
	assert.False(t, isHoliday)
}

func TestNewPrunesStaleHolidayCache(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	database, err := OpenDatabase(ctx, cfg)
	require.NoError(t, err)
	repo := db.NewHolidayRepository(database)
	stale := models.DateOf(time.Now().AddDate(0, 0, -holidayCacheRetentionDays-10))
	fresh := models.DateOf(time.Now())
	require.NoError(t, repo.Put(ctx, &models.HolidayRecord{Date: stale, Source: "none", CheckedAt: time.Now()}))
	require.NoError(t, repo.Put(ctx, &models.HolidayRecord{Date: fresh, Source: "none", CheckedAt: time.Now()}))
	require.NoError(t, database.Close())

	daemon, err := New(cfg, config.Secrets{}, zerolog.Nop(), testOptions(&recordingTransport{}, &recordingNotifier{}))
	require.NoError(t, err)
	defer daemon.Close()

	repo = db.NewHolidayRepository(daemon.Database())
	_, err = repo.Get(ctx, stale)
	require.ErrorIs(t, err, db.ErrHolidayNotFound)
	_, err = repo.Get(ctx, fresh)
	require.NoError(t, err)
}

type fixedRemote struct {
	result holiday.Result
	calls  int
}

func (f *fixedRemote) Lookup(context.Context, time.Time) (holiday.Result, error) {
	f.calls++
	return f.result, nil
}

func recordWork(d *Daemon) {
	now := time.Now()
	d.Monitor().Record(now.Add(-3 * time.Minute))
	d.Monitor().Record(now.Add(-time.Minute))
}

func TestTickWithoutRemoteLeavesCacheEmpty(t *testing.T) {
	cfg := testConfig(t)
	daemon, err := New(cfg, config.Secrets{}, zerolog.Nop(), testOptions(&recordingTransport{}, &recordingNotifier{}))
	require.NoError(t, err)
	defer daemon.Close()

	recordWork(daemon)
	daemon.Tick(context.Background())

	_, err = db.NewHolidayRepository(daemon.Database()).Get(context.Background(), "2026-10-14")
	require.ErrorIs(t, err, db.ErrHolidayNotFound)
}

func TestTickPersistsRemoteDecision(t *testing.T) {
	cfg := testConfig(t)
	remote := &fixedRemote{result: holiday.Result{Source: holiday.SourceNone}}
	opts := testOptions(&recordingTransport{}, &recordingNotifier{})
	opts.DisableCalendar = false
	opts.Remote = remote

	daemon, err := New(cfg, config.Secrets{}, zerolog.Nop(), opts)
	require.NoError(t, err)
	defer daemon.Close()

	recordWork(daemon)
	daemon.Tick(context.Background())

	record, err := db.NewHolidayRepository(daemon.Database()).Get(context.Background(), "2026-10-14")
	require.NoError(t, err)
	assert.False(t, record.Holiday)
	assert.Equal(t, "none", record.Source)
	assert.Equal(t, 1, remote.calls)
}

func TestLocalLookupDoesNotHideLaterLeave(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	future := time.Date(2026, time.October, 20, 12, 0, 0, 0, time.UTC)

	database, err := OpenDatabase(ctx, cfg)
	require.NoError(t, err)
	local := NewHolidayService(ctx, cfg, database, HolidayOptions{DisableCalendar: true, Logger: zerolog.Nop()})
	assert.False(t, local.Resolve(ctx, future).Holiday)
	require.NoError(t, database.Close())

	database, err = OpenDatabase(ctx, cfg)
	require.NoError(t, err)
	defer database.Close()
	remote := &fixedRemote{result: holiday.Result{Holiday: true, Reason: "有給", Source: holiday.SourceCalendar}}
	service := NewHolidayService(ctx, cfg, database, HolidayOptions{Remote: remote, Logger: zerolog.Nop()})

	isHoliday, reason := service.IsHoliday(ctx, future)
	assert.True(t, isHoliday)
	assert.Equal(t, "有給", reason)
	assert.Equal(t, 1, remote.calls)
}
