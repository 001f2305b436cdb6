// Package daemon wires the attendance pipeline from configuration and owns
// its lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/autostamp/internal/activity"
	"github.com/tOgg1/autostamp/internal/config"
	"github.com/tOgg1/autostamp/internal/db"
	"github.com/tOgg1/autostamp/internal/events"
	"github.com/tOgg1/autostamp/internal/holiday"
	"github.com/tOgg1/autostamp/internal/models"
	"github.com/tOgg1/autostamp/internal/notify"
	"github.com/tOgg1/autostamp/internal/pipeline"
	"github.com/tOgg1/autostamp/internal/scheduler"
	"github.com/tOgg1/autostamp/internal/stamp"
)

const (
	// eventLogSubscriber is the subscription id of the daemon's event logger.
	eventLogSubscriber = "daemon-log"

	// holidayCacheRetentionDays bounds how far back cached decisions are kept.
	holidayCacheRetentionDays = 90
)

// Options configure daemon construction.
type Options struct {
	// DisableDatabase skips the SQLite holiday cache.
	DisableDatabase bool

	// DisableCalendar skips the Google Calendar lookup even when enabled in
	// config.
	DisableCalendar bool

	// Probe overrides the idle probe built from working_state.idle_command.
	Probe activity.IdleProbe

	// Transport overrides the stamp transport built from browser config.
	Transport stamp.Transport

	// Notifier overrides the notifier built from slack config.
	Notifier notify.Notifier

	// Remote overrides the Google Calendar lookup.
	Remote holiday.Remote

	// Now overrides the pipeline and holiday clocks.
	Now func() time.Time
}

// Daemon is the long-running attendance agent.
type Daemon struct {
	cfg    *config.Config
	logger zerolog.Logger

	database  *db.DB
	holidays  *holiday.Service
	monitor   *activity.Monitor
	sampler   *activity.Sampler
	transport stamp.Transport
	notifier  notify.Notifier
	pipeline  *pipeline.Pipeline
	store     *pipeline.Store
	publisher *events.InMemoryPublisher
	runner    *scheduler.Runner
}

// New creates a daemon. Secrets supply the portal login and the Slack token.
func New(cfg *config.Config, secrets config.Secrets, logger zerolog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	d := &Daemon{
		cfg:    cfg,
		logger: logger,
		store:  pipeline.NewStore(),
	}

	if !opts.DisableDatabase && cfg.Calendar.Cache {
		database, err := OpenDatabase(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		d.database = database
		d.pruneHolidayCache(context.Background())
	}

	d.holidays = NewHolidayService(context.Background(), cfg, d.database, HolidayOptions{
		DisableCalendar: opts.DisableCalendar,
		Remote:          opts.Remote,
		Now:             opts.Now,
		Logger:          logger,
	})

	d.monitor = activity.NewMonitor()
	probe := opts.Probe
	if probe == nil {
		commandProbe, err := activity.NewCommandProbe(cfg.WorkingState.IdleCommand)
		if err != nil {
			logger.Warn().Err(err).Msg("idle probe unavailable, no activity will be recorded")
		} else {
			probe = commandProbe
		}
	}
	if probe != nil {
		d.sampler = activity.NewSampler(activity.SamplerConfig{
			Interval:  cfg.WorkingState.SampleInterval,
			Retention: cfg.WorkingState.Retention,
		}, probe, d.monitor)
	}

	d.transport = opts.Transport
	if d.transport == nil {
		transport, err := stamp.New(cfg.Browser, secrets)
		if err != nil {
			d.closeDatabase()
			return nil, fmt.Errorf("failed to create stamp transport: %w", err)
		}
		d.transport = transport
	}

	d.notifier = opts.Notifier
	if d.notifier == nil {
		d.notifier = newNotifier(cfg, secrets)
	}

	pipelineCfg, err := pipeline.ConfigFrom(cfg)
	if err != nil {
		d.closeDatabase()
		return nil, fmt.Errorf("invalid time rules: %w", err)
	}
	var pipelineOpts []pipeline.Option
	if opts.Now != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithClock(opts.Now))
	}
	d.pipeline, err = pipeline.New(pipelineCfg, pipeline.Dependencies{
		Activity:  d.monitor,
		Holidays:  d.holidays,
		Transport: d.transport,
		Notifier:  d.notifier,
	}, pipelineOpts...)
	if err != nil {
		d.closeDatabase()
		return nil, err
	}

	d.publisher = events.NewInMemoryPublisher()
	if err := d.publisher.Subscribe(eventLogSubscriber, events.Filter{}, d.logEvent); err != nil {
		d.closeDatabase()
		return nil, fmt.Errorf("failed to subscribe event logger: %w", err)
	}

	d.runner = scheduler.NewRunner(scheduler.RunnerConfig{
		Interval:    cfg.Scheduler.CheckInterval(),
		TickTimeout: cfg.Scheduler.TickTimeout,
		RunOnStart:  cfg.Scheduler.RunOnStart,
	}, d.Tick,
		scheduler.WithPublisher(d.publisher),
		scheduler.WithPanicReporter(d.notifier),
	)

	return d, nil
}

// OpenDatabase opens and migrates the holiday cache database.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(db.Config{
		Path:          cfg.DatabasePath(),
		BusyTimeoutMs: cfg.Database.BusyTimeoutMs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.MigrateUp(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}

// HolidayOptions configure NewHolidayService.
type HolidayOptions struct {
	DisableCalendar bool

	// Remote replaces the Google Calendar lookup. It is ignored when
	// DisableCalendar is set.
	Remote holiday.Remote

	// Now tells today from future days for cache writes.
	Now func() time.Time

	// Logger receives setup warnings.
	Logger zerolog.Logger
}

// NewHolidayService builds the holiday oracle: local rules, the Google
// Calendar lookup when enabled and available, and a cache backed by database
// when it is non-nil.
func NewHolidayService(ctx context.Context, cfg *config.Config, database *db.DB, opts HolidayOptions) *holiday.Service {
	logger := opts.Logger
	var serviceOpts []holiday.ServiceOption
	if opts.Now != nil {
		serviceOpts = append(serviceOpts, holiday.WithClock(opts.Now))
	}

	if cfg.Calendar.Cache {
		var store holiday.Store
		if database != nil {
			store = db.NewHolidayRepository(database)
		}
		serviceOpts = append(serviceOpts, holiday.WithCache(holiday.NewCache(store)))
	}

	switch {
	case opts.DisableCalendar:
	case opts.Remote != nil:
		serviceOpts = append(serviceOpts, holiday.WithRemote(opts.Remote))
	case cfg.Calendar.Enabled:
		remote, err := holiday.NewGoogleCalendar(ctx, holiday.GoogleConfig{
			CredentialsPath: cfg.Calendar.CredentialsPath,
			TokenPath:       cfg.Calendar.TokenPath,
			Keywords:        cfg.Calendar.VacationKeywords,
		})
		switch {
		case errors.Is(err, holiday.ErrCalendarNotConfigured):
			logger.Warn().Err(err).Msg("google calendar unavailable, using local holiday rules only")
		case err != nil:
			logger.Warn().Err(err).Msg("failed to create google calendar client, using local holiday rules only")
		default:
			serviceOpts = append(serviceOpts, holiday.WithRemote(remote))
		}
	}

	return holiday.NewService(holiday.Local{}, serviceOpts...)
}

func (d *Daemon) pruneHolidayCache(ctx context.Context) {
	before := models.DateOf(time.Now().AddDate(0, 0, -holidayCacheRetentionDays))
	removed, err := db.NewHolidayRepository(d.database).DeleteBefore(ctx, before)
	if err != nil {
		d.logger.Warn().Err(err).Msg("failed to prune holiday cache")
		return
	}
	if removed > 0 {
		d.logger.Debug().Int64("removed", removed).Str("before", before).Msg("pruned holiday cache")
	}
}

func newNotifier(cfg *config.Config, secrets config.Secrets) notify.Notifier {
	console := notify.NewConsole()
	if !cfg.Slack.Enabled {
		return console
	}
	return notify.NewSlack(notify.SlackConfig{
		Token:   secrets.SlackBotToken,
		Channel: cfg.Slack.NotifyChannel,
	}, console)
}

// Run starts the sampler and the runner and blocks until ctx is canceled,
// then shuts everything down.
func (d *Daemon) Run(ctx context.Context) error {
	if d.sampler != nil {
		if err := d.sampler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start activity sampler: %w", err)
		}
	}
	if err := d.runner.Start(ctx); err != nil {
		d.stopSampler()
		return fmt.Errorf("failed to start runner: %w", err)
	}

	d.logger.Info().
		Dur("interval", d.cfg.Scheduler.CheckInterval()).
		Str("stamper", d.cfg.Browser.Stamper).
		Bool("holiday_cache", d.database != nil).
		Msg("autostamp running")

	<-ctx.Done()
	d.logger.Info().Msg("shutting down")
	return d.Close()
}

// Tick runs one pipeline tick against the daemon's state.
func (d *Daemon) Tick(ctx context.Context) pipeline.Result {
	return d.pipeline.Run(ctx, d.store)
}

// RunOnce runs one tick through the runner, with its timeout and panic
// recovery.
func (d *Daemon) RunOnce(ctx context.Context) (pipeline.Result, error) {
	return d.runner.RunOnce(ctx)
}

// Close stops the runner, closes the transport, stops the sampler and closes
// the database, in that order. It is safe to call more than once.
func (d *Daemon) Close() error {
	var errs []error

	if d.runner != nil && d.runner.IsRunning() {
		if err := d.runner.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop runner: %w", err))
		}
	}
	if d.transport != nil {
		if err := d.transport.Close(); err != nil && !errors.Is(err, stamp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close transport: %w", err))
		}
	}
	d.stopSampler()
	if d.publisher != nil {
		d.publisher.Close()
	}
	if err := d.closeDatabase(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	return errors.Join(errs...)
}

func (d *Daemon) stopSampler() {
	if d.sampler == nil {
		return
	}
	if err := d.sampler.Stop(); err != nil && !errors.Is(err, activity.ErrSamplerNotRunning) {
		d.logger.Warn().Err(err).Msg("failed to stop activity sampler")
	}
}

func (d *Daemon) closeDatabase() error {
	if d.database == nil {
		return nil
	}
	err := d.database.Close()
	d.database = nil
	return err
}

func (d *Daemon) logEvent(event *models.Event) {
	var entry *zerolog.Event
	switch event.Type {
	case models.EventTypeStampFailed, models.EventTypeTickPanicked:
		entry = d.logger.Warn()
	case models.EventTypeTickSkipped, models.EventTypeTickCompleted:
		entry = d.logger.Debug()
	default:
		entry = d.logger.Info()
	}
	entry.
		Str("event", string(event.Type)).
		Str("tick_id", event.TickID).
		Str("action", event.Action.String()).
		Str("step", event.Step).
		Str("message", event.Message).
		Msg("tick event")
}

// Database returns the holiday cache database, or nil when disabled.
func (d *Daemon) Database() *db.DB {
	return d.database
}

// Holidays returns the holiday oracle.
func (d *Daemon) Holidays() *holiday.Service {
	return d.holidays
}

// Monitor returns the activity monitor.
func (d *Daemon) Monitor() *activity.Monitor {
	return d.monitor
}

// Sampler returns the activity sampler, or nil when no idle probe is available.
func (d *Daemon) Sampler() *activity.Sampler {
	return d.sampler
}

// Runner returns the periodic runner.
func (d *Daemon) Runner() *scheduler.Runner {
	return d.runner
}

// Publisher returns the tick event publisher.
func (d *Daemon) Publisher() events.Publisher {
	return d.publisher
}

// State returns a copy of the current attendance state, or nil before the
// first tick.
func (d *Daemon) State() *models.AttendanceState {
	return d.store.Snapshot()
}
