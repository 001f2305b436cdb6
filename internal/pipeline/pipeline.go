// Package pipeline runs one attendance decision per tick: activity check,
// holiday check, time gate, stamp, notification and daily reset.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tOgg1/autostamp/internal/config"
	"github.com/tOgg1/autostamp/internal/logging"
	"github.com/tOgg1/autostamp/internal/models"
	"github.com/tOgg1/autostamp/internal/notify"
)

// Step names the stage that ended a tick.
type Step string

const (
	StepActivity Step = "activity"
	StepHoliday  Step = "holiday"
	StepTimeGate Step = "time_gate"
	StepComplete Step = "complete"
)

// ActivityOracle reports recent user input.
type ActivityOracle interface {
	IsWorking(window time.Duration, minCount int) bool
	RecentEvents(window time.Duration) []time.Time
}

// HolidayOracle reports whether a date is a non-working day.
type HolidayOracle interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, string)
}

// HolidayDecider is a HolidayOracle that can report a provisional answer.
// A decision that is not final is used for the current tick and looked up
// again on the next one.
type HolidayDecider interface {
	HolidayDecision(ctx context.Context, date time.Time) (holiday bool, reason string, final bool)
}

// Notifier delivers stamp outcomes.
type Notifier interface {
	Send(ctx context.Context, message string) error
	SendError(ctx context.Context, message string) error
}

// Config holds the decision parameters.
type Config struct {
	Window   time.Duration
	MinCount int
	Rules    config.TimeRules
}

// ConfigFrom extracts the pipeline parameters from application config.
func ConfigFrom(cfg *config.Config) (Config, error) {
	rules, err := cfg.TimeRules.Rules()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Window:   cfg.WorkingState.Window(),
		MinCount: cfg.WorkingState.MinEventCount,
		Rules:    rules,
	}, nil
}

// Dependencies are the collaborators a Pipeline calls.
type Dependencies struct {
	Activity  ActivityOracle
	Holidays  HolidayOracle
	Transport Transport
	Notifier  Notifier
}

// Result describes one tick.
type Result struct {
	TickID           string        `json:"tick_id"`
	Date             string        `json:"date"`
	Step             Step          `json:"step"`
	Action           models.Action `json:"action"`
	Working          bool          `json:"working"`
	EventCount       int           `json:"event_count"`
	Holiday          bool          `json:"holiday"`
	HolidayReason    string        `json:"holiday_reason,omitempty"`
	ClockInTime      string        `json:"clock_in_time,omitempty"`
	LastClockOutTime string        `json:"last_clock_out_time,omitempty"`
	ErrorMessage     string        `json:"error_message,omitempty"`
	RolledOver       bool          `json:"rolled_over,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
}

// Stamped reports whether the tick got a stamp accepted.
func (r Result) Stamped() bool {
	return r.Action.IsStamp()
}

// Pipeline runs ticks against a Store.
type Pipeline struct {
	cfg    Config
	deps   Dependencies
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithLogger overrides the pipeline logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline. All dependencies are required.
func New(cfg Config, deps Dependencies, opts ...Option) (*Pipeline, error) {
	if deps.Activity == nil || deps.Holidays == nil || deps.Transport == nil || deps.Notifier == nil {
		return nil, errors.New("pipeline: activity, holidays, transport and notifier are required")
	}
	if cfg.Rules.Location == nil {
		cfg.Rules.Location = time.Local
	}
	p := &Pipeline{
		cfg:    cfg,
		deps:   deps,
		now:    time.Now,
		logger: logging.Component("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Pipeline) clock() time.Time {
	return p.now().In(p.cfg.Rules.Location)
}

// Run executes one tick and commits the resulting state to store.
func (p *Pipeline) Run(ctx context.Context, store *Store) Result {
	started := p.clock()
	today := models.DateOf(started)

	result := Result{
		TickID:    uuid.NewString(),
		Date:      today,
		StartedAt: started,
	}
	logger := logging.WithTick(p.logger, result.TickID)

	state := store.Snapshot()
	if state == nil {
		state = models.NewAttendanceState(today)
	} else if previous := state.Date; state.EnsureDate(today) {
		result.RolledOver = true
		logger.Info().Str("previous", previous).Str("date", today).Msg("new day, state reset")
	}
	state.BeginTick()

	// finish commits state and reports from view, which differs from state
	// only when StateReset wiped the day after a stamp.
	finish := func(step Step, view *models.AttendanceState) Result {
		store.Commit(state)
		result.Step = step
		result.Action = view.Action
		result.Working = view.Working
		result.EventCount = len(view.RecentActivity)
		result.Holiday = view.Holiday
		result.HolidayReason = view.HolidayReason
		result.ClockInTime = view.ClockInTime
		result.LastClockOutTime = view.LastClockOutTime
		result.Duration = p.clock().Sub(started)
		logger.Debug().
			Str("step", string(step)).
			Str("action", result.Action.String()).
			Dur("duration", result.Duration).
			Msg("tick finished")
		return result
	}

	// ActivityCheck
	state.Working = p.deps.Activity.IsWorking(p.cfg.Window, p.cfg.MinCount)
	state.RecentActivity = p.deps.Activity.RecentEvents(p.cfg.Window)
	if !state.Working {
		logger.Debug().Int("events", len(state.RecentActivity)).Msg("not working")
		return finish(StepActivity, state)
	}

	// HolidayCheck
	if !state.HolidayChecked {
		final := true
		if decider, ok := p.deps.Holidays.(HolidayDecider); ok {
			state.Holiday, state.HolidayReason, final = decider.HolidayDecision(ctx, started)
		} else {
			state.Holiday, state.HolidayReason = p.deps.Holidays.IsHoliday(ctx, started)
		}
		if !state.Holiday {
			state.HolidayReason = ""
		}
		state.HolidayChecked = final
		logger.Info().
			Bool("holiday", state.Holiday).
			Str("reason", state.HolidayReason).
			Bool("final", final).
			Msg("holiday checked")
	}
	if state.Holiday {
		return finish(StepHoliday, state)
	}

	// TimeGate
	state.Action = TimeGate(models.TimeOfDayOf(started), state.ClockInDone, p.cfg.Rules)
	if state.Action == models.ActionSkipped {
		state.ErrorMessage = ""
		return finish(StepTimeGate, state)
	}

	// StampExecute
	logger.Info().Str("action", state.Action.String()).Msg("stamping")
	outcome := ExecuteStamp(ctx, p.deps.Transport, state.Action)
	outcome.Apply(state)
	store.Commit(state)
	result.ErrorMessage = state.ErrorMessage
	if state.Action == models.ActionError {
		logger.Warn().Str("error", state.ErrorMessage).Msg("stamp failed")
	} else {
		logger.Info().
			Str("action", state.Action.String()).
			Str("clock_in", state.ClockInTime).
			Str("clock_out", state.LastClockOutTime).
			Msg("stamp accepted")
	}

	// Notify
	p.notify(ctx, logger, state)

	// StateReset
	view := state.Clone()
	if StateReset(state, models.DateOf(p.clock())) {
		result.RolledOver = true
		logger.Info().Str("date", state.Date).Msg("new day during tick, state reset")
	}

	return finish(StepComplete, view)
}

func (p *Pipeline) notify(ctx context.Context, logger zerolog.Logger, state *models.AttendanceState) {
	var err error
	switch state.Action {
	case models.ActionError:
		err = p.deps.Notifier.SendError(ctx, state.ErrorMessage)
	default:
		message, ok := notify.StampMessage(state.Action, state.ClockInTime, state.LastClockOutTime)
		if !ok {
			return
		}
		err = p.deps.Notifier.Send(ctx, message)
	}
	if err != nil {
		logger.Warn().Err(err).Str("action", state.Action.String()).Msg("notification failed")
	}
}
