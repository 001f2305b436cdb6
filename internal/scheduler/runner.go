// Package scheduler runs the attendance pipeline on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/autostamp/internal/events"
	"github.com/tOgg1/autostamp/internal/logging"
	"github.com/tOgg1/autostamp/internal/models"
	"github.com/tOgg1/autostamp/internal/pipeline"
)

// Runner errors.
var (
	ErrRunnerAlreadyRunning = errors.New("runner already running")
	ErrRunnerNotRunning     = errors.New("runner not running")
	ErrTickInProgress       = errors.New("tick already in progress")
	ErrTickPanicked         = errors.New("tick panicked")
)

// TickFunc runs one pipeline tick.
type TickFunc func(ctx context.Context) pipeline.Result

// PanicReporter receives a message when a tick panics.
type PanicReporter interface {
	SendError(ctx context.Context, message string) error
}

// RunnerConfig contains configuration for the runner.
type RunnerConfig struct {
	// Interval is the time between ticks.
	// Default: 5m
	Interval time.Duration

	// TickTimeout bounds one tick. Zero means no timeout.
	TickTimeout time.Duration

	// RunOnStart fires a tick as soon as the runner starts.
	RunOnStart bool
}

// DefaultRunnerConfig returns sensible defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Interval:    5 * time.Minute,
		TickTimeout: 3 * time.Minute,
	}
}

// Stats counts tick outcomes since the runner was created.
type Stats struct {
	Ticks    int64
	Overlaps int64
	Panics   int64
}

// Runner fires ticks on an interval and never runs two at once.
type Runner struct {
	config    RunnerConfig
	tick      TickFunc
	publisher events.Publisher
	reporter  PanicReporter
	logger    zerolog.Logger

	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	trigger chan struct{}

	tickMu sync.Mutex

	ticks    atomic.Int64
	overlaps atomic.Int64
	panics   atomic.Int64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPublisher publishes tick events.
func WithPublisher(publisher events.Publisher) RunnerOption {
	return func(r *Runner) {
		r.publisher = publisher
	}
}

// WithPanicReporter reports recovered panics, typically to the notifier.
func WithPanicReporter(reporter PanicReporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

// WithLogger overrides the runner logger.
func WithLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new Runner.
func NewRunner(config RunnerConfig, tick TickFunc, opts ...RunnerOption) *Runner {
	if config.Interval <= 0 {
		config.Interval = DefaultRunnerConfig().Interval
	}

	r := &Runner{
		config:  config,
		tick:    tick,
		logger:  logging.Component("scheduler"),
		trigger: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins the tick loop.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrRunnerAlreadyRunning
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.running = true

	r.logger.Info().
		Dur("interval", r.config.Interval).
		Dur("tick_timeout", r.config.TickTimeout).
		Bool("run_on_start", r.config.RunOnStart).
		Msg("runner starting")

	r.wg.Add(1)
	go r.runLoop(r.ctx)

	return nil
}

// Stop halts the loop and waits for an in-flight tick to finish.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrRunnerNotRunning
	}

	r.logger.Info().Msg("runner stopping")
	r.cancel()
	r.running = false
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info().Msg("runner stopped")
	return nil
}

// IsRunning returns true if the runner is running.
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// TriggerNow requests an immediate tick. Requests made while one is already
// pending are coalesced.
func (r *Runner) TriggerNow() error {
	if !r.IsRunning() {
		return ErrRunnerNotRunning
	}
	select {
	case r.trigger <- struct{}{}:
	default:
	}
	return nil
}

// Stats returns tick counters.
func (r *Runner) Stats() Stats {
	return Stats{
		Ticks:    r.ticks.Load(),
		Overlaps: r.overlaps.Load(),
		Panics:   r.panics.Load(),
	}
}

func (r *Runner) runLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	if r.config.RunOnStart {
		r.fire(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fire(ctx)
		case <-r.trigger:
			r.fire(ctx)
		}
	}
}

// fire runs a tick in the background so a slow tick shows up as an overlap
// on the next interval instead of delaying the loop.
func (r *Runner) fire(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil && !errors.Is(err, ErrTickInProgress) && !errors.Is(err, ErrTickPanicked) {
			r.logger.Warn().Err(err).Msg("tick failed")
		}
	}()
}

// RunOnce runs a single tick now. It returns ErrTickInProgress when another
// tick holds the lock, and an error wrapping ErrTickPanicked when the tick
// panicked.
func (r *Runner) RunOnce(ctx context.Context) (result pipeline.Result, err error) {
	if !r.tickMu.TryLock() {
		r.overlaps.Add(1)
		r.logger.Warn().Msg("previous tick still running, skipping")
		r.publish(ctx, &models.Event{Type: models.EventTypeTickSkipped, Message: ErrTickInProgress.Error()})
		return pipeline.Result{}, ErrTickInProgress
	}
	defer r.tickMu.Unlock()

	if err := ctx.Err(); err != nil {
		return pipeline.Result{}, err
	}

	tickCtx := ctx
	if r.config.TickTimeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(ctx, r.config.TickTimeout)
		defer cancel()
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			r.panics.Add(1)
			err = fmt.Errorf("%w: %v", ErrTickPanicked, recovered)
			r.reportPanic(ctx, recovered)
		}
	}()

	r.ticks.Add(1)
	result = r.tick(tickCtx)
	r.publishResult(ctx, result)
	return result, nil
}

func (r *Runner) reportPanic(ctx context.Context, recovered any) {
	message := fmt.Sprintf("tick panicked: %v", recovered)
	r.logger.Error().
		Str("panic", fmt.Sprint(recovered)).
		Str("stack", string(debug.Stack())).
		Msg("recovered from tick panic")

	r.publish(ctx, &models.Event{Type: models.EventTypeTickPanicked, Message: message})

	if r.reporter == nil {
		return
	}
	// The tick context may be the reason for the panic; report on a fresh one.
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := r.reporter.SendError(reportCtx, message); err != nil {
		r.logger.Warn().Err(err).Msg("failed to report tick panic")
	}
}

func (r *Runner) publishResult(ctx context.Context, result pipeline.Result) {
	if r.publisher == nil {
		return
	}

	if result.RolledOver {
		r.publish(ctx, &models.Event{
			Type:    models.EventTypeDayRolledOver,
			TickID:  result.TickID,
			Message: result.Date,
		})
	}

	switch {
	case result.Action == models.ActionError:
		r.publish(ctx, &models.Event{
			Type:    models.EventTypeStampFailed,
			TickID:  result.TickID,
			Action:  result.Action,
			Step:    string(result.Step),
			Message: result.ErrorMessage,
		})
	case result.Action.IsStamp():
		r.publish(ctx, &models.Event{
			Type:   models.EventTypeStampSucceeded,
			TickID: result.TickID,
			Action: result.Action,
			Step:   string(result.Step),
		})
	}

	r.publish(ctx, &models.Event{
		Type:    models.EventTypeTickCompleted,
		TickID:  result.TickID,
		Action:  result.Action,
		Step:    string(result.Step),
		Message: result.ErrorMessage,
	})
}

func (r *Runner) publish(ctx context.Context, event *models.Event) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(ctx, event)
}
