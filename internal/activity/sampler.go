package activity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/autostamp/internal/logging"
)

// Sampler errors.
var (
	ErrSamplerAlreadyRunning = errors.New("sampler already running")
	ErrSamplerNotRunning     = errors.New("sampler not running")
)

// SamplerConfig contains configuration for the idle sampler.
type SamplerConfig struct {
	// Interval is how often the probe is sampled.
	// Default: 5s
	Interval time.Duration

	// Retention is how long recorded events are kept.
	// Default: 30m
	Retention time.Duration

	// ProbeTimeout bounds one probe call.
	// Default: 2s
	ProbeTimeout time.Duration
}

// DefaultSamplerConfig returns sensible defaults.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Interval:     5 * time.Second,
		Retention:    30 * time.Minute,
		ProbeTimeout: 2 * time.Second,
	}
}

// Sampler turns an IdleProbe into monitor events: whenever the reported idle
// time is shorter than the sampling interval, input happened since the
// previous sample and an event is recorded at that moment.
type Sampler struct {
	config  SamplerConfig
	probe   IdleProbe
	monitor *Monitor
	logger  zerolog.Logger
	now     func() time.Time

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	probeFailed bool
}

// NewSampler creates a Sampler feeding monitor.
func NewSampler(config SamplerConfig, probe IdleProbe, monitor *Monitor) *Sampler {
	defaults := DefaultSamplerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Retention <= 0 {
		config.Retention = defaults.Retention
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = defaults.ProbeTimeout
	}

	return &Sampler{
		config:  config,
		probe:   probe,
		monitor: monitor,
		logger:  logging.Component("activity-sampler"),
		now:     time.Now,
	}
}

// Start begins sampling in the background.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSamplerAlreadyRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Dur("retention", s.config.Retention).
		Msg("activity sampler starting")

	s.wg.Add(1)
	go s.runLoop(ctx)

	return nil
}

// Stop halts sampling and waits for the loop to exit.
func (s *Sampler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSamplerNotRunning
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("activity sampler stopped")
	return nil
}

func (s *Sampler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

// sample performs one probe and records an event when input was seen.
func (s *Sampler) sample(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, s.config.ProbeTimeout)
	idle, err := s.probe.Idle(probeCtx)
	cancel()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Log the first failure loudly, repeats at debug.
		s.mu.Lock()
		first := !s.probeFailed
		s.probeFailed = true
		s.mu.Unlock()
		event := s.logger.Debug()
		if first {
			event = s.logger.Warn()
		}
		event.Err(err).Msg("idle probe failed")
		return
	}

	s.mu.Lock()
	s.probeFailed = false
	s.mu.Unlock()

	if idle < s.config.Interval {
		s.monitor.Record(s.now().Add(-idle))
	}
	if removed := s.monitor.Purge(s.config.Retention); removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("purged old activity events")
	}
}
