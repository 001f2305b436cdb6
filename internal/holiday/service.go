package holiday

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/autostamp/internal/logging"
	"github.com/tOgg1/autostamp/internal/models"
)

// Service combines local rules, an optional remote lookup and an optional
// cache into an Oracle.
//
// Only answers confirmed by the remote are written to the cache, and a
// workday answer only for today or earlier. A service without a remote reads
// the cache but never writes it.
type Service struct {
	local  Local
	remote Remote
	cache  *Cache
	now    func() time.Time
	logger zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRemote adds a remote lookup consulted when local rules find a workday.
func WithRemote(remote Remote) ServiceOption {
	return func(s *Service) {
		s.remote = remote
	}
}

// WithCache caches decisions per date.
func WithCache(cache *Cache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithClock overrides the clock used to tell past days from future ones.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger overrides the service logger.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service over local rules.
func NewService(local Local, opts ...ServiceOption) *Service {
	s := &Service{
		local:  local,
		now:    time.Now,
		logger: logging.Component("holiday"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the decision for date. Errors never escape: a failed remote
// lookup yields the local answer marked Provisional.
func (s *Service) Resolve(ctx context.Context, date time.Time) Result {
	key := models.DateOf(date)

	if s.cache != nil {
		result, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("date", key).Msg("holiday cache read failed")
		} else if ok {
			return result
		}
	}

	result := s.local.Lookup(date)
	if !result.Holiday && s.remote != nil {
		remote, err := s.remote.Lookup(ctx, date)
		if err != nil {
			s.logger.Warn().Err(err).Str("date", key).Msg("remote holiday lookup failed, using local rules")
			result.Provisional = true
			return result
		}
		result = remote
	}

	if s.cacheable(date, result) {
		if err := s.cache.Put(ctx, key, result); err != nil {
			s.logger.Warn().Err(err).Str("date", key).Msg("holiday cache write failed")
		}
	}

	s.logger.Debug().
		Str("date", key).
		Bool("holiday", result.Holiday).
		Str("reason", result.Reason).
		Str("source", string(result.Source)).
		Msg("holiday resolved")

	return result
}

func (s *Service) cacheable(date time.Time, result Result) bool {
	if s.cache == nil || s.remote == nil || result.Provisional {
		return false
	}
	if result.Holiday {
		return true
	}
	today := models.DateOf(s.now().In(date.Location()))
	return models.DateOf(date) <= today
}

// IsHoliday implements Oracle.
func (s *Service) IsHoliday(ctx context.Context, date time.Time) (bool, string) {
	result := s.Resolve(ctx, date)
	return result.Holiday, result.Reason
}

// HolidayDecision reports the decision for date and whether it is final.
// Provisional answers are not final.
func (s *Service) HolidayDecision(ctx context.Context, date time.Time) (bool, string, bool) {
	result := s.Resolve(ctx, date)
	return result.Holiday, result.Reason, !result.Provisional
}
