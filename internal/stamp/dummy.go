package stamp

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/autostamp/internal/logging"
	"github.com/tOgg1/autostamp/internal/models"
)

// Dummy logs stamps without contacting any system.
type Dummy struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewDummy creates a Dummy transport.
func NewDummy() *Dummy {
	return &Dummy{
		logger: logging.Component("stamp"),
		now:    time.Now,
	}
}

// ClockIn implements Transport.
func (d *Dummy) ClockIn(ctx context.Context) (string, error) {
	return d.stamp(ctx, models.ActionClockIn)
}

// ClockOut implements Transport.
func (d *Dummy) ClockOut(ctx context.Context) (string, error) {
	return d.stamp(ctx, models.ActionClockOut)
}

func (d *Dummy) stamp(ctx context.Context, action models.Action) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stamped := models.FormatStampTime(d.now())
	d.logger.Info().Str("action", action.String()).Str("time", stamped).Msg("simulated stamp")
	return stamped, nil
}

// Close implements Transport.
func (d *Dummy) Close() error {
	return nil
}
