package pipeline

import (
	"context"
	"errors"

	"github.com/tOgg1/autostamp/internal/models"
)

// Transport performs stamps and returns the accepted "HH:MM" time.
type Transport interface {
	ClockIn(ctx context.Context) (string, error)
	ClockOut(ctx context.Context) (string, error)
}

// StampOutcome is the state change produced by executing a stamp action.
type StampOutcome struct {
	Action       models.Action
	ClockInTime  string
	ClockOutTime string
	ErrorMessage string
}

// Apply writes the outcome into state. Time fields are only overwritten by
// accepted stamps.
func (o StampOutcome) Apply(state *models.AttendanceState) {
	if o.ClockInTime != "" {
		state.ClockInDone = true
		state.ClockInTime = o.ClockInTime
	}
	if o.ClockOutTime != "" {
		state.LastClockOutTime = o.ClockOutTime
	}
	state.Action = o.Action
	state.ErrorMessage = o.ErrorMessage
}

// errEmptyStampTime is reported when a transport accepts a stamp but returns
// no time.
var errEmptyStampTime = errors.New("stamp returned an empty time")

// ExecuteStamp performs action against transport. Errors become an
// ActionError outcome; they are never returned.
func ExecuteStamp(ctx context.Context, transport Transport, action models.Action) StampOutcome {
	switch action {
	case models.ActionClockIn:
		stamped, err := stampTime(transport.ClockIn(ctx))
		if err != nil {
			return StampOutcome{Action: models.ActionError, ErrorMessage: err.Error()}
		}
		return StampOutcome{Action: models.ActionClockIn, ClockInTime: stamped}

	case models.ActionClockOut:
		stamped, err := stampTime(transport.ClockOut(ctx))
		if err != nil {
			return StampOutcome{Action: models.ActionError, ErrorMessage: err.Error()}
		}
		return StampOutcome{Action: models.ActionClockOut, ClockOutTime: stamped}

	case models.ActionClockInAndOut:
		in, err := stampTime(transport.ClockIn(ctx))
		if err != nil {
			return StampOutcome{Action: models.ActionError, ErrorMessage: "clock-in failed: " + err.Error()}
		}
		out, err := stampTime(transport.ClockOut(ctx))
		if err != nil {
			// The accepted clock-in is kept so the next tick only retries clock-out.
			return StampOutcome{
				Action:       models.ActionError,
				ClockInTime:  in,
				ErrorMessage: "clock-out failed: " + err.Error(),
			}
		}
		return StampOutcome{Action: models.ActionClockInAndOut, ClockInTime: in, ClockOutTime: out}

	default:
		return StampOutcome{Action: models.ActionSkipped}
	}
}

func stampTime(stamped string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if stamped == "" {
		return "", errEmptyStampTime
	}
	return stamped, nil
}

// StateReset runs at the end of a tick. A date change resets the whole day
// and reports true; otherwise only the error message is cleared.
func StateReset(state *models.AttendanceState, observedDate string) bool {
	if state.EnsureDate(observedDate) {
		return true
	}
	state.ErrorMessage = ""
	return false
}
